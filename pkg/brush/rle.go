// Package brush decodes the bit-packed run-length payloads produced by the
// Label Studio brush tool. The wire format is owned by the labeling tool and
// is reproduced here byte for byte: an MSB-first bit stream holding a 32-bit
// value count, a 5-bit word size (minus one), four 4-bit run-length field
// sizes (minus one), followed by flagged runs. The decoded values form the
// flattened RGBA plane of the annotated image; the mask itself is the alpha
// channel thresholded at nonzero.
package brush

import (
	"errors"
	"fmt"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
)

var (
	// ErrEmptyPayload is returned when a brush result carries no RLE data.
	ErrEmptyPayload = errors.New("brush: empty RLE payload")
	// ErrMalformedPayload is returned when the bit stream is truncated or
	// inconsistent with the declared image dimensions.
	ErrMalformedPayload = errors.New("brush: malformed RLE payload")
	// ErrEmptyMask is returned when decoding succeeds but no pixel is set.
	// An all-empty mask is treated as a failed decode.
	ErrEmptyMask = errors.New("brush: decoded mask has no set pixels")
)

// channels per pixel in the flattened plane the encoder walks over.
const pixelChannels = 4

// Decode reconstructs the dense binary mask for a brush payload. The payload
// is the raw rle array from the annotation value; width and height are the
// declared original image dimensions.
func Decode(rle []int, width, height int) (*datamodel.Mask, error) {
	if len(rle) == 0 {
		return nil, ErrEmptyPayload
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedPayload, width, height)
	}

	data := make([]byte, len(rle))
	for i, v := range rle {
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("%w: byte value %d out of range at offset %d", ErrMalformedPayload, v, i)
		}
		data[i] = byte(v)
	}

	r := &bitReader{data: data}

	num, err := r.read(32)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedPayload)
	}
	if int(num) != width*height*pixelChannels {
		return nil, fmt.Errorf("%w: payload declares %d values, dimensions %dx%d require %d",
			ErrMalformedPayload, num, width, height, width*height*pixelChannels)
	}

	wordSize, err := r.read(5)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedPayload)
	}
	wordSize++

	var rleSizes [4]uint32
	for i := range rleSizes {
		s, err := r.read(4)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated header", ErrMalformedPayload)
		}
		rleSizes[i] = s + 1
	}

	out := make([]uint32, num)
	for i := uint32(0); i < num; {
		flag, err := r.read(1)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated run at value %d", ErrMalformedPayload, i)
		}
		sizeIdx, err := r.read(2)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated run at value %d", ErrMalformedPayload, i)
		}
		length, err := r.read(int(rleSizes[sizeIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: truncated run at value %d", ErrMalformedPayload, i)
		}

		j := i + 1 + length
		if j > num {
			j = num
		}
		if flag == 1 {
			v, err := r.read(int(wordSize))
			if err != nil {
				return nil, fmt.Errorf("%w: truncated run value at %d", ErrMalformedPayload, i)
			}
			for ; i < j; i++ {
				out[i] = v
			}
		} else {
			for ; i < j; i++ {
				v, err := r.read(int(wordSize))
				if err != nil {
					return nil, fmt.Errorf("%w: truncated literal at %d", ErrMalformedPayload, i)
				}
				out[i] = v
			}
		}
	}

	mask := datamodel.NewMask(width, height)
	for p := 0; p < width*height; p++ {
		// alpha channel of the flattened (H, W, 4) plane
		if out[p*pixelChannels+3] != 0 {
			mask.Bits[p] = true
		}
	}
	if mask.Empty() {
		return nil, ErrEmptyMask
	}
	return mask, nil
}

type bitReader struct {
	data []byte
	pos  int // position in bits
}

func (r *bitReader) read(n int) (uint32, error) {
	var v uint32
	for k := 0; k < n; k++ {
		idx := r.pos >> 3
		if idx >= len(r.data) {
			return 0, errors.New("bit stream exhausted")
		}
		bit := (r.data[idx] >> (7 - uint(r.pos&7))) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v, nil
}
