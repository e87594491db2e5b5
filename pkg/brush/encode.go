package brush

import "github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"

// encoder parameters matching the labeling tool's defaults.
const encodeWordSize = 8

var encodeRLESizes = [4]int{3, 4, 8, 16}

// Encode produces an RLE payload that Decode reconstructs into the given
// mask. Set pixels encode as alpha 255, clear pixels as alpha 0; the RGB
// channels are zero. Used to build fixtures and to exercise the round-trip
// compatibility of the decoder.
func Encode(mask *datamodel.Mask) []int {
	values := make([]uint32, mask.Width*mask.Height*pixelChannels)
	for p, set := range mask.Bits {
		if set {
			values[p*pixelChannels+3] = 0xFF
		}
	}

	w := &bitWriter{}
	w.write(uint32(len(values)), 32)
	w.write(encodeWordSize-1, 5)
	for _, s := range encodeRLESizes {
		w.write(uint32(s-1), 4)
	}

	for i := 0; i < len(values); {
		j := i
		for j < len(values) && values[j] == values[i] {
			j++
		}
		run := j - i
		for run > 0 {
			chunk := run
			if max := 1 << encodeRLESizes[3]; chunk > max {
				chunk = max
			}
			sizeIdx := 0
			for sizeIdx < 3 && chunk-1 >= 1<<encodeRLESizes[sizeIdx] {
				sizeIdx++
			}
			w.write(1, 1) // run flag
			w.write(uint32(sizeIdx), 2)
			w.write(uint32(chunk-1), encodeRLESizes[sizeIdx])
			w.write(values[i], encodeWordSize)
			run -= chunk
		}
		i = j
	}

	data := w.bytes()
	rle := make([]int, len(data))
	for i, b := range data {
		rle[i] = int(b)
	}
	return rle
}

type bitWriter struct {
	data []byte
	nbit int // bits used in the last byte
}

func (w *bitWriter) write(v uint32, n int) {
	for k := n - 1; k >= 0; k-- {
		if w.nbit == 0 {
			w.data = append(w.data, 0)
			w.nbit = 8
		}
		bit := byte(v>>uint(k)) & 1
		w.data[len(w.data)-1] |= bit << uint(w.nbit-1)
		w.nbit--
	}
}

func (w *bitWriter) bytes() []byte { return w.data }
