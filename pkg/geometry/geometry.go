// Package geometry converts between the box representations moving through
// the pipeline: tight boxes derived from masks, percent-based rectangle
// annotations, absolute pixel boxes and the normalized center-size encoding
// of the interchange format.
package geometry

import (
	"errors"
	"math"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
)

// ErrEmptyMask is returned when a tight box is requested for a mask with no
// set pixels.
var ErrEmptyMask = errors.New("geometry: cannot derive box from empty mask")

// MaskToBox returns the tight bounding box of the mask's set pixels, with
// min and max coordinates both landing on set rows/columns.
func MaskToBox(mask *datamodel.Mask) (datamodel.Box, error) {
	xMin, yMin := mask.Width, mask.Height
	xMax, yMax := -1, -1
	for y := 0; y < mask.Height; y++ {
		row := mask.Bits[y*mask.Width : (y+1)*mask.Width]
		for x, set := range row {
			if !set {
				continue
			}
			if x < xMin {
				xMin = x
			}
			if x > xMax {
				xMax = x
			}
			if y < yMin {
				yMin = y
			}
			yMax = y
		}
	}
	if xMax < 0 {
		return datamodel.Box{}, ErrEmptyMask
	}
	return datamodel.Box{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}, nil
}

// PercentBoxToPixels converts a rectangle annotation, whose fields are
// percentages of the image dimensions in [0, 100], to an absolute pixel box.
func PercentBoxToPixels(x, y, w, h float64, imgWidth, imgHeight int) datamodel.Box {
	return datamodel.Box{
		XMin: int(math.Round(x / 100 * float64(imgWidth))),
		YMin: int(math.Round(y / 100 * float64(imgHeight))),
		XMax: int(math.Round((x + w) / 100 * float64(imgWidth))),
		YMax: int(math.Round((y + h) / 100 * float64(imgHeight))),
	}
}

// BoxToNormalized converts an absolute pixel box to the normalized
// center-size encoding, each field divided by the corresponding image
// dimension.
func BoxToNormalized(box datamodel.Box, imgWidth, imgHeight int) datamodel.NormalizedBox {
	w := float64(box.Width())
	h := float64(box.Height())
	return datamodel.NormalizedBox{
		XCenter: (float64(box.XMin) + w/2) / float64(imgWidth),
		YCenter: (float64(box.YMin) + h/2) / float64(imgHeight),
		Width:   w / float64(imgWidth),
		Height:  h / float64(imgHeight),
	}
}
