package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
)

func TestMaskToBox(t *testing.T) {
	mask := datamodel.NewMask(10, 10)
	for y := 2; y <= 7; y++ {
		for x := 3; x <= 6; x++ {
			mask.Set(x, y, true)
		}
	}

	box, err := MaskToBox(mask)
	require.NoError(t, err)
	assert.Equal(t, datamodel.Box{XMin: 3, YMin: 2, XMax: 6, YMax: 7}, box)
}

func TestMaskToBox_SinglePixel(t *testing.T) {
	mask := datamodel.NewMask(5, 5)
	mask.Set(4, 0, true)

	box, err := MaskToBox(mask)
	require.NoError(t, err)
	assert.Equal(t, datamodel.Box{XMin: 4, YMin: 0, XMax: 4, YMax: 0}, box)
}

func TestMaskToBox_EmptyMask(t *testing.T) {
	_, err := MaskToBox(datamodel.NewMask(5, 5))
	assert.ErrorIs(t, err, ErrEmptyMask)
}

func TestPercentBoxToPixels(t *testing.T) {
	box := PercentBoxToPixels(10, 20, 100, 50, 200, 200)
	assert.Equal(t, datamodel.Box{XMin: 20, YMin: 40, XMax: 220, YMax: 140}, box)
}

func TestPercentBoxToPixels_Rounds(t *testing.T) {
	box := PercentBoxToPixels(33.333, 0, 33.333, 100, 300, 100)
	assert.Equal(t, datamodel.Box{XMin: 100, YMin: 0, XMax: 200, YMax: 100}, box)
}

func TestBoxToNormalized(t *testing.T) {
	n := BoxToNormalized(datamodel.Box{XMin: 20, YMin: 40, XMax: 220, YMax: 140}, 200, 200)
	assert.InDelta(t, 0.6, n.XCenter, 1e-9)
	assert.InDelta(t, 0.45, n.YCenter, 1e-9)
	assert.InDelta(t, 1.0, n.Width, 1e-9)
	assert.InDelta(t, 0.5, n.Height, 1e-9)
}

func TestBoxToNormalized_InvertsWithinOnePixel(t *testing.T) {
	boxes := []datamodel.Box{
		{XMin: 0, YMin: 0, XMax: 10, YMax: 10},
		{XMin: 3, YMin: 2, XMax: 6, YMax: 7},
		{XMin: 17, YMin: 41, XMax: 139, YMax: 251},
		{XMin: 0, YMin: 0, XMax: 639, YMax: 479},
	}
	const imgW, imgH = 640, 480

	for _, box := range boxes {
		n := BoxToNormalized(box, imgW, imgH)

		xMin := n.XCenter*imgW - n.Width*imgW/2
		xMax := n.XCenter*imgW + n.Width*imgW/2
		yMin := n.YCenter*imgH - n.Height*imgH/2
		yMax := n.YCenter*imgH + n.Height*imgH/2

		assert.LessOrEqual(t, math.Abs(xMin-float64(box.XMin)), 1.0)
		assert.LessOrEqual(t, math.Abs(xMax-float64(box.XMax)), 1.0)
		assert.LessOrEqual(t, math.Abs(yMin-float64(box.YMin)), 1.0)
		assert.LessOrEqual(t, math.Abs(yMax-float64(box.YMax)), 1.0)
	}
}
