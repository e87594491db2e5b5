package datamodel

// Mask is a dense binary pixel grid with the dimensions the annotation
// declared for its source image. Bits are stored row-major.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask returns an all-false mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// At reports whether the pixel at (x, y) is set.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set sets the pixel at (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Area returns the number of set pixels.
func (m *Mask) Area() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	for _, b := range m.Bits {
		if b {
			return false
		}
	}
	return true
}

// Box is an axis-aligned pixel box. Min coordinates are inclusive top-left,
// max coordinates the bottom-right extent.
type Box struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.XMax - b.XMin }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.YMax - b.YMin }

// Area returns the box area in square pixels.
func (b Box) Area() int { return b.Width() * b.Height() }

// NormalizedBox is a box in the interchange encoding: center coordinates and
// side lengths, each divided by the corresponding image dimension so all
// fields lie in [0, 1].
type NormalizedBox struct {
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}
