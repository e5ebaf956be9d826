// Package layout maps selection indices onto the texel grid of an attribute
// texture.
//
// The same Size methods are used for pixel writes and for UV coordinates so
// both always agree on where an object lives.
package layout

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// MaxSide is the largest width or height the solver prefers.
const MaxSide = 256

// ErrEmpty is returned when no objects are given.
var ErrEmpty = errors.New("layout: object count must be at least 1")

// Size is a texture grid in texels.
type Size struct {
	Width  int
	Height int
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Texels returns Width*Height.
func (s Size) Texels() int {
	return s.Width * s.Height
}

// Dimensions picks the grid for n objects. It searches downward from
// ceil(n/2) for a height that divides n, stepping by 2 when n/2 is even. The
// width is n/height. When no divisor above 1 is found, or the width would
// exceed MaxSide, it falls back to a near-square grid.
func Dimensions(n int) (Size, error) {
	if n < 1 {
		return Size{}, ErrEmpty
	}

	height := min((n+1)/2, MaxSide)

	step := 1
	// n/2 is even exactly when n is a multiple of 4.
	if n%4 == 0 {
		step = 2
	}

	for height > 1 && n%height != 0 {
		height -= step
	}
	if height < 1 {
		height = 1
	}

	if height == 1 || n/height > MaxSide {
		return squareish(n), nil
	}
	return Size{Width: n / height, Height: height}, nil
}

// squareish returns the fallback grid: width ceil(sqrt(n)), height ceil(n/width).
func squareish(n int) Size {
	w := int(math32.Ceil(math32.Sqrt(float32(n))))
	for w*w < n {
		w++
	}
	for w > 1 && (w-1)*(w-1) >= n {
		w--
	}
	h := (n + w - 1) / w
	return Size{Width: w, Height: h}
}

// Texel returns the texel for selection index i. Row 0 is the bottom row.
func (s Size) Texel(i int) (x, y int) {
	return i % s.Width, s.Height - i/s.Width - 1
}

// Index is the inverse of Texel.
func (s Size) Index(x, y int) int {
	return (s.Height-1-y)*s.Width + x
}

// PixelOffset returns the offset of the first channel of index i in a
// row-major RGBA float buffer whose first row is the bottom row.
func (s Size) PixelOffset(i int) int {
	x, y := s.Texel(i)
	return (x + y*s.Width) * 4
}

// UV returns the texel-center UV coordinate for index i.
func (s Size) UV(i int) math.Vec2 {
	x, y := s.Texel(i)
	return math.Vec2{
		X: (float32(x) + 0.5) / float32(s.Width),
		Y: (float32(y) + 0.5) / float32(s.Height),
	}
}
