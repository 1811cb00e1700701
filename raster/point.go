package raster

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Offset is an (x, y) pixel offset within a raster.
type Offset [2]uint

// Size is the (x, y) extent of a raster or a window in pixels.
type Size [2]uint

// SignedOffset is an Offset for backends that address pixels with signed coordinates.
type SignedOffset [2]int

// Coord is a floating point (x, y) position in pixel space.  Pixel (i, j) covers
// [i, i+1) x [j, j+1), so a coordinate belongs to the pixel given by its floor.
type Coord struct {
	X, Y float64
}

// --- Offset ---

// Coord returns the offset as a floating point position.
func (o Offset) Coord() Coord {
	return Coord{float64(o[0]), float64(o[1])}
}

// Signed returns the offset with signed components.
func (o Offset) Signed() SignedOffset {
	return SignedOffset{int(o[0]), int(o[1])}
}

func (o Offset) String() string {
	return fmt.Sprintf("(%d,%d)", o[0], o[1])
}

// --- Size ---

// Coord returns the size as a floating point vector.
func (s Size) Coord() Coord {
	return Coord{float64(s[0]), float64(s[1])}
}

// NumPixels returns the number of pixels covered.
func (s Size) NumPixels() uint {
	return s[0] * s[1]
}

// Shape returns the size in (rows, cols) order.
func (s Size) Shape() (rows, cols uint) {
	return s[1], s[0]
}

// Empty returns true if either dimension is zero.
func (s Size) Empty() bool {
	return s[0] == 0 || s[1] == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s[0], s[1])
}

// StringToSize parses a size like "512,256" (x, y) using the given separator.
func StringToSize(str, separator string) (Size, error) {
	parts := strings.Split(str, separator)
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("size %q must have exactly 2 components", str)
	}
	var s Size
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err != nil {
			return Size{}, fmt.Errorf("can't parse size component %q: %v", part, err)
		}
		s[i] = uint(v)
	}
	return s, nil
}

// --- SignedOffset ---

func (o SignedOffset) String() string {
	return fmt.Sprintf("(%d,%d)", o[0], o[1])
}

// --- Coord ---

// Add returns the component-wise sum.
func (c Coord) Add(x Coord) Coord {
	return Coord{c.X + x.X, c.Y + x.Y}
}

// Sub returns the subtraction of the passed coordinate from the receiver.
func (c Coord) Sub(x Coord) Coord {
	return Coord{c.X - x.X, c.Y - x.Y}
}

// Center shifts a pixel corner to the center of that pixel.
func (c Coord) Center() Coord {
	return Coord{c.X + 0.5, c.Y + 0.5}
}

// Floor returns the pixel containing the coordinate.  Negative or non-finite
// coordinates have no pixel and return ErrInvalidRange.
func (c Coord) Floor() (Offset, error) {
	if c.X < 0 || c.Y < 0 || math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
		return Offset{}, fmt.Errorf("coordinate %s has no pixel: %w", c, ErrInvalidRange)
	}
	return Offset{uint(math.Floor(c.X)), uint(math.Floor(c.Y))}, nil
}

// Min returns the component-wise minimum.
func (c Coord) Min(x Coord) Coord {
	return Coord{math.Min(c.X, x.X), math.Min(c.Y, x.Y)}
}

// Max returns the component-wise maximum.
func (c Coord) Max(x Coord) Coord {
	return Coord{math.Max(c.X, x.X), math.Max(c.Y, x.Y)}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%g,%g)", c.X, c.Y)
}
