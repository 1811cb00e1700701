package raster

import (
	"fmt"
	"math"
)

// RasterWindow is a rectangular block of contiguous pixels in a raster, held as its
// minimum and maximum corners.  The minimum corner is inclusive and the maximum corner
// exclusive, so a window at offset (0,0) with size (4,2) has max corner (4,2).
type RasterWindow struct {
	min, max Coord
}

// NewRasterWindow returns the window with the given offset and size.
func NewRasterWindow(offset Offset, size Size) RasterWindow {
	min := offset.Coord()
	return RasterWindow{min: min, max: min.Add(size.Coord())}
}

// NewRasterWindowCorners returns a window spanning the two corners in any order.
func NewRasterWindowCorners(a, b Coord) RasterWindow {
	return RasterWindow{min: a.Min(b), max: a.Max(b)}
}

// Min returns the minimum corner.
func (w RasterWindow) Min() Coord {
	return w.min
}

// Max returns the maximum corner.
func (w RasterWindow) Max() Coord {
	return w.max
}

// Offset returns the pixel containing the minimum corner.  Components below zero
// saturate to zero.
func (w RasterWindow) Offset() Offset {
	return Offset{saturate(w.min.X), saturate(w.min.Y)}
}

// Size returns the window extent (x, y) in whole pixels.
func (w RasterWindow) Size() Size {
	d := w.max.Sub(w.min)
	return Size{saturate(d.X), saturate(d.Y)}
}

// Shape returns the window extent in (rows, cols) order.
func (w RasterWindow) Shape() (rows, cols uint) {
	return w.Size().Shape()
}

// NumPixels returns the number of pixels within the window.
func (w RasterWindow) NumPixels() uint {
	return w.Size().NumPixels()
}

// OffsetSize converts the window into an unsigned (offset, size) pair.
func (w RasterWindow) OffsetSize() (Offset, Size) {
	return w.Offset(), w.Size()
}

// SignedOffsetSize converts the window into a signed (offset, size) pair.  Unlike
// OffsetSize, a minimum corner left or above the raster keeps its negative offset.
func (w RasterWindow) SignedOffsetSize() (SignedOffset, Size) {
	return SignedOffset{int(math.Floor(w.min.X)), int(math.Floor(w.min.Y))}, w.Size()
}

// Transform returns the bounding window of the four transformed corners.
func (w RasterWindow) Transform(t Affine) RasterWindow {
	corners := [4]Coord{
		t.Apply(w.min),
		t.Apply(Coord{w.max.X, w.min.Y}),
		t.Apply(Coord{w.min.X, w.max.Y}),
		t.Apply(w.max),
	}
	out := RasterWindow{min: corners[0], max: corners[0]}
	for _, c := range corners[1:] {
		out.min = out.min.Min(c)
		out.max = out.max.Max(c)
	}
	return out
}

// Intersect returns the overlap of two windows and whether it is non-empty.
func (w RasterWindow) Intersect(x RasterWindow) (RasterWindow, bool) {
	out := RasterWindow{min: w.min.Max(x.min), max: w.max.Min(x.max)}
	if out.min.X >= out.max.X || out.min.Y >= out.max.Y {
		return RasterWindow{}, false
	}
	return out, true
}

// Contains returns true if the coordinate lies within the window.
func (w RasterWindow) Contains(c Coord) bool {
	return c.X >= w.min.X && c.X < w.max.X && c.Y >= w.min.Y && c.Y < w.max.Y
}

func (w RasterWindow) String() string {
	offset, size := w.OffsetSize()
	return fmt.Sprintf("window %s at offset %s", size, offset)
}

func saturate(v float64) uint {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return uint(math.Floor(v))
}
