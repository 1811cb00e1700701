/*
Package align aligns a pair of rasters through an affine transform between their
pixel coordinate systems.

Given two rasters A and B that don't necessarily share a grid, it computes the
unique pixel (k, l) of B that contains a point of the pixel (i, j) in A, and extends
that efficiently to chunks: once a pair of windows has been read, every local index
in the window of A maps to a local index in the window of B without going back to
full-raster coordinates.
*/
package align

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// ChunkTransform calculates the residue of a transform for a pair of window origins.
// The result converts array coordinates in a window of the first raster (the source
// window) into array coordinates of the corresponding window of the second raster
// (the target window).
//
// transform maps pixel coordinates of the first raster to pixel coordinates of the
// second, e.g. as computed by TransformBetween.  originA is the top-left pixel of the
// source window; shift it with Coord.Center to map pixel centers rather than corners.
// originB is the top-left pixel of the target window, typically the offset of
// TransformWindow clipped to the second raster.
//
// Derivation, with (x, y) and (X, Y) pixel coordinates of the two rasters and L the
// linear part of transform:
//
//	(X, Y) = transform(x, y)
//	originB + (J, I) = transform(originA + (j, i))
//	(J, I) = transform(originA) - originB + L(j, i)
func ChunkTransform(transform raster.Affine, originA, originB raster.Coord) raster.Affine {
	residue := transform.Apply(originA).Sub(originB)
	return transform.WithTranslation(residue)
}

// IndexTransformer maps integer indices in a source window to integer indices in a
// target window of the given dimensions.  It is an immutable value and safe to use
// from any number of goroutines.
type IndexTransformer struct {
	// Transform is the chunk-local transform, usually from ChunkTransform.
	Transform raster.Affine

	// Dims is the (x, y) size of the target window.
	Dims raster.Size
}

// NewIndexTransformer returns an IndexTransformer into a target window of size dims.
func NewIndexTransformer(chunkTransform raster.Affine, dims raster.Size) IndexTransformer {
	return IndexTransformer{Transform: chunkTransform, Dims: dims}
}

// Map takes a source index in (col, row) order, matching the x, y convention of the
// transform, and returns the target index in (row, col) order.  ok is false if the
// transformed point falls outside the target window.  Coordinates are floored, so a
// point belongs to the pixel that contains it.
func (t IndexTransformer) Map(col, row int) (r, c int, ok bool) {
	pt := t.Transform.Apply(raster.Coord{X: float64(col), Y: float64(row)})
	if pt.X < 0 || pt.Y < 0 || math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return 0, 0, false
	}
	x := math.Floor(pt.X)
	y := math.Floor(pt.Y)
	if x >= float64(t.Dims[0]) || y >= float64(t.Dims[1]) {
		return 0, 0, false
	}
	return int(y), int(x), true
}

// MapIndex is Map for a pixel offset, returning the (x, y) target offset.
func (t IndexTransformer) MapIndex(idx raster.Offset) (raster.Offset, bool) {
	r, c, ok := t.Map(int(idx[0]), int(idx[1]))
	if !ok {
		return raster.Offset{}, false
	}
	return raster.Offset{uint(c), uint(r)}, true
}

func (t IndexTransformer) String() string {
	return fmt.Sprintf("index transform %s into %s", t.Transform, t.Dims)
}
