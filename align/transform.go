package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/janelia-flyem/rasterchunk/chunking"
	"github.com/janelia-flyem/rasterchunk/raster"
)

// FromGeoTransform converts a six-parameter geotransform in GDAL ordering
// [xoff, a, b, yoff, d, e] into the pixel-to-world affine transform.
func FromGeoTransform(gt [6]float64) raster.Affine {
	return raster.Affine{
		A: gt[1], B: gt[2], XOff: gt[0],
		D: gt[4], E: gt[5], YOff: gt[3],
	}
}

// GeoTransform returns the GDAL ordering of a pixel-to-world affine transform.
func GeoTransform(t raster.Affine) [6]float64 {
	return [6]float64{t.XOff, t.A, t.B, t.YOff, t.D, t.E}
}

// TransformBetween returns the transform from pixel coordinates of raster A to pixel
// coordinates of raster B, given both pixel-to-world transforms.
func TransformBetween(geoA, geoB raster.Affine) (raster.Affine, error) {
	worldToB, ok := geoB.Inverse()
	if !ok {
		return raster.Affine{}, fmt.Errorf("geotransform %s is not invertible", geoB)
	}
	return worldToB.Compose(geoA), nil
}

// TransformWindow returns the window of the second raster covered by a window of the
// first, expanded outward to whole pixels.
func TransformWindow(t raster.Affine, w raster.RasterWindow) raster.RasterWindow {
	tw := w.Transform(t)
	lo, hi := tw.Min(), tw.Max()
	return raster.NewRasterWindowCorners(
		raster.Coord{X: math.Floor(lo.X), Y: math.Floor(lo.Y)},
		raster.Coord{X: math.Ceil(hi.X), Y: math.Ceil(hi.Y)},
	)
}

// FitTransform estimates the affine transform taking each src coordinate to the
// matching dst coordinate in the least squares sense.  At least 3 non-collinear tie
// points are required.
func FitTransform(src, dst []raster.Coord) (raster.Affine, error) {
	if len(src) != len(dst) {
		return raster.Affine{}, fmt.Errorf("tie point count mismatch: %d vs %d", len(src), len(dst))
	}
	n := len(src)
	if n < 3 {
		return raster.Affine{}, fmt.Errorf("need at least 3 tie points, got %d", n)
	}

	// Build overdetermined system
	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return raster.Affine{}, fmt.Errorf("tie points do not determine a transform: %v", err)
	}
	t := raster.Affine{
		A: params.AtVec(0), B: params.AtVec(1), XOff: params.AtVec(2),
		D: params.AtVec(3), E: params.AtVec(4), YOff: params.AtVec(5),
	}
	if _, ok := t.Inverse(); !ok {
		return raster.Affine{}, fmt.Errorf("tie points are collinear")
	}
	return t, nil
}

// ChunkPair is a chunk of the first raster together with the window of the second
// raster that it overlaps and the index transformer between the two.
type ChunkPair struct {
	Source raster.RasterWindow
	Target raster.RasterWindow
	Index  IndexTransformer
}

// PairChunk finds the window of the second raster (of size dimsB) covered by a chunk
// of the first, and the transformer from local source indices to local target
// indices.  If center is true, source pixel centers are mapped instead of corners.
// ok is false if the chunk does not overlap the second raster.
func PairChunk(t raster.Affine, cw chunking.ChunkWindow, dimsB raster.Size, center bool) (pair ChunkPair, ok bool) {
	source := cw.RasterWindow()
	full := raster.NewRasterWindow(raster.Offset{}, dimsB)
	target, ok := TransformWindow(t, source).Intersect(full)
	if !ok {
		return ChunkPair{}, false
	}
	originA := source.Offset().Coord()
	if center {
		originA = originA.Center()
	}
	originB := target.Offset().Coord()
	ct := ChunkTransform(t, originA, originB)
	return ChunkPair{
		Source: source,
		Target: target,
		Index:  NewIndexTransformer(ct, target.Size()),
	}, true
}
