package align

import (
	"math"
	"math/rand"
	"testing"

	"github.com/janelia-flyem/rasterchunk/chunking"
	"github.com/janelia-flyem/rasterchunk/raster"
)

func TestIdentityRoundTrip(t *testing.T) {
	origin := raster.Coord{X: 3, Y: 7}
	ct := ChunkTransform(raster.IdentityAffine(), origin, origin)
	if ct != raster.IdentityAffine() {
		t.Fatalf("expected identity chunk transform, got %s", ct)
	}
	dims := raster.Size{5, 4}
	it := NewIndexTransformer(ct, dims)
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			r, c, ok := it.Map(col, row)
			if !ok || r != row || c != col {
				t.Errorf("Map(%d,%d) = (%d,%d,%t), expected (%d,%d,true)", col, row, r, c, ok, row, col)
			}
		}
	}
	if _, _, ok := it.Map(5, 0); ok {
		t.Errorf("column at bound should not be present")
	}
	if _, _, ok := it.Map(0, 4); ok {
		t.Errorf("row at bound should not be present")
	}
}

func TestIndexTransformerBounds(t *testing.T) {
	dims := raster.Size{5, 4}
	tests := []struct {
		name     string
		t        raster.Affine
		col, row int
		r, c     int
		ok       bool
	}{
		{"shift left out", raster.TranslateAffine(-1, 0), 0, 0, 0, 0, false},
		{"shift left in", raster.TranslateAffine(-1, 0), 1, 0, 0, 0, true},
		{"shift up out", raster.TranslateAffine(0, -1), 2, 0, 0, 0, false},
		{"half pixel negative is floored, not truncated", raster.TranslateAffine(-0.5, 0), 0, 2, 0, 0, false},
		{"fraction floors down", raster.TranslateAffine(0.99, 0.5), 0, 0, 0, 0, true},
		{"just inside last column", raster.TranslateAffine(0.999, 0), 3, 1, 1, 4, true},
		{"at last column bound", raster.TranslateAffine(1, 0), 4, 1, 0, 0, false},
		{"scaled", raster.ScaleAffine(0.5, 0.5), 9, 7, 3, 4, true},
		{"scaled beyond", raster.ScaleAffine(0.5, 0.5), 10, 7, 0, 0, false},
		{"nan", raster.Affine{A: math.NaN(), E: 1}, 1, 1, 0, 0, false},
	}
	for _, tc := range tests {
		it := NewIndexTransformer(tc.t, dims)
		r, c, ok := it.Map(tc.col, tc.row)
		if ok != tc.ok {
			t.Errorf("%s: Map(%d,%d) ok = %t, expected %t", tc.name, tc.col, tc.row, ok, tc.ok)
			continue
		}
		if ok && (r != tc.r || c != tc.c) {
			t.Errorf("%s: Map(%d,%d) = (%d,%d), expected (%d,%d)", tc.name, tc.col, tc.row, r, c, tc.r, tc.c)
		}
	}
}

func TestMapIndex(t *testing.T) {
	it := NewIndexTransformer(raster.TranslateAffine(2, 1), raster.Size{10, 10})
	got, ok := it.MapIndex(raster.Offset{3, 4})
	if !ok || got != (raster.Offset{5, 5}) {
		t.Errorf("MapIndex = %v, %t", got, ok)
	}
	if _, ok = it.MapIndex(raster.Offset{8, 0}); ok {
		t.Errorf("expected index past width to be absent")
	}
	// Transformers are comparable values.
	if it != NewIndexTransformer(raster.TranslateAffine(2, 1), raster.Size{10, 10}) {
		t.Errorf("identical transformers should compare equal")
	}
}

func TestChunkTransformDerivation(t *testing.T) {
	tr := raster.Affine{A: 2, E: 2, XOff: 10, YOff: -4}
	ct := ChunkTransform(tr, raster.Coord{X: 1, Y: 3}, raster.Coord{X: 12, Y: 2})
	if !ct.Equal(raster.ScaleAffine(2, 2), 1e-12) {
		t.Fatalf("unexpected chunk transform %s", ct)
	}

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		tr := raster.Affine{
			A: rnd.Float64()*4 - 2, B: rnd.Float64() - 0.5, XOff: rnd.Float64()*200 - 100,
			D: rnd.Float64() - 0.5, E: rnd.Float64()*4 - 2, YOff: rnd.Float64()*200 - 100,
		}
		originA := raster.Coord{X: float64(rnd.Intn(1000)), Y: float64(rnd.Intn(1000))}.Center()
		originB := raster.Coord{X: float64(rnd.Intn(1000)), Y: float64(rnd.Intn(1000))}
		ct := ChunkTransform(tr, originA, originB)
		local := raster.Coord{X: float64(rnd.Intn(100)), Y: float64(rnd.Intn(100))}

		got := ct.Apply(local)
		want := tr.Apply(originA.Add(local)).Sub(originB)
		if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
			t.Fatalf("chunk transform %s maps %s to %s, full transform gives %s", ct, local, got, want)
		}
		if ct.A != tr.A || ct.B != tr.B || ct.D != tr.D || ct.E != tr.E {
			t.Fatalf("linear part changed: %s vs %s", ct, tr)
		}
	}
}

func TestTransformBetween(t *testing.T) {
	geoA := FromGeoTransform([6]float64{100, 10, 0, 500, 0, -10})
	geoB := FromGeoTransform([6]float64{150, 10, 0, 480, 0, -10})
	between, err := TransformBetween(geoA, geoB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !between.Equal(raster.TranslateAffine(-5, -2), 1e-9) {
		t.Errorf("expected pure translation, got %s", between)
	}

	coarse := FromGeoTransform([6]float64{100, 20, 0, 500, 0, -20})
	between, err = TransformBetween(geoA, coarse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !between.Equal(raster.ScaleAffine(0.5, 0.5), 1e-9) {
		t.Errorf("expected half scale, got %s", between)
	}

	if _, err = TransformBetween(geoA, raster.Affine{}); err == nil {
		t.Errorf("expected error for singular geotransform")
	}

	gt := [6]float64{1, 2, 3, 4, 5, 6}
	if GeoTransform(FromGeoTransform(gt)) != gt {
		t.Errorf("geotransform ordering does not round trip")
	}
}

func TestTransformWindow(t *testing.T) {
	w := raster.NewRasterWindow(raster.Offset{0, 0}, raster.Size{4, 2})
	tw := TransformWindow(raster.TranslateAffine(0.5, 0), w)
	offset, size := tw.OffsetSize()
	if offset != (raster.Offset{0, 0}) || size != (raster.Size{5, 2}) {
		t.Errorf("expected window expanded to whole pixels, got %s", tw)
	}
}

func TestFitTransform(t *testing.T) {
	want := raster.Affine{A: 1.5, B: -0.25, XOff: 12, D: 0.3, E: 0.9, YOff: -7}
	src := []raster.Coord{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}, {X: 37, Y: 81}, {X: 250, Y: 13}}
	dst := make([]raster.Coord, len(src))
	for i, s := range src {
		dst[i] = want.Apply(s)
	}
	got, err := FitTransform(src, dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(want, 1e-6) {
		t.Errorf("fit %s, expected %s", got, want)
	}

	if _, err = FitTransform(src[:2], dst[:2]); err == nil {
		t.Errorf("expected error with 2 tie points")
	}
	if _, err = FitTransform(src, dst[:4]); err == nil {
		t.Errorf("expected error with mismatched tie points")
	}
	line := []raster.Coord{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if _, err = FitTransform(line, line); err == nil {
		t.Errorf("expected error with collinear tie points")
	}
}

func TestPairChunk(t *testing.T) {
	cfg := chunking.NewBuilder(10, 20).WithDataHeight(5).MustBuild()
	tr := raster.TranslateAffine(-2, -3)
	dimsB := raster.Size{8, 15}
	windows := cfg.Windows()

	pair, ok := PairChunk(tr, windows[0], dimsB, false)
	if !ok {
		t.Fatalf("expected first chunk to overlap")
	}
	if offset, size := pair.Target.OffsetSize(); offset != (raster.Offset{0, 0}) || size != (raster.Size{8, 2}) {
		t.Fatalf("unexpected target window %s", pair.Target)
	}
	if r, c, ok := pair.Index.Map(2, 3); !ok || r != 0 || c != 0 {
		t.Errorf("Map(2,3) = (%d,%d,%t)", r, c, ok)
	}
	if r, c, ok := pair.Index.Map(2, 4); !ok || r != 1 || c != 0 {
		t.Errorf("Map(2,4) = (%d,%d,%t)", r, c, ok)
	}
	if _, _, ok := pair.Index.Map(0, 4); ok {
		t.Errorf("Map(0,4) should fall left of the target")
	}

	pair, ok = PairChunk(tr, windows[1], dimsB, false)
	if !ok {
		t.Fatalf("expected second chunk to overlap")
	}
	if offset := pair.Target.Offset(); offset != (raster.Offset{0, 2}) {
		t.Fatalf("unexpected target offset %s", offset)
	}
	if r, c, ok := pair.Index.Map(2, 0); !ok || r != 0 || c != 0 {
		t.Errorf("Map(2,0) = (%d,%d,%t)", r, c, ok)
	}

	// Pixel centers land in the same pixels for an integer translation.
	centered, _ := PairChunk(tr, windows[1], dimsB, true)
	if r, c, ok := centered.Index.Map(2, 0); !ok || r != 0 || c != 0 {
		t.Errorf("centered Map(2,0) = (%d,%d,%t)", r, c, ok)
	}

	if _, ok = PairChunk(raster.TranslateAffine(-100, 0), windows[0], dimsB, false); ok {
		t.Errorf("expected no overlap")
	}
}
