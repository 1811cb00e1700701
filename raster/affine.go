package raster

import (
	"fmt"
	"math"
)

// Affine is a linear map plus translation between two pixel coordinate systems:
//
//	x' = A*x + B*y + XOff
//	y' = D*x + E*y + YOff
type Affine struct {
	A, B, XOff float64
	D, E, YOff float64
}

// IdentityAffine returns the transform that leaves every coordinate unchanged.
func IdentityAffine() Affine {
	return Affine{A: 1, E: 1}
}

// TranslateAffine returns a pure translation by (tx, ty).
func TranslateAffine(tx, ty float64) Affine {
	return Affine{A: 1, XOff: tx, E: 1, YOff: ty}
}

// ScaleAffine returns a scaling about the origin.
func ScaleAffine(sx, sy float64) Affine {
	return Affine{A: sx, E: sy}
}

// Apply transforms a coordinate.
func (t Affine) Apply(c Coord) Coord {
	return Coord{
		X: t.A*c.X + t.B*c.Y + t.XOff,
		Y: t.D*c.X + t.E*c.Y + t.YOff,
	}
}

// ApplyLinear transforms a coordinate by the linear part only.
func (t Affine) ApplyLinear(c Coord) Coord {
	return Coord{
		X: t.A*c.X + t.B*c.Y,
		Y: t.D*c.X + t.E*c.Y,
	}
}

// Compose returns the transform that applies other first, then the receiver.
func (t Affine) Compose(other Affine) Affine {
	return Affine{
		A:    t.A*other.A + t.B*other.D,
		B:    t.A*other.B + t.B*other.E,
		XOff: t.A*other.XOff + t.B*other.YOff + t.XOff,
		D:    t.D*other.A + t.E*other.D,
		E:    t.D*other.B + t.E*other.E,
		YOff: t.D*other.XOff + t.E*other.YOff + t.YOff,
	}
}

// Inverse returns the inverse transform, or false if the linear part is singular.
func (t Affine) Inverse() (Affine, bool) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}
	inv := 1.0 / det
	return Affine{
		A:    t.E * inv,
		B:    -t.B * inv,
		XOff: (t.B*t.YOff - t.E*t.XOff) * inv,
		D:    -t.D * inv,
		E:    t.A * inv,
		YOff: (t.D*t.XOff - t.A*t.YOff) * inv,
	}, true
}

// Translation returns the translation component.
func (t Affine) Translation() Coord {
	return Coord{t.XOff, t.YOff}
}

// WithTranslation returns the same linear map with its translation replaced.
func (t Affine) WithTranslation(c Coord) Affine {
	t.XOff, t.YOff = c.X, c.Y
	return t
}

// Equal returns true if every parameter is within tol of the other's.
func (t Affine) Equal(other Affine, tol float64) bool {
	a := [6]float64{t.A, t.B, t.XOff, t.D, t.E, t.YOff}
	b := [6]float64{other.A, other.B, other.XOff, other.D, other.E, other.YOff}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func (t Affine) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g]", t.A, t.B, t.XOff, t.D, t.E, t.YOff)
}
