package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation returns a rotation transform around the origin.
func Rotation(radians float64) AffineTransform {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

// Scaling returns a scaling transform.
func Scaling(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// dense returns the transform as a 3x3 homogeneous matrix.
func (t AffineTransform) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t.A, t.B, t.TX,
		t.C, t.D, t.TY,
		0, 0, 1,
	})
}

func fromDense(m mat.Matrix) AffineTransform {
	return AffineTransform{
		A: m.At(0, 0), B: m.At(0, 1), TX: m.At(0, 2),
		C: m.At(1, 0), D: m.At(1, 1), TY: m.At(1, 2),
	}
}

// Compose returns this transform composed with another (this * other),
// i.e. other is applied first.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	var out mat.Dense
	out.Mul(t.dense(), other.dense())
	return fromDense(&out)
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	var inv mat.Dense
	if err := inv.Inverse(t.dense()); err != nil {
		return AffineTransform{}, false
	}
	return fromDense(&inv), true
}

// RectTransform returns the transform mapping the local coordinates of r
// (origin at r's top-left) to canvas coordinates, rotating by the given
// angle around r's center.
func RectTransform(r Rect, degrees float64) AffineTransform {
	c := r.Center()
	rad := degrees * math.Pi / 180.0
	return Translation(c.X, c.Y).
		Compose(Rotation(rad)).
		Compose(Translation(-r.Width/2, -r.Height/2))
}

// RotatedBounds returns the axis-aligned bounding box of r rotated by the
// given angle around its center.
func RotatedBounds(r Rect, degrees float64) Rect {
	if degrees == 0 {
		return r
	}
	t := RectTransform(r, degrees)
	corners := r.Corners()
	pts := make([]Point2D, 0, 4)
	for _, p := range corners {
		local := Point2D{X: p.X - r.X, Y: p.Y - r.Y}
		pts = append(pts, t.Apply(local))
	}
	return BoundingBox(pts)
}
