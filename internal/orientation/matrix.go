package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// TwinAngle is the Σ3 twin misorientation angle (60°) in radians.
const TwinAngle = 60 * math.Pi / 180

// TwinAxis is the crystal axis of the Σ3 twin rotation.
var TwinAxis = r3.Vec{X: 1, Y: 1, Z: 1}

// Matrix returns the passive rotation matrix g of q. g maps sample-frame vectors into
// the crystal frame; its product with a crystal-frame column vector gives the direction
// in the sample frame used for twin planes.
//
//	g00 = 1-2(y²+z²)  g01 = 2(xy+zw)    g02 = 2(xz-yw)
//	g10 = 2(xy-zw)    g11 = 1-2(x²+z²)  g12 = 2(yz+xw)
//	g20 = 2(xz+yw)    g21 = 2(yz-xw)    g22 = 1-2(x²+y²)
func Matrix(q Quat) *mat.Dense {
	x, y, z, w := q.X(), q.Y(), q.Z(), q.W()
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w),
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w),
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y),
	})
}

// AxisAngle returns the rotation matrix of angle radians about axis, in the same
// convention as Matrix. The axis is normalised first.
func AxisAngle(angle float64, axis r3.Vec) (*mat.Dense, error) {
	norm := r3.Norm(axis)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: rotation axis %v", ErrDegenerate, axis)
	}
	n := r3.Scale(1/norm, axis)
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return mat.NewDense(3, 3, []float64{
		t*n.X*n.X + c, t*n.X*n.Y + s*n.Z, t*n.X*n.Z - s*n.Y,
		t*n.X*n.Y - s*n.Z, t*n.Y*n.Y + c, t*n.Y*n.Z + s*n.X,
		t*n.X*n.Z + s*n.Y, t*n.Y*n.Z - s*n.X, t*n.Z*n.Z + c,
	}), nil
}

// FromMatrix inverts Matrix. The result is canonical (w >= 0).
func FromMatrix(m mat.Matrix) (Quat, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return Quat{}, fmt.Errorf("%w: matrix is %dx%d", ErrDegenerate, r, c)
	}
	g00, g01, g02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	g10, g11, g12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	g20, g21, g22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var x, y, z, w float64
	switch tr := g00 + g11 + g22; {
	case tr > 0:
		w = 0.5 * math.Sqrt(1+tr)
		f := 0.25 / w
		x = (g12 - g21) * f
		y = (g20 - g02) * f
		z = (g01 - g10) * f
	case g00 >= g11 && g00 >= g22:
		x = 0.5 * math.Sqrt(1+g00-g11-g22)
		f := 0.25 / x
		w = (g12 - g21) * f
		y = (g01 + g10) * f
		z = (g02 + g20) * f
	case g11 >= g22:
		y = 0.5 * math.Sqrt(1-g00+g11-g22)
		f := 0.25 / y
		w = (g20 - g02) * f
		x = (g01 + g10) * f
		z = (g12 + g21) * f
	default:
		z = 0.5 * math.Sqrt(1-g00-g11+g22)
		f := 0.25 / z
		w = (g01 - g10) * f
		x = (g02 + g20) * f
		y = (g12 + g21) * f
	}
	q, err := Normalize(x, y, z, w)
	if err != nil {
		return Quat{}, err
	}
	return q.Canonical(), nil
}

// Apply returns m·v.
func Apply(m mat.Matrix, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// TwinRotation returns the orientation of the Σ3 twin of q: g(q) rotated by 60°
// about <111>.
func TwinRotation(q Quat) (Quat, error) {
	rot, err := AxisAngle(TwinAngle, TwinAxis)
	if err != nil {
		return Quat{}, err
	}
	var g mat.Dense
	g.Mul(Matrix(q), rot)
	return FromMatrix(&g)
}
