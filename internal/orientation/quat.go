package orientation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// UnitTolerance is the largest accepted deviation of |q| from 1.
const UnitTolerance = 1e-6

var (
	// ErrNotUnit is returned when a quaternion is not unit-norm.
	ErrNotUnit = errors.New("orientation: quaternion is not unit-norm")
	// ErrDegenerate is returned for zero or non-finite input.
	ErrDegenerate = errors.New("orientation: degenerate input")
)

// Quat is a unit quaternion describing a crystal frame relative to the sample frame.
// The zero value is not valid; use Identity, New or Normalize.
type Quat struct {
	n quat.Number
}

// Identity returns the no-rotation orientation.
func Identity() Quat {
	return Quat{n: quat.Number{Real: 1}}
}

// New builds a quaternion from vector part (x, y, z) and scalar part w.
// The input must already be unit-norm within UnitTolerance.
func New(x, y, z, w float64) (Quat, error) {
	n := quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
	if !finite(n) {
		return Quat{}, fmt.Errorf("%w: (%g, %g, %g, %g)", ErrDegenerate, x, y, z, w)
	}
	if norm := quat.Abs(n); math.Abs(norm-1) > UnitTolerance {
		return Quat{}, fmt.Errorf("%w: |q| = %g", ErrNotUnit, norm)
	}
	return Quat{n: n}, nil
}

// MustNew is New for literals; it panics on invalid input.
func MustNew(x, y, z, w float64) Quat {
	q, err := New(x, y, z, w)
	if err != nil {
		panic(err)
	}
	return q
}

// Normalize rescales (x, y, z, w) to unit length.
func Normalize(x, y, z, w float64) (Quat, error) {
	n := quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
	norm := quat.Abs(n)
	if !finite(n) || norm == 0 || math.IsInf(norm, 0) {
		return Quat{}, fmt.Errorf("%w: (%g, %g, %g, %g)", ErrDegenerate, x, y, z, w)
	}
	return Quat{n: quat.Scale(1/norm, n)}, nil
}

func (q Quat) X() float64 { return q.n.Imag }
func (q Quat) Y() float64 { return q.n.Jmag }
func (q Quat) Z() float64 { return q.n.Kmag }
func (q Quat) W() float64 { return q.n.Real }

// Number returns the underlying gonum quaternion.
func (q Quat) Number() quat.Number { return q.n }

// Valid reports whether q is unit-norm. Only the zero value fails.
func (q Quat) Valid() bool {
	return math.Abs(quat.Abs(q.n)-1) <= UnitTolerance
}

// Canonical returns q or -q, whichever has a non-negative scalar part.
func (q Quat) Canonical() Quat {
	if q.n.Real < 0 {
		return Quat{n: quat.Scale(-1, q.n)}
	}
	return q
}

// Components returns (x, y, z, w), the storage order used on disk.
func (q Quat) Components() [4]float64 {
	return [4]float64{q.n.Imag, q.n.Jmag, q.n.Kmag, q.n.Real}
}

func (q Quat) String() string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f, %.6f)", q.X(), q.Y(), q.Z(), q.W())
}

func finite(n quat.Number) bool {
	for _, v := range [4]float64{n.Real, n.Imag, n.Jmag, n.Kmag} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
