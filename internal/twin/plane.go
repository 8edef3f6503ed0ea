package twin

import (
	"math"

	"github.com/banshee-data/twinlab/internal/orientation"
	"gonum.org/v1/gonum/spatial/r3"
)

// CrystalDirection is a {111}-family direction in the crystal frame, each component ±1.
// It is deliberately not unit length.
type CrystalDirection r3.Vec

// DrawDirection consumes exactly three values from src. A component is +1 when its
// draw is >= 0.5 and -1 otherwise.
func DrawDirection(src Source) CrystalDirection {
	var c [3]float64
	for i := range c {
		c[i] = 1
		if src.Float64() < 0.5 {
			c[i] = -1
		}
	}
	return CrystalDirection{X: c[0], Y: c[1], Z: c[2]}
}

// SampleNormal rotates c into the sample frame: n = g(q)·c. n is not normalised.
func SampleNormal(q orientation.Quat, c CrystalDirection) r3.Vec {
	return orientation.Apply(orientation.Matrix(q), r3.Vec(c))
}

// HalfThickness is 0.5 * equivalentDiameter * thicknessFraction.
func HalfThickness(equivalentDiameter, thicknessFraction float64) float64 {
	return 0.5 * equivalentDiameter * thicknessFraction
}

// Plane is the pair of parallel twin planes for one region.
// The second plane passes through Centroid + (2t, 2t, 2t), offset on every axis rather
// than along Normal.
type Plane struct {
	Normal        r3.Vec
	D0, D1        float64
	HalfThickness float64
	invNorm       float64
}

// NewPlane builds the plane pair through centroid for normal n and half-thickness t.
func NewPlane(n, centroid r3.Vec, t float64) Plane {
	shift := r3.Vec{X: 2 * t, Y: 2 * t, Z: 2 * t}
	p := Plane{
		Normal:        n,
		D0:            -r3.Dot(n, centroid),
		D1:            -r3.Dot(n, r3.Add(centroid, shift)),
		HalfThickness: t,
	}
	if norm := r3.Norm(n); norm > 0 {
		p.invNorm = 1 / norm
	} else {
		p.invNorm = math.NaN()
	}
	return p
}

// Distances returns the signed distances of p to both planes.
func (pl Plane) Distances(p r3.Vec) (float64, float64) {
	np := r3.Dot(pl.Normal, p)
	return (np + pl.D0) * pl.invNorm, (np + pl.D1) * pl.invNorm
}

// Contains reports whether p lies strictly within HalfThickness of either plane.
// A zero normal yields NaN distances and never matches.
func (pl Plane) Contains(p r3.Vec) bool {
	d0, d1 := pl.Distances(p)
	return math.Abs(d0) < pl.HalfThickness || math.Abs(d1) < pl.HalfThickness
}
