package orientation

import "math"

// Float64Source is the subset of *rand.Rand used for random orientations.
type Float64Source interface {
	Float64() float64
}

// Random draws a uniformly distributed orientation using Shoemake's subgroup method.
// It consumes exactly three values from src.
func Random(src Float64Source) Quat {
	u1, u2, u3 := src.Float64(), src.Float64(), src.Float64()
	a := math.Sqrt(1 - u1)
	b := math.Sqrt(u1)
	t1 := 2 * math.Pi * u2
	t2 := 2 * math.Pi * u3
	q, err := Normalize(a*math.Sin(t1), a*math.Cos(t1), b*math.Sin(t2), b*math.Cos(t2))
	if err != nil {
		return Identity()
	}
	return q
}
