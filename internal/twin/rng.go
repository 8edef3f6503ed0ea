package twin

import "math/rand/v2"

// Source is the random stream the engine draws plane directions from.
// *rand.Rand satisfies it. A Source must not be shared with other goroutines during a run.
type Source interface {
	Float64() float64
}

// defaultSeed replaces a zero seed so that "unset" still means reproducible.
const defaultSeed uint64 = 1

// NewSource returns a deterministic PCG stream for seed.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
