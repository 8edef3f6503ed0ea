package region

import (
	"fmt"
	"math"

	"github.com/banshee-data/twinlab/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// EquivalentDiameter returns the diameter of a sphere of the given volume.
func EquivalentDiameter(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return 2 * math.Cbrt(3*volume/(4*math.Pi))
}

// Recompute refreshes centroid, equivalent diameter and the active flag of regions
// 1..N from the voxel grid. Orientations are left alone. Voxels labelled beyond the
// table are an error.
func (t *Table) Recompute(g *voxel.Grid) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("recompute region stats: %w", err)
	}
	n := len(t.records)
	counts := make([]int, n)
	sums := make([]r3.Vec, n)
	for idx, l := range g.Labels {
		if l < 0 || int(l) >= n {
			return fmt.Errorf("recompute region stats: %w: voxel %d has label %d", ErrOutOfRange, idx, l)
		}
		counts[l]++
		sums[l] = r3.Add(sums[l], g.PositionOf(idx))
	}

	vol := g.VoxelVolume()
	for id := 1; id < n; id++ {
		r := &t.records[id]
		if counts[id] == 0 {
			r.Centroid = r3.Vec{}
			r.EquivalentDiameter = 0
			r.Active = false
			continue
		}
		r.Centroid = r3.Scale(1/float64(counts[id]), sums[id])
		r.EquivalentDiameter = EquivalentDiameter(float64(counts[id]) * vol)
		r.Active = true
	}
	return nil
}
