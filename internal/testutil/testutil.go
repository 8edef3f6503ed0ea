// Package testutil provides shared test fixtures: deterministic random sources and
// small hand-labelled grids.
package testutil

import (
	"github.com/banshee-data/twinlab/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// ScriptedSource replays Vals in a loop and counts how many values were taken.
type ScriptedSource struct {
	Vals  []float64
	Draws int
}

// NewScriptedSource returns a source that replays vals.
func NewScriptedSource(vals ...float64) *ScriptedSource {
	return &ScriptedSource{Vals: vals}
}

// Float64 returns the next scripted value.
func (s *ScriptedSource) Float64() float64 {
	v := s.Vals[s.Draws%len(s.Vals)]
	s.Draws++
	return v
}

// UnitGrid builds an nx*ny*nz grid with unit resolution. labels are copied in
// x-fastest order; missing trailing labels stay background.
func UnitGrid(nx, ny, nz int, labels ...int32) *voxel.Grid {
	g := voxel.New(nx, ny, nz, r3.Vec{X: 1, Y: 1, Z: 1})
	copy(g.Labels, labels)
	return g
}
