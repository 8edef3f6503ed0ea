// Package synth builds synthetic labelled microstructures for exercising the twin engine
// without an upstream segmentation pipeline.
package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidOptions is returned when Options cannot describe a microstructure.
var ErrInvalidOptions = errors.New("synth: invalid options")

// Options describes a Voronoi microstructure.
type Options struct {
	Dims       [3]int
	Resolution r3.Vec
	Regions    int
}

// DefaultOptions returns a 32³ unit-resolution grid with 12 regions.
func DefaultOptions() Options {
	return Options{
		Dims:       [3]int{32, 32, 32},
		Resolution: r3.Vec{X: 1, Y: 1, Z: 1},
		Regions:    12,
	}
}

// Validate reports whether o can be built.
func (o Options) Validate() error {
	if o.Dims[0] <= 0 || o.Dims[1] <= 0 || o.Dims[2] <= 0 {
		return fmt.Errorf("%w: dims %v must be positive", ErrInvalidOptions, o.Dims)
	}
	if !(o.Resolution.X > 0 && o.Resolution.Y > 0 && o.Resolution.Z > 0) {
		return fmt.Errorf("%w: resolution %v must be positive", ErrInvalidOptions, o.Resolution)
	}
	if o.Regions < 1 {
		return fmt.Errorf("%w: need at least one region, got %d", ErrInvalidOptions, o.Regions)
	}
	if o.Regions > math.MaxInt32 {
		return fmt.Errorf("%w: %d regions exceed the label range", ErrInvalidOptions, o.Regions)
	}
	return nil
}

// Voronoi labels every voxel with the id of its nearest seed point. Seeds are drawn
// uniformly over the physical box (three draws each, regions in id order), then one
// random orientation per region (three more draws each). Distance ties go to the lower
// id. Region statistics are recomputed from the labels, so a region that captured no
// voxel is left inactive.
func Voronoi(o Options, src orientation.Float64Source) (*voxel.Grid, *region.Table, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if src == nil {
		return nil, nil, fmt.Errorf("%w: nil random source", ErrInvalidOptions)
	}

	extent := r3.Vec{
		X: float64(o.Dims[0]) * o.Resolution.X,
		Y: float64(o.Dims[1]) * o.Resolution.Y,
		Z: float64(o.Dims[2]) * o.Resolution.Z,
	}
	sites := make(seeds, o.Regions)
	for i := range sites {
		sites[i] = seed{
			id: int32(i + 1),
			pos: r3.Vec{
				X: src.Float64() * extent.X,
				Y: src.Float64() * extent.Y,
				Z: src.Float64() * extent.Z,
			},
		}
	}

	t := region.NewTable(o.Regions)
	for id := 1; id <= o.Regions; id++ {
		r, _ := t.At(id)
		r.Orientation = orientation.Random(src)
		if err := t.Set(id, r); err != nil {
			return nil, nil, err
		}
	}

	ix := newSeedIndex(sites)
	g := voxel.New(o.Dims[0], o.Dims[1], o.Dims[2], o.Resolution)
	for idx := range g.Labels {
		g.Labels[idx] = ix.nearest(g.PositionOf(idx))
	}

	if err := t.Recompute(g); err != nil {
		return nil, nil, err
	}
	return g, t, nil
}
