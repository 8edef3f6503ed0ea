package voxel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Background is the label reserved for voxels that belong to no region.
const Background int32 = 0

var (
	// ErrDimensionMismatch is returned when a label slice does not match the grid dimensions.
	ErrDimensionMismatch = errors.New("voxel: label count does not match dimensions")
	// ErrInvalidDimensions is returned for non-positive grid dimensions.
	ErrInvalidDimensions = errors.New("voxel: dimensions must be positive")
)

// Grid is a dense 3D array of region labels stored x-fastest, then y, then z.
// Labels are owned by the caller; operations that mutate the grid do so in place.
type Grid struct {
	Dims       [3]int
	Resolution r3.Vec
	Labels     []int32
}

// New allocates a background-filled grid.
func New(nx, ny, nz int, res r3.Vec) *Grid {
	n := 0
	if nx > 0 && ny > 0 && nz > 0 {
		n = nx * ny * nz
	}
	return &Grid{
		Dims:       [3]int{nx, ny, nz},
		Resolution: res,
		Labels:     make([]int32, n),
	}
}

// FromLabels wraps an existing label slice without copying it.
func FromLabels(dims [3]int, res r3.Vec, labels []int32) (*Grid, error) {
	g := &Grid{Dims: dims, Resolution: res, Labels: labels}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks that the dimensions are positive and agree with the label count.
func (g *Grid) Validate() error {
	if g.Dims[0] <= 0 || g.Dims[1] <= 0 || g.Dims[2] <= 0 {
		return fmt.Errorf("%w: got %dx%dx%d", ErrInvalidDimensions, g.Dims[0], g.Dims[1], g.Dims[2])
	}
	if want := g.Dims[0] * g.Dims[1] * g.Dims[2]; len(g.Labels) != want {
		return fmt.Errorf("%w: have %d labels, want %d", ErrDimensionMismatch, len(g.Labels), want)
	}
	return nil
}

// Len returns the number of voxels.
func (g *Grid) Len() int { return len(g.Labels) }

// IndexOf returns the linear index of voxel (x, y, z).
func (g *Grid) IndexOf(x, y, z int) int {
	return z*g.Dims[0]*g.Dims[1] + y*g.Dims[0] + x
}

// Coords is the inverse of IndexOf.
func (g *Grid) Coords(idx int) (x, y, z int) {
	plane := g.Dims[0] * g.Dims[1]
	z = idx / plane
	rem := idx - z*plane
	y = rem / g.Dims[0]
	x = rem - y*g.Dims[0]
	return
}

// InBounds reports whether (x, y, z) lies inside the grid.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Dims[0] && y < g.Dims[1] && z < g.Dims[2]
}

// At returns the label of voxel (x, y, z).
func (g *Grid) At(x, y, z int) int32 {
	return g.Labels[g.IndexOf(x, y, z)]
}

// Set overwrites the label of voxel (x, y, z).
func (g *Grid) Set(x, y, z int, label int32) {
	g.Labels[g.IndexOf(x, y, z)] = label
}

// Position returns the physical position of a voxel. No origin offset is applied.
func (g *Grid) Position(x, y, z int) r3.Vec {
	return r3.Vec{
		X: float64(x) * g.Resolution.X,
		Y: float64(y) * g.Resolution.Y,
		Z: float64(z) * g.Resolution.Z,
	}
}

// PositionOf returns the physical position of the voxel at linear index idx.
func (g *Grid) PositionOf(idx int) r3.Vec {
	return g.Position(g.Coords(idx))
}

// VoxelVolume returns dx*dy*dz.
func (g *Grid) VoxelVolume() float64 {
	return g.Resolution.X * g.Resolution.Y * g.Resolution.Z
}

// MaxLabel returns the largest label present, or Background for an empty grid.
func (g *Grid) MaxLabel() int32 {
	top := Background
	for _, l := range g.Labels {
		if l > top {
			top = l
		}
	}
	return top
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	labels := make([]int32, len(g.Labels))
	copy(labels, g.Labels)
	return &Grid{Dims: g.Dims, Resolution: g.Resolution, Labels: labels}
}
