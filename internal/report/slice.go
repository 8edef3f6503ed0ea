package report

import (
	"errors"
	"fmt"

	"github.com/banshee-data/twinlab/internal/voxel"
)

// ErrSliceOutOfRange is returned for a z index outside the grid.
var ErrSliceOutOfRange = errors.New("report: slice index out of range")

// SliceOptions selects and labels the slice to render.
type SliceOptions struct {
	// Z is the slice index. Negative selects the middle slice.
	Z      int
	Title  string
	TwinID int32
}

// slicePoint is one non-background voxel of a slice in physical coordinates.
type slicePoint struct {
	X, Y  float64
	Label int32
}

func resolveZ(g *voxel.Grid, z int) (int, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	if z < 0 {
		return g.Dims[2] / 2, nil
	}
	if z >= g.Dims[2] {
		return 0, fmt.Errorf("%w: z=%d, depth %d", ErrSliceOutOfRange, z, g.Dims[2])
	}
	return z, nil
}

func slicePoints(g *voxel.Grid, z int) []slicePoint {
	rows := g.Slice(z)
	pts := make([]slicePoint, 0, g.Dims[0]*g.Dims[1])
	for y, row := range rows {
		for x, l := range row {
			if l == voxel.Background {
				continue
			}
			p := g.Position(x, y, z)
			pts = append(pts, slicePoint{X: p.X, Y: p.Y, Label: l})
		}
	}
	return pts
}
