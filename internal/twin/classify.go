package twin

import "github.com/banshee-data/twinlab/internal/voxel"

// ScanMode selects how the classifier finds a region's voxels.
type ScanMode int

const (
	// ScanIndexed walks a per-region voxel list built once per run.
	ScanIndexed ScanMode = iota
	// ScanFull walks the whole grid for every region.
	ScanFull
)

func (m ScanMode) String() string {
	switch m {
	case ScanIndexed:
		return "indexed"
	case ScanFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseScanMode accepts "indexed" or "full"; an empty string means indexed.
func ParseScanMode(s string) (ScanMode, bool) {
	switch s {
	case "", "indexed":
		return ScanIndexed, true
	case "full":
		return ScanFull, true
	default:
		return ScanIndexed, false
	}
}

// Classifier relabels a region's voxels that fall inside its twin band.
type Classifier struct {
	grid  *voxel.Grid
	index [][]int // nil in ScanFull mode
}

// NewClassifier prepares a classifier over g for region ids below tableLen.
func NewClassifier(g *voxel.Grid, tableLen int, mode ScanMode) *Classifier {
	c := &Classifier{grid: g}
	if mode == ScanIndexed {
		c.index = g.IndexByLabel(tableLen)
	}
	return c
}

// Relabel writes twinID into every voxel currently labelled id that lies within the
// plane band, and returns how many voxels changed. Only voxels labelled id are written.
func (c *Classifier) Relabel(id int32, pl Plane, twinID int32) int {
	if c.index != nil {
		return c.relabelIndexed(id, pl, twinID)
	}
	return c.relabelFull(id, pl, twinID)
}

func (c *Classifier) relabelIndexed(id int32, pl Plane, twinID int32) int {
	if int(id) >= len(c.index) {
		return 0
	}
	g := c.grid
	n := 0
	for _, idx := range c.index[id] {
		if g.Labels[idx] != id {
			continue
		}
		if pl.Contains(g.PositionOf(idx)) {
			g.Labels[idx] = twinID
			n++
		}
	}
	return n
}

func (c *Classifier) relabelFull(id int32, pl Plane, twinID int32) int {
	g := c.grid
	n := 0
	for z := 0; z < g.Dims[2]; z++ {
		for y := 0; y < g.Dims[1]; y++ {
			for x := 0; x < g.Dims[0]; x++ {
				idx := g.IndexOf(x, y, z)
				if g.Labels[idx] != id {
					continue
				}
				if pl.Contains(g.Position(x, y, z)) {
					g.Labels[idx] = twinID
					n++
				}
			}
		}
	}
	return n
}
