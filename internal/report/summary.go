package report

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/twinlab/internal/twin"
	"github.com/banshee-data/twinlab/internal/voxel"
	"gonum.org/v1/gonum/stat"
)

// Summary describes how much of the microstructure a twin insertion converted.
type Summary struct {
	TwinID      int32
	TotalVoxels int
	TwinVoxels  int
	// VolumeFraction is TwinVoxels / TotalVoxels.
	VolumeFraction float64
	// Regions counts regions that held at least one voxel before the run.
	Regions int
	// TwinnedRegions counts regions that lost at least one voxel to the twin.
	TwinnedRegions int
	// Per-region twin fraction over the non-empty regions. StdDev is 0 with fewer
	// than two regions.
	MeanFraction   float64
	StdDevFraction float64
	MaxFraction    float64
}

// Summarize computes a Summary from the grid after the run and the run's result.
// The size of each region before the run is its remaining voxels plus those relabelled.
func Summarize(g *voxel.Grid, res twin.Result) (Summary, error) {
	if err := g.Validate(); err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	n := int(res.TwinID) + 1
	counts := make([]int, n)
	for _, l := range g.Labels {
		if l >= 0 && int(l) < n {
			counts[l]++
		}
	}

	s := Summary{
		TwinID:      res.TwinID,
		TotalVoxels: g.Len(),
		TwinVoxels:  res.TwinVoxels,
	}
	if s.TotalVoxels > 0 {
		s.VolumeFraction = float64(s.TwinVoxels) / float64(s.TotalVoxels)
	}

	fractions := make([]float64, 0, len(res.Regions))
	for _, ro := range res.Regions {
		if ro.ID <= 0 || int(ro.ID) >= n {
			return Summary{}, fmt.Errorf("summarize: region %d outside label range [1,%d)", ro.ID, res.TwinID)
		}
		before := counts[ro.ID] + ro.Relabeled
		if before == 0 {
			continue
		}
		f := float64(ro.Relabeled) / float64(before)
		fractions = append(fractions, f)
		if ro.Relabeled > 0 {
			s.TwinnedRegions++
		}
		s.MaxFraction = math.Max(s.MaxFraction, f)
	}
	s.Regions = len(fractions)
	if len(fractions) > 0 {
		s.MeanFraction = stat.Mean(fractions, nil)
	}
	if len(fractions) > 1 {
		s.StdDevFraction = stat.StdDev(fractions, nil)
	}
	return s, nil
}

// WriteText prints s as aligned key/value lines.
func (s Summary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"twin id:          %d\n"+
			"twin voxels:      %d / %d (%.2f%%)\n"+
			"regions twinned:  %d / %d\n"+
			"region fraction:  mean %.4f  stddev %.4f  max %.4f\n",
		s.TwinID,
		s.TwinVoxels, s.TotalVoxels, 100*s.VolumeFraction,
		s.TwinnedRegions, s.Regions,
		s.MeanFraction, s.StdDevFraction, s.MaxFraction,
	)
	return err
}
