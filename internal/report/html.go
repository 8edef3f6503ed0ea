package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/twinlab/internal/voxel"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SliceHTML renders one z-slice of g as an interactive go-echarts scatter. Region
// voxels are coloured by label through a visual map; twin voxels are a separate series.
func SliceHTML(w io.Writer, g *voxel.Grid, o SliceOptions) error {
	z, err := resolveZ(g, o.Z)
	if err != nil {
		return fmt.Errorf("slice html: %w", err)
	}
	pts := slicePoints(g, z)

	regions := make([]opts.ScatterData, 0, len(pts))
	twins := make([]opts.ScatterData, 0)
	maxLabel := int32(1)
	for _, pt := range pts {
		d := opts.ScatterData{Value: []interface{}{pt.X, pt.Y, pt.Label}}
		if pt.Label == o.TwinID {
			twins = append(twins, d)
			continue
		}
		regions = append(regions, d)
		if pt.Label > maxLabel {
			maxLabel = pt.Label
		}
	}

	title := o.Title
	if title == "" {
		title = "Twin insertion"
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("z=%d voxels=%d twin=%d", z, len(pts), len(twins))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: float64(g.Dims[0]) * g.Resolution.X, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: float64(g.Dims[1]) * g.Resolution.Y, Name: "y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        1,
			Max:        float32(maxLabel),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("regions", regions, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("twin", twins,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}),
	)

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("slice html: render: %w", err)
	}
	return nil
}
