package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/twinlab/internal/voxel"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// twinColor marks twin voxels in both renderers.
var twinColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}

// regionPalette cycles over region ids; twin voxels use twinColor instead.
var regionPalette = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x3e, G: 0x49, B: 0x89, A: 0xff},
	{R: 0x26, G: 0x82, B: 0x8e, A: 0xff},
	{R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

func labelColor(label, twinID int32) color.Color {
	if label == twinID {
		return twinColor
	}
	return regionPalette[int(label)%len(regionPalette)]
}

// SlicePNG renders one z-slice of g as a PNG scatter of voxel centres, one box per
// voxel, coloured by region with twin voxels highlighted.
func SlicePNG(w io.Writer, g *voxel.Grid, o SliceOptions) error {
	z, err := resolveZ(g, o.Z)
	if err != nil {
		return fmt.Errorf("slice png: %w", err)
	}
	pts := slicePoints(g, z)

	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("z = %d", z)
	}
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = 0, float64(g.Dims[0])*g.Resolution.X
	p.Y.Min, p.Y.Max = 0, float64(g.Dims[1])*g.Resolution.Y

	if len(pts) > 0 {
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("slice png: scatter: %w", err)
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  labelColor(pts[i].Label, o.TwinID),
				Radius: vg.Points(2),
				Shape:  draw.BoxGlyph{},
			}
		}
		p.Add(sc)
	}

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("slice png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("slice png: write: %w", err)
	}
	return nil
}
