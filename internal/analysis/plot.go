package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"
)

// Plot is a figure with its layout
type Plot struct {
	Fig *grob.Fig
	Lay *grob.Layout
}

// Opt configures a plot
type Opt func(plot *Plot) *Plot

// NewPlot creates an empty figure
func NewPlot(opt ...Opt) *Plot {
	fig := &grob.Fig{}
	lay := &grob.Layout{}
	fig.Layout = lay
	p := &Plot{Fig: fig, Lay: lay}
	for _, o := range opt {
		o(p)
	}

	return p
}

func WithTitle(title string) Opt {
	return func(p *Plot) *Plot { p.Lay.Title = &grob.LayoutTitle{Text: title}; return p }
}

func WithLegend(show bool) Opt {
	return func(p *Plot) *Plot {
		if show {
			p.Lay.Showlegend = grob.True
		} else {
			p.Lay.Showlegend = grob.False
		}

		return p
	}
}

func WithXlabel(label string) Opt {
	return func(p *Plot) *Plot {
		if p.Lay.Xaxis == nil {
			p.Lay.Xaxis = &grob.LayoutXaxis{}
		}
		if p.Lay.Xaxis.Title == nil {
			p.Lay.Xaxis.Title = &grob.LayoutXaxisTitle{}
		}
		p.Lay.Xaxis.Title.Text = label
		return p
	}
}

func WithYlabel(label string) Opt {
	return func(p *Plot) *Plot {
		if p.Lay.Yaxis == nil {
			p.Lay.Yaxis = &grob.LayoutYaxis{}
		}
		if p.Lay.Yaxis.Title == nil {
			p.Lay.Yaxis.Title = &grob.LayoutYaxisTitle{}
		}
		p.Lay.Yaxis.Title.Text = label
		return p
	}
}

// PlotXY adds a line series
func (p *Plot) PlotXY(x, y []float64, seriesName string) error {
	if len(x) != len(y) {
		return fmt.Errorf("xy plots require equal lengths, got %d and %d", len(x), len(y))
	}

	tr := &grob.Scatter{Type: grob.TraceTypeScatter, Name: seriesName, X: x, Y: y,
		Mode: grob.ScatterModeLines}

	p.Fig.AddTraces(tr)

	return nil
}

// Save writes the figure as a standalone HTML page
func (p *Plot) Save(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return fmt.Errorf("failed to create figure directory: %w", err)
	}

	offline.ToHtml(p.Fig, fileName)

	if _, err := os.Stat(fileName); err != nil {
		return fmt.Errorf("figure %s was not written: %w", fileName, err)
	}
	return nil
}
