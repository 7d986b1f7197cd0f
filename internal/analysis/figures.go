package analysis

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"govpanel/internal/panel"
	"govpanel/internal/sources"
)

// Figure file names written under the figures directory
const (
	FigureChoropleth        = "government_effectiveness_over_time.html"
	FigureRegionGE          = "region_government_effectiveness_trend.html"
	FigureRegionShare       = "region_public_sector_share_trend.html"
	FigureFocusGE           = "east_asia_vs_world_gov_eff.html"
	FigureFocusShareGE      = "east_asia_bureaucracy_vs_gov_eff.html"
	FigureFocusShareLogGDP  = "east_asia_bureaucracy_vs_log_gdp.html"
	FigureLagEffects        = "lagged_public_employment_effects.html"
	FigureWGISmallMultiples = "region_all_wgi_smallmultiples.html"
)

// FocusRegion is highlighted against the other regions
const FocusRegion = "East Asia & Pacific"

// WGIColumns are the six governance indicators drawn as small multiples
var WGIColumns = TrendColumns[:6]

// palette is the tab10 cycle; a region keeps its colour across facets
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type slider struct {
	Active       int          `json:"active"`
	Currentvalue sliderPrefix `json:"currentvalue"`
	Steps        []sliderStep `json:"steps"`
}

type sliderPrefix struct {
	Prefix string `json:"prefix"`
}

type sliderStep struct {
	Label  string        `json:"label"`
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

type annotation struct {
	Text      string  `json:"text"`
	Xref      string  `json:"xref"`
	Yref      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Showarrow bool    `json:"showarrow"`
}

// ChoroplethPlot maps government effectiveness with one trace per year and a
// year slider that switches between them. The colour range is shared by all
// years; the latest year is shown first. It returns the years drawn.
func ChoroplethPlot(p *panel.Panel) (*Plot, []int, bool) {
	var traces []*grob.Choropleth
	var years []int
	zmin, zmax := 0.0, 0.0

	for _, year := range p.Years() {
		var codes, names []string
		var values []float64
		for _, r := range p.Rows {
			ge := r.Get(sources.ColGovernmentEffectiveness)
			if r.Year != year || !ge.Valid || r.CountryCode == "" {
				continue
			}
			codes = append(codes, r.CountryCode)
			names = append(names, r.Class.CountryName)
			values = append(values, ge.Value)
		}
		if len(values) == 0 {
			continue
		}

		if len(years) == 0 {
			zmin, zmax = floats.Min(values), floats.Max(values)
		} else {
			zmin, zmax = min(zmin, floats.Min(values)), max(zmax, floats.Max(values))
		}
		years = append(years, year)
		traces = append(traces, &grob.Choropleth{
			Type:          grob.TraceTypeChoropleth,
			Name:          strconv.Itoa(year),
			Locations:     codes,
			Locationmode:  grob.ChoroplethLocationmodeIso3,
			Z:             values,
			Hovertext:     names,
			Hovertemplate: "%{hovertext}<br>" + sources.ColGovernmentEffectiveness + "=%{z:.2f}<extra></extra>",
			Colorscale:    "RdYlGn",
			Visible:       grob.ChoroplethVisibleFalse,
		})
	}
	if len(years) == 0 {
		return nil, nil, false
	}

	last := len(traces) - 1
	steps := make([]sliderStep, len(traces))
	for i, tr := range traces {
		tr.Zauto = grob.False
		tr.Zmin, tr.Zmax = zmin, zmax
		tr.Showscale = grob.Bool(boolPtr(i == last))

		visible := make([]bool, len(traces))
		visible[i] = true
		steps[i] = sliderStep{
			Label:  strconv.Itoa(years[i]),
			Method: "restyle",
			Args:   []interface{}{map[string]interface{}{"visible": visible}},
		}
	}
	traces[last].Visible = grob.ChoroplethVisibleTrue

	plt := NewPlot(WithTitle(fmt.Sprintf("Government Effectiveness Over Time (%d–%d)", years[0], years[last])))
	for _, tr := range traces {
		plt.Fig.AddTraces(tr)
	}
	plt.Lay.Geo = &grob.LayoutGeo{Showframe: grob.False, Showcoastlines: grob.False}
	plt.Lay.Margin = &grob.LayoutMargin{L: 0, R: 0, T: 50, B: 0}
	plt.Lay.Sliders = []slider{{Active: last, Currentvalue: sliderPrefix{Prefix: "Year: "}, Steps: steps}}

	return plt, years, true
}

func boolPtr(b bool) *bool {
	return &b
}

// regionSeries returns the years and means of col for one region
func regionSeries(trends []TrendRow, region, col string) ([]float64, []float64) {
	var x, y []float64
	for _, t := range trends {
		if t.Region != region {
			continue
		}
		if m := t.Mean(col); m.Valid {
			x = append(x, float64(t.Year))
			y = append(y, m.Value)
		}
	}
	return x, y
}

// RegionTrendPlot draws one line per region for a trend column
func RegionTrendPlot(trends []TrendRow, col, title, ylabel string) (*Plot, error) {
	plt := NewPlot(WithTitle(title), WithXlabel("Year"), WithYlabel(ylabel), WithLegend(true))

	for _, region := range Regions(trends) {
		x, y := regionSeries(trends, region, col)
		if len(x) == 0 {
			continue
		}
		if err := plt.PlotXY(x, y, region); err != nil {
			return nil, err
		}
	}

	return plt, nil
}

// FocusTrendPlot draws the focus region's government effectiveness over the
// other regions in grey. It reports false when the focus region has no data.
func FocusTrendPlot(trends []TrendRow) (*Plot, bool) {
	fx, fy := regionSeries(trends, FocusRegion, sources.ColGovernmentEffectiveness)
	if len(fx) == 0 {
		return nil, false
	}

	plt := NewPlot(
		WithTitle("Government Effectiveness, Highlighting "+FocusRegion),
		WithXlabel("Year"),
		WithYlabel("Government Effectiveness (WGI Score)"),
		WithLegend(true),
	)

	for _, region := range Regions(trends) {
		if region == FocusRegion {
			continue
		}
		x, y := regionSeries(trends, region, sources.ColGovernmentEffectiveness)
		if len(x) == 0 {
			continue
		}
		plt.Fig.AddTraces(&grob.Scatter{
			Type:        grob.TraceTypeScatter,
			Name:        region,
			X:           x,
			Y:           y,
			Mode:        grob.ScatterModeLines,
			Line:        &grob.ScatterLine{Color: "lightgrey", Width: 1},
			Legendgroup: "other",
			Showlegend:  grob.False,
		})
	}

	plt.Fig.AddTraces(&grob.Scatter{
		Type: grob.TraceTypeScatter,
		Name: FocusRegion,
		X:    fx,
		Y:    fy,
		Mode: grob.ScatterMode("lines+markers"),
		Line: &grob.ScatterLine{Color: palette[0], Width: 2.5},
	})

	return plt, true
}

// focusPoints returns the (share, ycol) pairs of the focus region's rows
// where both are present
func focusPoints(p *panel.Panel, ycol string) ([]float64, []float64) {
	var x, y []float64
	for _, r := range p.Rows {
		if r.Class.Region != FocusRegion {
			continue
		}
		s, v := r.Get(sources.ColPublicShare), r.Get(ycol)
		if s.Valid && v.Valid {
			x = append(x, s.Value)
			y = append(y, v.Value)
		}
	}
	return x, y
}

// ScatterFitPlot draws the points with their least-squares line. The line is
// left out when x has fewer than two distinct values.
func ScatterFitPlot(x, y []float64, title, xlabel, ylabel string) (*Plot, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("scatter plots require equal lengths, got %d and %d", len(x), len(y))
	}

	plt := NewPlot(WithTitle(title), WithXlabel(xlabel), WithYlabel(ylabel), WithLegend(false))
	plt.Fig.AddTraces(&grob.Scatter{
		Type:   grob.TraceTypeScatter,
		Name:   "observations",
		X:      x,
		Y:      y,
		Mode:   grob.ScatterModeMarkers,
		Marker: &grob.ScatterMarker{Color: palette[0], Opacity: 0.6},
	})

	if len(x) < 2 || floats.Min(x) == floats.Max(x) {
		return plt, nil
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	lo, hi := floats.Min(x), floats.Max(x)
	plt.Fig.AddTraces(&grob.Scatter{
		Type: grob.TraceTypeScatter,
		Name: "fit",
		X:    []float64{lo, hi},
		Y:    []float64{alpha + beta*lo, alpha + beta*hi},
		Mode: grob.ScatterModeLines,
		Line: &grob.ScatterLine{Color: palette[0]},
	})

	return plt, nil
}

// facetAxes returns the axis ids of the i-th facet of an independent grid
func facetAxes(i int) (string, string) {
	if i == 0 {
		return "x", "y"
	}
	n := strconv.Itoa(i + 1)
	return "x" + n, "y" + n
}

// WGISmallMultiplesPlot draws the region trends of every WGI indicator in a
// 2×3 grid. Each facet keeps its own y range; a region's lines share one
// legend entry.
func WGISmallMultiplesPlot(trends []TrendRow) *Plot {
	plt := NewPlot(WithTitle("Regional Trends by WGI Indicator"), WithLegend(true))
	plt.Lay.Grid = &grob.LayoutGrid{Rows: 2, Columns: 3, Pattern: grob.LayoutGridPatternIndependent}

	var notes []annotation
	for i, col := range WGIColumns {
		xa, ya := facetAxes(i)
		notes = append(notes, annotation{
			Text:      strings.ReplaceAll(col, "_", " "),
			Xref:      xa + " domain",
			Yref:      ya + " domain",
			X:         0.5,
			Y:         1.12,
			Showarrow: false,
		})

		for j, region := range Regions(trends) {
			x, y := regionSeries(trends, region, col)
			if len(x) == 0 {
				continue
			}
			plt.Fig.AddTraces(&grob.Scatter{
				Type:        grob.TraceTypeScatter,
				Name:        region,
				X:           x,
				Y:           y,
				Mode:        grob.ScatterModeLines,
				Line:        &grob.ScatterLine{Color: palette[j%len(palette)]},
				Xaxis:       xa,
				Yaxis:       ya,
				Legendgroup: region,
				Showlegend:  grob.Bool(boolPtr(i == 0)),
			})
		}
	}
	plt.Lay.Annotations = notes

	return plt
}

// LagEffectsPlot draws the lag coefficients with 95% intervals
func LagEffectsPlot(coefs []Coefficient) *Plot {
	var labels []string
	var est, up, down []float64
	for _, c := range coefs {
		if c.Variable != panel.LagColumn(c.Lag) {
			continue
		}
		labels = append(labels, "Lag "+strconv.Itoa(c.Lag))
		est = append(est, c.Estimate)
		up = append(up, c.CIUpper-c.Estimate)
		down = append(down, c.Estimate-c.CILower)
	}

	plt := NewPlot(
		WithTitle("Impact of Lagged Public Employment on Government Effectiveness"),
		WithXlabel("Lagged Variable"),
		WithYlabel("Coefficient Estimate"),
	)
	plt.Fig.AddTraces(&grob.Bar{
		Type: grob.TraceTypeBar,
		Name: "Coefficient",
		X:    labels,
		Y:    est,
		ErrorY: &grob.BarErrorY{
			Array:      up,
			Arrayminus: down,
			Visible:    grob.True,
		},
	})

	return plt
}

// WriteFigures renders every figure into dir and returns the files written.
// Figures without data are left out.
func WriteFigures(dir string, p *panel.Panel, trends []TrendRow, coefs []Coefficient) ([]string, error) {
	var written []string

	save := func(plt *Plot, name string) error {
		path := filepath.Join(dir, name)
		if err := plt.Save(path); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if plt, _, ok := ChoroplethPlot(p); ok {
		if err := save(plt, FigureChoropleth); err != nil {
			return written, err
		}
	}

	ge, err := RegionTrendPlot(trends, sources.ColGovernmentEffectiveness,
		"Trend of Government Effectiveness by Region", "Government Effectiveness (WGI Score)")
	if err != nil {
		return written, err
	}
	if err := save(ge, FigureRegionGE); err != nil {
		return written, err
	}

	share, err := RegionTrendPlot(trends, sources.ColPublicShare,
		"Trend in Public Sector Employment Share by Region", "Public Sector Employment Share (%)")
	if err != nil {
		return written, err
	}
	if err := save(share, FigureRegionShare); err != nil {
		return written, err
	}

	if plt, ok := FocusTrendPlot(trends); ok {
		if err := save(plt, FigureFocusGE); err != nil {
			return written, err
		}
	}

	scatters := []struct {
		col, title, ylabel, name string
	}{
		{sources.ColGovernmentEffectiveness, "Bureaucracy vs. Government Effectiveness, " + FocusRegion,
			"Government Effectiveness (WGI Score)", FigureFocusShareGE},
		{panel.ColLogGDPPerCapita, "Bureaucracy vs. Economic Prosperity, " + FocusRegion,
			"log GDP Per Capita", FigureFocusShareLogGDP},
	}
	for _, s := range scatters {
		x, y := focusPoints(p, s.col)
		if len(x) == 0 {
			continue
		}
		plt, err := ScatterFitPlot(x, y, s.title, "Public Sector Employment Share (%)", s.ylabel)
		if err != nil {
			return written, err
		}
		if err := save(plt, s.name); err != nil {
			return written, err
		}
	}

	if len(coefs) > 0 {
		if err := save(LagEffectsPlot(coefs), FigureLagEffects); err != nil {
			return written, err
		}
	}

	if err := save(WGISmallMultiplesPlot(trends), FigureWGISmallMultiples); err != nil {
		return written, err
	}

	return written, nil
}
