package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govpanel/internal/config"
	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
	"govpanel/internal/panel"
	"govpanel/internal/sources"
)

var testCountries = []struct {
	code   string
	region string
}{
	{"AAA", "East Asia & Pacific"},
	{"BBB", "East Asia & Pacific"},
	{"CCC", "Europe & Central Asia"},
	{"DDD", "Europe & Central Asia"},
	{"EEE", "North America"},
	{"FFF", "North America"},
}

func share(i, year int) float64 {
	return 0.1 + 0.01*float64((i*7+year*3)%11)
}

func logGDP(i, year int) float64 {
	return 8 + 0.1*float64(i) + 0.05*float64(year-2000) + 0.02*float64((i*5+year)%7)
}

// syntheticPanel follows GE = 2·share(t-1) + 0.5·logGDP + country effect + year effect
func syntheticPanel() *panel.Panel {
	p := &panel.Panel{Columns: []string{
		sources.ColCountryCode, sources.ColCountryName, sources.ColRegion, sources.ColIncomeGroup, sources.ColYear,
		sources.ColGovernmentEffectiveness, sources.ColPublicShare, panel.ColGDPPerCapita, panel.ColLogGDPPerCapita,
	}}

	for i, c := range testCountries {
		for year := 2000; year <= 2010; year++ {
			t := float64(year - 2000)
			ge := 2*share(i, year-1) + 0.5*logGDP(i, year) + 0.3*float64(i) + 0.01*t*t
			p.Rows = append(p.Rows, &panel.Row{
				CountryCode: c.code,
				Year:        year,
				Class:       sources.Classification{CountryCode: c.code, CountryName: c.code, Region: c.region},
				Values: map[string]dp.Cell{
					sources.ColGovernmentEffectiveness: dp.Some(ge),
					sources.ColPublicShare:             dp.Some(share(i, year)),
					panel.ColGDPPerCapita:              dp.Some(math.Exp(logGDP(i, year))),
					panel.ColLogGDPPerCapita:           dp.Some(logGDP(i, year)),
				},
			})
		}
	}
	return p
}

func TestClippedLogGDP(t *testing.T) {
	assert.InDelta(t, math.Log(50000), ClippedLogGDP(dp.Some(50000)).Value, 1e-12)
	assert.InDelta(t, math.Log(1e-6), ClippedLogGDP(dp.Some(0)).Value, 1e-12)
	assert.InDelta(t, math.Log(1e-6), ClippedLogGDP(dp.Some(-5)).Value, 1e-12)
	assert.False(t, ClippedLogGDP(dp.Missing).Valid)

	assert.False(t, panel.LogGDP(dp.Some(0)).Valid, "the builder keeps its missing-on-non-positive rule")
}

func TestPrepare(t *testing.T) {
	p := &panel.Panel{
		Columns: []string{sources.ColCountryCode, sources.ColYear, sources.ColPublicShare, panel.ColGDPPerCapita},
		Rows: []*panel.Row{
			{CountryCode: "USA", Year: 2005, Values: map[string]dp.Cell{
				sources.ColPublicShare: dp.Some(0.8),
				panel.ColGDPPerCapita:  dp.Some(0),
			}},
			{CountryCode: "FRA", Year: 2005, Values: map[string]dp.Cell{}},
		},
	}

	Prepare(p)

	assert.InDelta(t, 80, p.Rows[0].Get(sources.ColPublicShare).Value, 1e-9)
	assert.True(t, p.HasColumn(panel.ColLogGDPPerCapita))
	assert.InDelta(t, math.Log(1e-6), p.Rows[0].Get(panel.ColLogGDPPerCapita).Value, 1e-12)
	assert.False(t, p.Rows[1].Get(panel.ColLogGDPPerCapita).Valid)
}

func TestPrepare_KeepsExistingLog(t *testing.T) {
	p := &panel.Panel{
		Columns: []string{sources.ColCountryCode, sources.ColYear, panel.ColGDPPerCapita, panel.ColLogGDPPerCapita},
		Rows: []*panel.Row{{CountryCode: "USA", Year: 2005, Values: map[string]dp.Cell{
			panel.ColGDPPerCapita: dp.Some(-1),
		}}},
	}

	Prepare(p)
	assert.False(t, p.Rows[0].Get(panel.ColLogGDPPerCapita).Valid)
	assert.Len(t, p.Columns, 4)
}

func TestRegionTrends(t *testing.T) {
	p := &panel.Panel{Rows: []*panel.Row{
		{CountryCode: "A", Year: 2005, Class: sources.Classification{Region: "R1"}, Values: map[string]dp.Cell{
			sources.ColGovernmentEffectiveness: dp.Some(1),
		}},
		{CountryCode: "B", Year: 2005, Class: sources.Classification{Region: "R1"}, Values: map[string]dp.Cell{
			sources.ColGovernmentEffectiveness: dp.Some(3),
			sources.ColPublicShare:             dp.Some(20),
		}},
		{CountryCode: "C", Year: 2004, Class: sources.Classification{Region: "R1"}, Values: map[string]dp.Cell{}},
		{CountryCode: "D", Year: 2005, Values: map[string]dp.Cell{
			sources.ColGovernmentEffectiveness: dp.Some(100),
		}},
	}}

	trends := RegionTrends(p)
	require.Len(t, trends, 2)

	assert.Equal(t, 2004, trends[0].Year)
	assert.False(t, trends[0].Mean(sources.ColGovernmentEffectiveness).Valid)

	assert.Equal(t, "R1", trends[1].Region)
	assert.Equal(t, dp.Some(2), trends[1].Mean(sources.ColGovernmentEffectiveness))
	assert.Equal(t, dp.Some(20), trends[1].Mean(sources.ColPublicShare))
	assert.Equal(t, []string{"R1"}, Regions(trends))
	assert.Equal(t, len(TrendHeader()), len(trends[1].Record()))
}

func TestEstimateLag_RecoversCoefficients(t *testing.T) {
	v := panel.NewLaggedView(syntheticPanel(), panel.DefaultLags)

	coefs, err := EstimateLag(v, 1)
	require.NoError(t, err)
	require.Len(t, coefs, 2)

	assert.Equal(t, "Lag1", coefs[0].Variable)
	assert.InDelta(t, 2.0, coefs[0].Estimate, 1e-6)
	assert.Equal(t, panel.ColLogGDPPerCapita, coefs[1].Variable)
	assert.InDelta(t, 0.5, coefs[1].Estimate, 1e-6)

	assert.Equal(t, len(testCountries)*10, coefs[0].NObs, "first year has no lag")
	assert.Equal(t, len(testCountries), coefs[0].Entities)
	assert.InDelta(t, 0, coefs[0].StdError, 1e-6, "exact fit leaves no residual")
	assert.LessOrEqual(t, coefs[0].CILower, coefs[0].CIUpper)
}

func TestEstimateLag_Insufficient(t *testing.T) {
	p := syntheticPanel()
	var one []*panel.Row
	for _, r := range p.Rows {
		if r.CountryCode == "AAA" {
			one = append(one, r)
		}
	}
	p.Rows = one

	_, err := EstimateLag(panel.NewLaggedView(p, nil), 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEstimateLag_NoResidualDegreesOfFreedom(t *testing.T) {
	p := syntheticPanel()
	var small []*panel.Row
	for _, r := range p.Rows {
		if (r.CountryCode == "AAA" || r.CountryCode == "BBB") && r.Year <= 2002 {
			small = append(small, r)
		}
	}
	p.Rows = small

	v := panel.NewLaggedView(p, nil)
	require.Len(t, v.Complete(1), 4, "two countries observed in 2001 and 2002")

	_, err := EstimateLag(v, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		DataDir:     dir,
		OutputDir:   dir,
		AnalysisDir: filepath.Join(dir, "output"),
		FiguresDir:  filepath.Join(dir, "figures"),
	}
	paths := cfg.GetPaths()

	p := syntheticPanel()
	require.NoError(t, exporter.NewCSVWriter().WriteSimpleCSV(paths.MasterPanel, p.Columns, p.Records()))

	report, err := NewRunner(paths, cfg.Analysis).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, p.Len(), report.Rows)
	assert.Len(t, report.Coefficients, 6)
	assert.Empty(t, report.SkippedLags)

	for _, name := range []string{
		FigureChoropleth, FigureRegionGE, FigureRegionShare, FigureFocusGE,
		FigureFocusShareGE, FigureFocusShareLogGDP, FigureLagEffects, FigureWGISmallMultiples,
	} {
		assert.FileExists(t, filepath.Join(paths.FiguresDir, name))
	}

	lagged, err := os.ReadFile(paths.LaggedPanel)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(lagged)), "\n")
	require.Len(t, lines, p.Len()+1)
	assert.Equal(t, "Country_Code,Year,Government_Effectiveness,Public_Sector_Employment_Share,log_GDP_Per_Capita,Lag1,Lag2,Lag3", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "AAA,2000,"))
	assert.True(t, strings.HasSuffix(lines[1], ",,,"), "the first year has no lags")
	assert.Contains(t, report.Outputs, paths.LaggedPanel)

	lagCSV, err := os.ReadFile(paths.LagRegressions)
	require.NoError(t, err)
	assert.Contains(t, string(lagCSV), "lag,variable,coefficient")
	assert.FileExists(t, paths.RegionTrends)
}

func TestChoroplethPlot(t *testing.T) {
	p := &panel.Panel{Rows: []*panel.Row{
		{CountryCode: "USA", Year: 2006, Values: map[string]dp.Cell{sources.ColGovernmentEffectiveness: dp.Some(1.5)}},
		{CountryCode: "FRA", Year: 2005, Values: map[string]dp.Cell{sources.ColGovernmentEffectiveness: dp.Some(-0.5)}},
		{CountryCode: "USA", Year: 2005, Values: map[string]dp.Cell{sources.ColGovernmentEffectiveness: dp.Some(1.2)}},
		{CountryCode: "DEU", Year: 2007, Values: map[string]dp.Cell{}},
	}}

	plt, years, ok := ChoroplethPlot(p)
	require.True(t, ok)
	assert.Equal(t, []int{2005, 2006}, years, "years without data are left out")
	require.Len(t, plt.Fig.Data, 2)

	first := plt.Fig.Data[0].(*grob.Choropleth)
	latest := plt.Fig.Data[1].(*grob.Choropleth)
	assert.Equal(t, []string{"FRA", "USA"}, first.Locations)
	assert.Equal(t, grob.ChoroplethVisibleFalse, first.Visible)
	assert.Equal(t, grob.ChoroplethVisibleTrue, latest.Visible)
	for _, tr := range []*grob.Choropleth{first, latest} {
		assert.Equal(t, -0.5, tr.Zmin, "colour range spans every year")
		assert.Equal(t, 1.5, tr.Zmax)
	}

	sliders, ok := plt.Lay.Sliders.([]slider)
	require.True(t, ok)
	require.Len(t, sliders, 1)
	assert.Equal(t, 1, sliders[0].Active)
	require.Len(t, sliders[0].Steps, 2)
	assert.Equal(t, "2005", sliders[0].Steps[0].Label)

	_, _, ok = ChoroplethPlot(&panel.Panel{})
	assert.False(t, ok)
}

func TestFocusTrendPlot(t *testing.T) {
	trends := RegionTrends(syntheticPanel())

	plt, ok := FocusTrendPlot(trends)
	require.True(t, ok)
	require.Len(t, plt.Fig.Data, 3, "two grey regions then the focus region")

	for _, tr := range plt.Fig.Data[:2] {
		s := tr.(*grob.Scatter)
		assert.NotEqual(t, FocusRegion, s.Name)
		assert.Equal(t, "lightgrey", s.Line.Color)
	}
	focus := plt.Fig.Data[2].(*grob.Scatter)
	assert.Equal(t, FocusRegion, focus.Name)
	assert.Len(t, focus.X, 11)

	_, ok = FocusTrendPlot(nil)
	assert.False(t, ok)
}

func TestScatterFitPlot(t *testing.T) {
	x := []float64{10, 20, 30, 40}
	y := []float64{1.5, 2, 2.5, 3}

	plt, err := ScatterFitPlot(x, y, "t", "x", "y")
	require.NoError(t, err)
	require.Len(t, plt.Fig.Data, 2)

	fit := plt.Fig.Data[1].(*grob.Scatter)
	assert.Equal(t, []float64{10, 40}, fit.X)
	ys := fit.Y.([]float64)
	assert.InDelta(t, 1.5, ys[0], 1e-9)
	assert.InDelta(t, 3, ys[1], 1e-9)

	plt, err = ScatterFitPlot([]float64{5, 5}, []float64{1, 2}, "t", "x", "y")
	require.NoError(t, err)
	assert.Len(t, plt.Fig.Data, 1, "no line through a single x value")

	_, err = ScatterFitPlot([]float64{1}, nil, "t", "x", "y")
	assert.Error(t, err)
}

func TestFocusPoints(t *testing.T) {
	p := syntheticPanel()
	x, y := focusPoints(p, sources.ColGovernmentEffectiveness)
	assert.Len(t, x, 22, "two focus countries over eleven years")
	assert.Len(t, y, 22)
}

func TestWGISmallMultiplesPlot(t *testing.T) {
	trends := []TrendRow{
		{Region: "R1", Year: 2005, Means: []dp.Cell{dp.Some(1), dp.Some(2), dp.Some(3), dp.Some(4), dp.Some(5), dp.Some(6), dp.Missing}},
		{Region: "R2", Year: 2005, Means: []dp.Cell{dp.Some(1), dp.Missing, dp.Some(3), dp.Some(4), dp.Some(5), dp.Some(6), dp.Missing}},
	}

	plt := WGISmallMultiplesPlot(trends)
	require.NotNil(t, plt.Lay.Grid)
	assert.Equal(t, int64(2), plt.Lay.Grid.Rows)
	assert.Equal(t, int64(3), plt.Lay.Grid.Columns)
	require.Len(t, plt.Fig.Data, 11, "R2 has no control of corruption")

	legend := 0
	axes := map[string]bool{}
	for _, tr := range plt.Fig.Data {
		s := tr.(*grob.Scatter)
		axes[s.Xaxis.(string)] = true
		if *s.Showlegend {
			legend++
		}
		assert.Equal(t, s.Name, s.Legendgroup)
	}
	assert.Equal(t, 2, legend, "one legend entry per region")
	assert.Len(t, axes, 6)

	notes, ok := plt.Lay.Annotations.([]annotation)
	require.True(t, ok)
	require.Len(t, notes, 6)
	assert.Equal(t, "Government Effectiveness", notes[0].Text)
	assert.Equal(t, "x2 domain", notes[1].Xref)
}
