package panel

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govpanel/internal/config"
	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
	"govpanel/internal/sources"
)

var usaClass = sources.Classification{
	CountryCode: "USA",
	CountryName: "United States",
	Region:      "North America",
	IncomeGroup: "High income",
}

var sixIndicators = []string{
	sources.ColControlOfCorruption, sources.ColGovernmentEffectiveness, sources.ColPoliticalStability,
	sources.ColRuleOfLaw, sources.ColRegulatoryQuality, sources.ColVoiceAndAccountability,
}

func usaInputs() *Inputs {
	return &Inputs{
		WDI: []sources.WDIRecord{{
			CountryName: "United States",
			CountryCode: "USA",
			SeriesName:  "GDP per capita, PPP",
			SeriesCode:  sources.WDIGDPPerCapitaPPP,
			Year:        2005,
			Value:       50000,
			Class:       usaClass,
		}},
		WGIIndicators: sixIndicators,
		WGI: []sources.WGIRecord{{
			CountryCode: "USA",
			Year:        2005,
			Class:       usaClass,
			Values: []dp.Cell{
				dp.Some(1.2), dp.Some(1.5), dp.Some(0.4), dp.Some(1.4), dp.Some(1.6), dp.Some(1.1),
			},
		}},
		ILO: []sources.ILORecord{{
			CountryCode: "USA",
			Year:        2005,
			Private:     dp.Some(20),
			Public:      dp.Some(80),
			Share:       dp.Some(0.8),
			Class:       usaClass,
		}},
	}
}

func TestAssemble_EndToEndScenario(t *testing.T) {
	p, stats := Assemble(usaInputs())

	require.Equal(t, 1, p.Len())
	row := p.Rows[0]

	assert.Equal(t, "USA", row.CountryCode)
	assert.Equal(t, 2005, row.Year)
	assert.Equal(t, usaClass, row.Class)
	assert.Equal(t, dp.Some(50000), row.Get(ColGDPPerCapita))
	assert.InDelta(t, 10.8198, row.Get(ColLogGDPPerCapita).Value, 1e-4)
	assert.InDelta(t, 0.8, row.Get(sources.ColPublicShare).Value, 1e-12)
	for _, col := range sixIndicators {
		assert.True(t, row.Get(col).Valid, col)
	}
	assert.Equal(t, dp.Some(1.5), row.Get(sources.ColGovernmentEffectiveness))

	assert.Equal(t, KeyColumns, p.Columns[:len(KeyColumns)])
	assert.Equal(t, []string{sources.ColPrivate, sources.ColPublic}, p.Columns[len(KeyColumns):])
	assert.Equal(t, "1 × 16", p.ShapeString())
	assert.Zero(t, stats.TotalDropped())
}

func TestAssemble_ValidityAndRange(t *testing.T) {
	in := usaInputs()
	in.WGI = append(in.WGI,
		sources.WGIRecord{CountryCode: "USA", Year: 2006, Values: make([]dp.Cell, 6)},
		sources.WGIRecord{CountryCode: "USA", Year: 2007, Values: make([]dp.Cell, 6)},
		sources.WGIRecord{CountryCode: "USA", Year: 2008, Values: make([]dp.Cell, 6)},
		sources.WGIRecord{CountryCode: "USA", Year: 2021, Values: make([]dp.Cell, 6)},
	)
	in.ILO = append(in.ILO,
		sources.ILORecord{CountryCode: "USA", Year: 2006, Share: dp.Some(80)},
		sources.ILORecord{CountryCode: "USA", Year: 2007, Share: dp.Some(math.Inf(1))},
		sources.ILORecord{CountryCode: "USA", Year: 2008, Share: dp.Missing},
	)

	p, stats := Assemble(in)

	require.Equal(t, 2, p.Len())
	assert.Equal(t, 2005, p.Rows[0].Year)
	assert.Equal(t, 2008, p.Rows[1].Year)
	assert.Equal(t, 2, stats.Dropped[dp.ReasonShareInvalid])
	assert.Equal(t, 1, stats.Dropped[dp.ReasonYearOutOfRange])

	for _, r := range p.Rows {
		share := r.Get(sources.ColPublicShare)
		assert.True(t, !share.Valid || (share.Value >= 0 && share.Value <= 1))
		assert.True(t, dp.InYearRange(r.Year))
	}
}

func TestLogGDP(t *testing.T) {
	assert.InDelta(t, math.Log(50000), LogGDP(dp.Some(50000)).Value, 1e-12)
	assert.False(t, LogGDP(dp.Some(0)).Valid)
	assert.False(t, LogGDP(dp.Some(-3)).Valid)
	assert.False(t, LogGDP(dp.Missing).Valid)
}

func TestAssemble_LogGDPRule(t *testing.T) {
	in := usaInputs()
	in.WDI[0].Value = -1

	p, _ := Assemble(in)
	require.Equal(t, 1, p.Len())
	assert.True(t, p.HasColumn(ColLogGDPPerCapita))
	assert.False(t, p.Rows[0].Get(ColLogGDPPerCapita).Valid)

	in.WDI = nil
	p, _ = Assemble(in)
	assert.False(t, p.HasColumn(ColGDPPerCapita))
	assert.False(t, p.HasColumn(ColLogGDPPerCapita), "no GDP column, no derived log column")
}

func TestAssemble_WDIJoinMissAndExtraColumns(t *testing.T) {
	in := usaInputs()
	in.WDI = append(in.WDI,
		sources.WDIRecord{CountryCode: "USA", SeriesCode: "SP.POP.TOTL", Year: 2005, Value: 3e8, Class: usaClass},
		sources.WDIRecord{CountryCode: "USA", SeriesCode: sources.WDIGDPPerCapitaPPP, Year: 2005, Value: 1, Class: usaClass},
		sources.WDIRecord{CountryCode: "XKX", SeriesCode: "SP.POP.TOTL", Year: 2005, Value: 2e6},
	)
	in.WEO = []sources.WEORecord{
		{CountryCode: "USA", SubjectCode: sources.WEOGDPPerCapita, Year: 2005, Value: 44000},
	}
	in.WGIIndicators = append(in.WGIIndicators, "SP.POP.TOTL")
	in.WGI[0].Values = append(in.WGI[0].Values, dp.Some(7))

	p, _ := Assemble(in)
	row := p.Rows[0]

	assert.Equal(t, dp.Some(50000), row.Get(ColGDPPerCapita), "first WDI duplicate wins")
	assert.Equal(t, dp.Some(7), row.Get("SP.POP.TOTL"))
	assert.Equal(t, dp.Some(3e8), row.Get("WDI_SP.POP.TOTL"), "later source gets a prefix on collision")
	assert.Equal(t, dp.Some(44000), row.Get(sources.WEOGDPPerCapita))

	rest := p.Columns[len(KeyColumns):]
	assert.Equal(t, []string{"SP.POP.TOTL", "WDI_SP.POP.TOTL", sources.WEOGDPPerCapita, sources.ColPrivate, sources.ColPublic}, rest)
}

func writeCleaned[T exporter.Record](t *testing.T, w *exporter.CSVWriter, path string, header []string, rows []T) {
	t.Helper()
	require.NoError(t, w.WriteSimpleCSV(path, header, exporter.Records(rows)))
}

func TestBuilder_BuildIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(config.PathsConfig{DataDir: dir, OutputDir: dir, AnalysisDir: dir, FiguresDir: dir}, config.TelemetryConfig{})
	w := exporter.NewCSVWriter()

	in := usaInputs()
	in.WEO = []sources.WEORecord{{CountryCode: "USA", SubjectCode: sources.WEOGDPPerCapita, Year: 2005, Value: 44000.5, Class: usaClass}}
	writeCleaned(t, w, paths.CleanedWDI, sources.WDIHeader, in.WDI)
	writeCleaned(t, w, paths.CleanedWEO, sources.WEOHeader, in.WEO)
	writeCleaned(t, w, paths.CleanedWGI, sources.WGIHeader(in.WGIIndicators), in.WGI)
	writeCleaned(t, w, paths.CleanedILO, sources.ILOHeader, in.ILO)

	b := NewBuilder(paths)
	ctx := context.Background()

	p, _, err := b.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Write(p))
	first, err := os.ReadFile(paths.MasterPanel)
	require.NoError(t, err)

	p, _, err = b.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Write(p))
	second, err := os.ReadFile(paths.MasterPanel)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	back, err := ReadPanel(paths.MasterPanel)
	require.NoError(t, err)
	assert.Equal(t, p.Columns, back.Columns)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, p.Rows[0].Values, back.Rows[0].Values)
	assert.Equal(t, "United States", back.Rows[0].Class.CountryName)
}

func TestBuilder_MissingCleanedFile(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(config.PathsConfig{OutputDir: dir}, config.TelemetryConfig{})

	_, _, err := NewBuilder(paths).Build(context.Background())
	assert.Error(t, err)
}

func TestOrderColumns(t *testing.T) {
	got := orderColumns([]string{"Z", sources.ColYear, sources.ColCountryCode, "A", ColLogGDPPerCapita})
	assert.Equal(t, []string{sources.ColCountryCode, sources.ColYear, ColLogGDPPerCapita, "Z", "A"}, got)
}
