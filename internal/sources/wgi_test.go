package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "govpanel/internal/dataprocessing"
	perrors "govpanel/internal/errors"
)

func wgiFixture() *dp.Table {
	return table(SourceWGI,
		[]string{"code", "countryname", "year", "indicator", "estimate", "stddev"},
		[]string{"USA", "United States of America", "2005", "ge", "1.5", "0.1"},
		[]string{"USA", "United States of America", "2005", "CC", "1.2", "0.1"},
		[]string{"USA", "United States of America", "2005", "pv ", "0.4", "0.1"},
		[]string{"USA", "United States of America", "2005", "RL", "1.4", "0.1"},
		[]string{"USA", "United States of America", "2005", "RQ", "1.6", "0.1"},
		[]string{"USA", "United States of America", "2005", "VA", "1.1", "0.1"},
		[]string{"USA", "United States of America", "2005", "GE", "9.9", "0.1"},
		[]string{"USA", "United States of America", "1998", "GE", "1.0", "0.1"},
		[]string{"FRA", "France", "2006", "GE", "#N/A", "0.1"},
		[]string{"FRA", "France", "2006", "CC", "1.3", "0.1"},
		[]string{"XKX", "Kosovo", "2007", "GE", "-0.5", "0.1"},
	)
}

func TestCleanWGI_Pivot(t *testing.T) {
	res, err := cleanWGITable(wgiFixture(), testClassifications())
	require.NoError(t, err)

	assert.Equal(t, []string{
		ColCountryCode, ColCountryName, ColYear, ColRegion, ColIncomeGroup,
		ColControlOfCorruption, ColGovernmentEffectiveness, ColPoliticalStability,
		ColRuleOfLaw, ColRegulatoryQuality, ColVoiceAndAccountability,
	}, res.Header)

	require.Len(t, res.Rows, 3)

	fra, usa, xkx := res.Rows[0], res.Rows[1], res.Rows[2]

	assert.Equal(t, "USA", usa.CountryCode)
	assert.Equal(t, 2005, usa.Year)
	assert.Equal(t, "United States", usa.Class.CountryName, "classification name wins over source name")
	assert.Equal(t, []dp.Cell{
		dp.Some(1.2), dp.Some(1.5), dp.Some(0.4), dp.Some(1.4), dp.Some(1.6), dp.Some(1.1),
	}, usa.Values, "first duplicate GE wins")

	assert.Equal(t, "FRA", fra.CountryCode)
	assert.Equal(t, dp.Some(1.3), fra.Values[0])
	assert.Equal(t, dp.Missing, fra.Values[1])

	assert.Equal(t, "XKX", xkx.CountryCode)
	assert.Equal(t, Classification{}, xkx.Class, "rows without classification are kept")

	assert.Equal(t, 11, res.Stats.Read)
	assert.Equal(t, 1, res.Stats.Dropped[dp.ReasonValueMissing])
	assert.Equal(t, 1, res.Stats.Dropped[dp.ReasonYearOutOfRange])
	assert.Equal(t, 3, res.Stats.Kept)
}

func TestCleanWGI_UnknownIndicatorIsExtraColumn(t *testing.T) {
	tbl := table(SourceWGI,
		[]string{"code", "countryname", "year", "indicator", "estimate"},
		[]string{"USA", "x", "2005", "GE", "1"},
		[]string{"USA", "x", "2005", "zz", "2"},
		[]string{"USA", "x", "2005", "", "3"},
	)

	res, err := cleanWGITable(tbl, testClassifications())
	require.NoError(t, err)

	assert.Equal(t, WGIHeader([]string{ColGovernmentEffectiveness, "ZZ"}), res.Header)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []dp.Cell{dp.Some(1), dp.Some(2)}, res.Rows[0].Values)
	assert.Equal(t, 1, res.Stats.Dropped[dp.ReasonIndicatorMissing])
}

func TestCleanWGI_MissingColumn(t *testing.T) {
	tbl := table(SourceWGI, []string{"code", "countryname", "year", "indicator"})

	_, err := cleanWGITable(tbl, testClassifications())
	require.Error(t, err)
	assert.True(t, perrors.IsSchema(err))
}

func TestCleanWGI_FromWorkbook(t *testing.T) {
	path := writeWorkbook(t, "wgidataset.xlsx", [][]any{
		{"code", "countryname", "year", "indicator", "estimate"},
		{"USA", "United States of America", 2005, "GE", 1.5},
		{"USA", "United States of America", 2005.0, "CC", 1.2},
	})

	res, err := CleanWGI(path, testClassifications())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []dp.Cell{dp.Some(1.2), dp.Some(1.5)}, res.Rows[0].Values)

	out := writeFile(t, "cleaned_wgi.csv", "")
	writeResult(t, out, res)

	indicators, back, err := ReadCleanedWGI(out)
	require.NoError(t, err)
	assert.Equal(t, []string{ColControlOfCorruption, ColGovernmentEffectiveness}, indicators)
	assert.Equal(t, res.Rows, back)
}
