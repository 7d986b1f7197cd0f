package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/sources"
)

func panelRow(code string, year int, ge, share, logGDP dp.Cell) *Row {
	r := &Row{CountryCode: code, Year: year, Values: map[string]dp.Cell{}}
	r.set(sources.ColGovernmentEffectiveness, ge)
	r.set(sources.ColPublicShare, share)
	r.set(ColLogGDPPerCapita, logGDP)
	return r
}

func TestNewLaggedView(t *testing.T) {
	p := &Panel{Rows: []*Row{
		panelRow("USA", 2003, dp.Some(1.3), dp.Some(0.3), dp.Some(10)),
		panelRow("USA", 2000, dp.Some(1.0), dp.Some(0.1), dp.Some(10)),
		panelRow("USA", 2001, dp.Some(1.1), dp.Some(0.2), dp.Some(10)),
		panelRow("FRA", 2001, dp.Some(0.9), dp.Some(0.5), dp.Missing),
		panelRow("FRA", 2000, dp.Some(0.8), dp.Some(0.4), dp.Some(9)),
	}}

	v := NewLaggedView(p, nil)
	assert.Equal(t, DefaultLags, v.Lags)
	assert.Equal(t, []string{
		sources.ColCountryCode, sources.ColYear, sources.ColGovernmentEffectiveness,
		sources.ColPublicShare, ColLogGDPPerCapita, "Lag1", "Lag2", "Lag3",
	}, v.Header())

	require.Len(t, v.Rows, 5)
	assert.Equal(t, "FRA", v.Rows[0].CountryCode)
	assert.Equal(t, 2000, v.Rows[0].Year)

	fra2001 := v.Rows[1]
	assert.Equal(t, dp.Some(0.4), fra2001.Lag(v, 1), "lags stay within a country")

	usa2003 := v.Rows[4]
	assert.Equal(t, 2003, usa2003.Year)
	assert.False(t, usa2003.Lag(v, 1).Valid, "2002 is missing, so lag 1 is missing")
	assert.Equal(t, dp.Some(0.2), usa2003.Lag(v, 2))
	assert.Equal(t, dp.Some(0.1), usa2003.Lag(v, 3))
	assert.False(t, usa2003.Lag(v, 4).Valid)

	usa2000 := v.Rows[2]
	assert.False(t, usa2000.Lag(v, 1).Valid, "no earlier year for the first observation")

	assert.Equal(t, []string{"USA", "2003", "1.3", "0.3", "10", "", "0.2", "0.1"}, usa2003.Record())
	assert.Len(t, usa2003.Record(), len(v.Header()))

	complete := v.Complete(1)
	require.Len(t, complete, 1, "FRA 2001 lacks log GDP; USA 2003 lacks lag 1")
	assert.Equal(t, "USA", complete[0].CountryCode)
	assert.Equal(t, 2001, complete[0].Year)
}
