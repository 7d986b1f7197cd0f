package panel

import (
	"fmt"
	"sort"
	"strconv"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/sources"
)

// DefaultLags are the lag orders of the regression view
var DefaultLags = []int{1, 2, 3}

// LagColumn names the column holding the share n years earlier
func LagColumn(n int) string {
	return fmt.Sprintf("Lag%d", n)
}

// LaggedRow is one (Country_Code, Year) row of the regression view
type LaggedRow struct {
	CountryCode string
	Year        int

	GovernmentEffectiveness dp.Cell
	Share                   dp.Cell
	LogGDP                  dp.Cell

	// Lags is aligned with LaggedView.Lags
	Lags []dp.Cell
}

// LaggedView reduces the panel to the regression variables plus lagged shares.
// A lag is the same country's share exactly n calendar years earlier; a gap
// in coverage gives a missing lag.
type LaggedView struct {
	Lags []int
	Rows []LaggedRow
}

// NewLaggedView builds the view sorted by country and year
func NewLaggedView(p *Panel, lags []int) *LaggedView {
	if len(lags) == 0 {
		lags = DefaultLags
	}

	shares := make(map[dp.Key]dp.Cell, p.Len())
	for _, r := range p.Rows {
		shares[r.Key()] = r.Get(sources.ColPublicShare)
	}

	v := &LaggedView{Lags: append([]int{}, lags...)}
	for _, r := range p.Rows {
		row := LaggedRow{
			CountryCode:             r.CountryCode,
			Year:                    r.Year,
			GovernmentEffectiveness: r.Get(sources.ColGovernmentEffectiveness),
			Share:                   r.Get(sources.ColPublicShare),
			LogGDP:                  r.Get(ColLogGDPPerCapita),
			Lags:                    make([]dp.Cell, len(lags)),
		}
		for i, n := range lags {
			row.Lags[i] = shares[dp.Key{Code: r.CountryCode, Year: r.Year - n}]
		}
		v.Rows = append(v.Rows, row)
	}

	sort.SliceStable(v.Rows, func(i, j int) bool {
		a := dp.Key{Code: v.Rows[i].CountryCode, Year: v.Rows[i].Year}
		b := dp.Key{Code: v.Rows[j].CountryCode, Year: v.Rows[j].Year}
		return a.Less(b)
	})

	return v
}

// Header returns the view's column names
func (v *LaggedView) Header() []string {
	h := []string{
		sources.ColCountryCode, sources.ColYear,
		sources.ColGovernmentEffectiveness, sources.ColPublicShare, ColLogGDPPerCapita,
	}
	for _, n := range v.Lags {
		h = append(h, LagColumn(n))
	}
	return h
}

// Record encodes the row in Header order
func (r LaggedRow) Record() []string {
	rec := []string{
		r.CountryCode, strconv.Itoa(r.Year),
		r.GovernmentEffectiveness.String(), r.Share.String(), r.LogGDP.String(),
	}
	for _, c := range r.Lags {
		rec = append(rec, c.String())
	}
	return rec
}

// Lag returns the cell for lag order n, or missing when n is not in the view
func (r LaggedRow) Lag(v *LaggedView, n int) dp.Cell {
	for i, l := range v.Lags {
		if l == n && i < len(r.Lags) {
			return r.Lags[i]
		}
	}
	return dp.Missing
}

// Complete returns the rows where the outcome, lag n and log GDP are all present
func (v *LaggedView) Complete(n int) []LaggedRow {
	var out []LaggedRow
	for _, r := range v.Rows {
		if r.GovernmentEffectiveness.Valid && r.LogGDP.Valid && r.Lag(v, n).Valid {
			out = append(out, r)
		}
	}
	return out
}
