package analysis

import (
	"log/slog"
	"math"
	"strings"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/panel"
	"govpanel/internal/sources"
)

// gdpFloor is the lower clip applied before taking logs in the analysis
const gdpFloor = 1e-6

// ClippedLogGDP is ln(max(x, 1e-6)); missing stays missing.
// Unlike panel.LogGDP, non-positive values are clipped rather than dropped.
func ClippedLogGDP(c dp.Cell) dp.Cell {
	if !c.Valid {
		return dp.Missing
	}
	return dp.Some(math.Log(math.Max(c.Value, gdpFloor)))
}

// Prepare converts the employment share to percent and makes sure a log GDP
// column exists. The panel is modified in place.
func Prepare(p *panel.Panel) {
	for _, r := range p.Rows {
		if s := r.Get(sources.ColPublicShare); s.Valid {
			r.Values[sources.ColPublicShare] = dp.Some(s.Value * 100)
		}
	}

	if p.HasColumn(panel.ColLogGDPPerCapita) {
		return
	}

	gdpCol := gdpColumn(p)
	p.Columns = append(p.Columns, panel.ColLogGDPPerCapita)
	if gdpCol == "" {
		slog.Warn("No GDP per capita column; log GDP is missing for every row")
		return
	}

	slog.Info("Recomputing log GDP per capita", slog.String("from", gdpCol))
	for _, r := range p.Rows {
		if c := ClippedLogGDP(r.Get(gdpCol)); c.Valid {
			r.Values[panel.ColLogGDPPerCapita] = c
		}
	}
}

// gdpColumn picks the GDP per capita column to recompute logs from
func gdpColumn(p *panel.Panel) string {
	if p.HasColumn(panel.ColGDPPerCapita) {
		return panel.ColGDPPerCapita
	}
	for _, c := range p.NumericColumns() {
		u := strings.ToUpper(c)
		if strings.Contains(u, "GDP") && strings.Contains(u, "PCAP") {
			return c
		}
	}
	return ""
}
