package panel

import (
	"context"
	"log/slog"
	"math"

	"govpanel/internal/config"
	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
	"govpanel/internal/infrastructure"
	"govpanel/internal/sources"
)

// SourcePanel names the builder in drop statistics
const SourcePanel = "panel"

// Inputs are the cleaned tables the master panel is assembled from
type Inputs struct {
	WDI           []sources.WDIRecord
	WEO           []sources.WEORecord
	WGIIndicators []string
	WGI           []sources.WGIRecord
	ILO           []sources.ILORecord
}

// LogGDP is the natural log for present, strictly positive values; missing otherwise
func LogGDP(c dp.Cell) dp.Cell {
	if !c.Valid || c.Value <= 0 {
		return dp.Missing
	}
	return dp.Some(math.Log(c.Value))
}

// ValidShare reports whether an employment share may enter the panel
func ValidShare(c dp.Cell) bool {
	return !c.Valid || (c.Value >= 0 && c.Value <= 1)
}

// Builder reads the cleaned tables and writes the master panel
type Builder struct {
	paths  *config.Paths
	writer *exporter.CSVWriter
}

// NewBuilder creates a builder over the configured paths
func NewBuilder(paths *config.Paths) *Builder {
	return &Builder{
		paths:  paths,
		writer: exporter.NewCSVWriter(),
	}
}

// Load reads the four persisted cleaned tables
func (b *Builder) Load(ctx context.Context) (*Inputs, error) {
	logger := infrastructure.LoggerFromContext(ctx)

	var (
		in  Inputs
		err error
	)
	if in.WDI, err = sources.ReadCleanedWDI(b.paths.CleanedWDI); err != nil {
		return nil, err
	}
	if in.WEO, err = sources.ReadCleanedWEO(b.paths.CleanedWEO); err != nil {
		return nil, err
	}
	if in.WGIIndicators, in.WGI, err = sources.ReadCleanedWGI(b.paths.CleanedWGI); err != nil {
		return nil, err
	}
	if in.ILO, err = sources.ReadCleanedILO(b.paths.CleanedILO); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Cleaned tables loaded",
		slog.Int("wdi_rows", len(in.WDI)),
		slog.Int("weo_rows", len(in.WEO)),
		slog.Int("wgi_rows", len(in.WGI)),
		slog.Int("ilo_rows", len(in.ILO)))

	return &in, nil
}

// Build loads the cleaned tables and assembles the master panel
func (b *Builder) Build(ctx context.Context) (*Panel, *dp.DropStats, error) {
	in, err := b.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	p, stats := Assemble(in)

	infrastructure.LoggerFromContext(ctx).InfoContext(ctx, "Master panel assembled",
		slog.Int("rows", p.Len()),
		slog.Int("columns", len(p.Columns)),
		slog.Int("dropped", stats.TotalDropped()))

	return p, stats, nil
}

// Write persists the master panel
func (b *Builder) Write(p *Panel) error {
	return b.writer.WriteSimpleCSV(b.paths.MasterPanel, p.Columns, p.Records())
}

// Assemble joins the cleaned tables into the master panel.
// WGI rows form the base and carry the classification; WDI, WEO and ILO
// are left-joined on (Country_Code, Year).
func Assemble(in *Inputs) (*Panel, *dp.DropStats) {
	stats := dp.NewDropStats(SourcePanel)
	stats.Read = len(in.WGI)

	cols := newColumnSet(sources.ColCountryCode, sources.ColCountryName, sources.ColYear, sources.ColRegion, sources.ColIncomeGroup)
	wgiCols := cols.addAll("WGI", in.WGIIndicators)

	wdi := pivotWDI(in.WDI)
	wdiCols := cols.addAll("WDI", wdi.Columns)

	weo := pivotWEO(in.WEO)
	weoCols := cols.addAll("WEO", weo.Columns)

	ilo := indexILO(in.ILO)
	iloCols := cols.addAll("ILO", []string{sources.ColPrivate, sources.ColPublic, sources.ColPublicShare})
	shareCol := iloCols[2]

	gdpCol, hasGDP := "", false
	for i, c := range wdi.Columns {
		if c == ColGDPPerCapita {
			gdpCol, hasGDP = wdiCols[i], true
		}
	}
	var logCol string
	if hasGDP {
		logCol = cols.add("", ColLogGDPPerCapita)
	}

	p := &Panel{}
	for _, base := range in.WGI {
		key := dp.Key{Code: base.CountryCode, Year: base.Year}

		if !dp.InYearRange(key.Year) {
			stats.Drop(dp.ReasonYearOutOfRange, 1)
			continue
		}

		row := &Row{
			CountryCode: base.CountryCode,
			Year:        base.Year,
			Class:       base.Class,
			Values:      make(map[string]dp.Cell),
		}
		row.Class.CountryCode = base.CountryCode

		for i, v := range base.Values {
			if i < len(wgiCols) {
				row.set(wgiCols[i], v)
			}
		}
		for i, c := range wdi.Columns {
			row.set(wdiCols[i], wdi.Get(key, c))
		}
		for i, c := range weo.Columns {
			row.set(weoCols[i], weo.Get(key, c))
		}
		if r, ok := ilo[key]; ok {
			row.set(iloCols[0], r.Private)
			row.set(iloCols[1], r.Public)
			row.set(iloCols[2], r.Share)
		}

		if !ValidShare(row.Get(shareCol)) {
			stats.Drop(dp.ReasonShareInvalid, 1)
			continue
		}

		if hasGDP {
			row.set(logCol, LogGDP(row.Get(gdpCol)))
		}

		p.Rows = append(p.Rows, row)
	}

	p.Columns = orderColumns(cols.names)
	stats.Kept = len(p.Rows)

	return p, stats
}

func (r *Row) set(col string, c dp.Cell) {
	if c.Valid {
		r.Values[col] = c
	}
}

// pivotWDI spreads series into columns keyed by the classification code.
// Rows whose country found no classification have no key and are skipped.
func pivotWDI(rows []sources.WDIRecord) *dp.Wide {
	obs := make([]dp.Observation, 0, len(rows))
	for _, r := range rows {
		if r.Class.CountryCode == "" {
			continue
		}
		obs = append(obs, dp.Observation{
			Key:    dp.Key{Code: r.Class.CountryCode, Year: r.Year},
			Column: r.SeriesCode,
			Value:  dp.Some(r.Value),
		})
	}

	wide := dp.PivotFirst(obs)
	wide.RenameColumn(sources.WDIGDPPerCapitaPPP, ColGDPPerCapita)
	return wide
}

func pivotWEO(rows []sources.WEORecord) *dp.Wide {
	obs := make([]dp.Observation, 0, len(rows))
	for _, r := range rows {
		if r.CountryCode == "" {
			continue
		}
		obs = append(obs, dp.Observation{
			Key:    dp.Key{Code: r.CountryCode, Year: r.Year},
			Column: r.SubjectCode,
			Value:  dp.Some(r.Value),
		})
	}
	return dp.PivotFirst(obs)
}

// indexILO keys ILO rows; the first row of a repeated key wins
func indexILO(rows []sources.ILORecord) map[dp.Key]sources.ILORecord {
	out := make(map[dp.Key]sources.ILORecord, len(rows))
	for _, r := range rows {
		k := dp.Key{Code: r.CountryCode, Year: r.Year}
		if _, ok := out[k]; !ok {
			out[k] = r
		}
	}
	return out
}

// orderColumns puts the key columns that exist first, then the rest in arrival order
func orderColumns(arrival []string) []string {
	present := make(map[string]bool, len(arrival))
	for _, c := range arrival {
		present[c] = true
	}

	out := make([]string, 0, len(arrival))
	isKey := make(map[string]bool, len(KeyColumns))
	for _, c := range KeyColumns {
		isKey[c] = true
		if present[c] {
			out = append(out, c)
		}
	}
	for _, c := range arrival {
		if !isKey[c] {
			out = append(out, c)
		}
	}
	return out
}

// columnSet tracks panel columns in arrival order.
// A name already taken by an earlier source gets the later source's prefix.
type columnSet struct {
	names []string
	taken map[string]bool
}

func newColumnSet(names ...string) *columnSet {
	s := &columnSet{taken: make(map[string]bool)}
	for _, n := range names {
		s.add("", n)
	}
	return s
}

func (s *columnSet) add(source, name string) string {
	final := name
	if s.taken[final] && source != "" {
		final = source + "_" + name
	}
	for i := 2; s.taken[final]; i++ {
		final = source + "_" + name + "_" + exporter.FormatInt(i)
	}
	s.taken[final] = true
	s.names = append(s.names, final)
	return final
}

func (s *columnSet) addAll(source string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = s.add(source, n)
	}
	return out
}
