package panel

import (
	"fmt"
	"sort"
	"strconv"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/sources"
)

// Derived and renamed columns of the master panel
const (
	ColGDPPerCapita    = "WDI_GDP_Per_Capita"
	ColLogGDPPerCapita = "log_GDP_Per_Capita"
)

// KeyColumns lead the master panel in this order when present
var KeyColumns = []string{
	sources.ColCountryCode,
	sources.ColCountryName,
	sources.ColRegion,
	sources.ColIncomeGroup,
	sources.ColYear,
	sources.ColGovernmentEffectiveness,
	sources.ColControlOfCorruption,
	sources.ColPoliticalStability,
	sources.ColRuleOfLaw,
	sources.ColRegulatoryQuality,
	sources.ColVoiceAndAccountability,
	sources.ColPublicShare,
	ColGDPPerCapita,
	ColLogGDPPerCapita,
}

// identityColumns are the text and year columns of a row; all others are numeric
var identityColumns = map[string]struct{}{
	sources.ColCountryCode: {},
	sources.ColCountryName: {},
	sources.ColRegion:      {},
	sources.ColIncomeGroup: {},
	sources.ColYear:        {},
}

// IsIdentityColumn reports whether col holds row identity rather than a measurement
func IsIdentityColumn(col string) bool {
	_, ok := identityColumns[col]
	return ok
}

// Row is one (Country_Code, Year) observation of the master panel
type Row struct {
	CountryCode string
	Year        int
	Class       sources.Classification
	Values      map[string]dp.Cell
}

// Key returns the row's panel key
func (r *Row) Key() dp.Key {
	return dp.Key{Code: r.CountryCode, Year: r.Year}
}

// Get returns a numeric cell; unknown columns are missing
func (r *Row) Get(col string) dp.Cell {
	return r.Values[col]
}

// Panel is the master panel: ordered columns and rows unique per key
type Panel struct {
	Columns []string
	Rows    []*Row
}

// Len returns the number of rows
func (p *Panel) Len() int {
	return len(p.Rows)
}

// Shape returns rows × columns
func (p *Panel) Shape() (int, int) {
	return len(p.Rows), len(p.Columns)
}

// ShapeString formats the shape as "R × C"
func (p *Panel) ShapeString() string {
	r, c := p.Shape()
	return fmt.Sprintf("%d × %d", r, c)
}

// HasColumn reports whether col is part of the panel
func (p *Panel) HasColumn(col string) bool {
	for _, c := range p.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// NumericColumns returns every non-identity column in panel order
func (p *Panel) NumericColumns() []string {
	var cols []string
	for _, c := range p.Columns {
		if !IsIdentityColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Years returns the distinct years present, ascending
func (p *Panel) Years() []int {
	seen := make(map[int]struct{})
	var years []int
	for _, r := range p.Rows {
		if _, ok := seen[r.Year]; !ok {
			seen[r.Year] = struct{}{}
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

func (p *Panel) cell(r *Row, col string) string {
	switch col {
	case sources.ColCountryCode:
		return r.CountryCode
	case sources.ColCountryName:
		return r.Class.CountryName
	case sources.ColRegion:
		return r.Class.Region
	case sources.ColIncomeGroup:
		return r.Class.IncomeGroup
	case sources.ColYear:
		return strconv.Itoa(r.Year)
	}
	return r.Values[col].String()
}

// Records encodes every row in column order
func (p *Panel) Records() [][]string {
	out := make([][]string, len(p.Rows))
	for i, r := range p.Rows {
		rec := make([]string, len(p.Columns))
		for j, col := range p.Columns {
			rec[j] = p.cell(r, col)
		}
		out[i] = rec
	}
	return out
}

// ReadPanel parses a persisted master panel
func ReadPanel(path string) (*Panel, error) {
	t, err := dp.ReadCSV("panel", path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(sources.ColCountryCode, sources.ColYear); err != nil {
		return nil, err
	}

	p := &Panel{Columns: append([]string{}, t.Header...)}
	numeric := p.NumericColumns()

	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, sources.ColYear))
		if !ok {
			continue
		}
		row := &Row{
			CountryCode: t.Value(r, sources.ColCountryCode),
			Year:        year,
			Class: sources.Classification{
				CountryCode: t.Value(r, sources.ColCountryCode),
				CountryName: t.Value(r, sources.ColCountryName),
				Region:      t.Value(r, sources.ColRegion),
				IncomeGroup: t.Value(r, sources.ColIncomeGroup),
			},
			Values: make(map[string]dp.Cell, len(numeric)),
		}
		for _, col := range numeric {
			if c := dp.ParseCell(t.Value(r, col)); c.Valid {
				row.Values[col] = c
			}
		}
		p.Rows = append(p.Rows, row)
	}

	return p, nil
}
