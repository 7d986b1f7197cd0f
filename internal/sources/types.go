package sources

import (
	"log/slog"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
)

// Canonical column names shared by every cleaned table
const (
	ColCountryCode = "Country_Code"
	ColCountryName = "Country_Name"
	ColRegion      = "Region"
	ColIncomeGroup = "Income_Group"
	ColYear        = "Year"
	ColValue       = "Value"
)

// Source names used in errors, logs and drop statistics
const (
	SourceClassification = "classification"
	SourceWDI            = "wdi"
	SourceWEO            = "weo"
	SourceWGI            = "wgi"
	SourceILO            = "ilo"
)

// Classification is one economy of the classification table
type Classification struct {
	CountryCode string
	CountryName string
	Region      string
	IncomeGroup string
}

// Fields returns the four classification values in column order
func (c Classification) Fields() []string {
	return []string{c.CountryCode, c.CountryName, c.Region, c.IncomeGroup}
}

// Classifications is the read-only classification table indexed by code
type Classifications struct {
	Rows []Classification

	index map[string]int
}

// NewClassifications indexes rows by country code.
// When a code repeats the first row wins.
func NewClassifications(rows []Classification) *Classifications {
	c := &Classifications{
		Rows:  rows,
		index: make(map[string]int, len(rows)),
	}

	for i, row := range rows {
		if row.CountryCode == "" {
			continue
		}
		if _, dup := c.index[row.CountryCode]; dup {
			slog.Warn("Duplicate classification code, keeping first",
				slog.String("country_code", row.CountryCode),
				slog.Int("row", i))
			continue
		}
		c.index[row.CountryCode] = i
	}

	return c
}

// Len returns the number of rows
func (c *Classifications) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rows)
}

// Lookup finds the classification for a country code
func (c *Classifications) Lookup(code string) (Classification, bool) {
	if c == nil || code == "" {
		return Classification{}, false
	}
	i, ok := c.index[code]
	if !ok {
		return Classification{}, false
	}
	return c.Rows[i], true
}

// Join is a left join: unknown codes get empty classification fields
func (c *Classifications) Join(code string) Classification {
	cls, _ := c.Lookup(code)
	return cls
}

// Result is the output of a cleaner: typed rows plus what was discarded
type Result[T exporter.Record] struct {
	Header []string
	Rows   []T
	Stats  *dp.DropStats
}

// Records encodes the rows for CSV output
func (r *Result[T]) Records() [][]string {
	return exporter.Records(r.Rows)
}

func newResult[T exporter.Record](source string, header []string) *Result[T] {
	return &Result[T]{
		Header: header,
		Stats:  dp.NewDropStats(source),
	}
}

func formatYear(y int) string {
	return exporter.FormatInt(y)
}

// countUnmatched logs how many distinct codes found no classification
func countUnmatched(source string, class *Classifications, codes []string) int {
	seen := make(map[string]struct{})
	for _, code := range codes {
		if _, ok := class.Lookup(code); !ok {
			seen[code] = struct{}{}
		}
	}
	if len(seen) > 0 {
		slog.Debug("Codes without classification",
			slog.String("source", source),
			slog.Int("count", len(seen)))
	}
	return len(seen)
}
