package sources

import (
	"log/slog"
	"regexp"
	"sort"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
)

// WDI source columns
const (
	WDICountryName = "Country Name"
	WDICountryCode = "Country Code"
	WDISeriesName  = "Series Name"
	WDISeriesCode  = "Series Code"
)

// WDIGDPPerCapitaPPP is the PPP GDP per capita series code
const WDIGDPPerCapitaPPP = "NY.GDP.PCAP.PP.KD"

// wdiAggregateCodes are regional and income-group pseudo-countries
var wdiAggregateCodes = map[string]struct{}{
	"AFE": {}, "AFW": {}, "ARB": {}, "CEB": {}, "CSS": {}, "EAS": {}, "EAP": {}, "ECA": {}, "EMU": {}, "EUU": {},
	"FCS": {}, "HIC": {}, "HPC": {}, "IBD": {}, "IBT": {}, "IDA": {}, "IDX": {}, "LCN": {}, "LDC": {}, "LIC": {},
	"LMC": {}, "LMY": {}, "MEA": {}, "MIC": {}, "NAC": {}, "OED": {}, "OSS": {}, "PRE": {}, "PSS": {}, "SAS": {},
	"SSA": {}, "SSF": {}, "UMC": {}, "WLD": {},
}

var (
	wdiYearHeader = regexp.MustCompile(`^(\d{4}) \[YR\d{4}\]$`)
	bareYear      = regexp.MustCompile(`^\d{4}$`)
)

var wdiIDColumns = []string{WDICountryName, WDICountryCode, WDISeriesName, WDISeriesCode}

// WDIHeader is the column layout of cleaned_wdi.csv
var WDIHeader = []string{
	WDICountryName, WDICountryCode, WDISeriesName, WDISeriesCode, ColYear, ColValue,
	ColCountryCode, ColCountryName, ColRegion, ColIncomeGroup,
}

// IsWDIAggregate reports whether code is a WDI aggregate rather than a country
func IsWDIAggregate(code string) bool {
	_, ok := wdiAggregateCodes[code]
	return ok
}

// WDIRecord is one country × series × year observation
type WDIRecord struct {
	CountryName string
	CountryCode string
	SeriesName  string
	SeriesCode  string
	Year        int
	Value       float64

	// Class is the joined classification; empty on a join miss
	Class Classification
}

// Record encodes the row in WDIHeader order
func (r WDIRecord) Record() []string {
	return append([]string{
		r.CountryName, r.CountryCode, r.SeriesName, r.SeriesCode,
		formatYear(r.Year), exporter.FormatFloat(r.Value),
	}, r.Class.Fields()...)
}

// CleanWDI reads the WDI export and produces long country × series × year rows
func CleanWDI(path string, class *Classifications) (*Result[WDIRecord], error) {
	t, err := dp.ReadCSV(SourceWDI, path)
	if err != nil {
		return nil, err
	}
	return cleanWDITable(t, class)
}

func cleanWDITable(t *dp.Table, class *Classifications) (*Result[WDIRecord], error) {
	res := newResult[WDIRecord](SourceWDI, WDIHeader)
	res.Stats.Read = t.Len()

	if err := t.Require(wdiIDColumns...); err != nil {
		return nil, err
	}

	aggregates := t.Filter(func(r int) bool {
		return !IsWDIAggregate(t.Value(r, WDICountryCode))
	})
	res.Stats.Drop(dp.ReasonAggregateCode, aggregates)

	t.RenameFunc(func(h string) string {
		if m := wdiYearHeader.FindStringSubmatch(h); m != nil {
			return m[1]
		}
		return h
	})

	var yearCols []string
	for _, h := range t.Header {
		if bareYear.MatchString(h) {
			yearCols = append(yearCols, h)
		}
	}

	long := dp.Melt(t, wdiIDColumns, yearCols)
	codes := make([]string, 0, len(long))
	for _, lr := range long {
		year, ok := dp.ParseYear(lr.Variable)
		if !ok {
			res.Stats.Drop(dp.ReasonYearUnparseable, 1)
			continue
		}
		value, ok := dp.ParseValue(lr.Raw)
		if !ok {
			res.Stats.Drop(dp.ReasonValueMissing, 1)
			continue
		}
		if !dp.InYearRange(year) {
			res.Stats.Drop(dp.ReasonYearOutOfRange, 1)
			continue
		}

		code := trim(lr.ID[1])
		codes = append(codes, code)
		res.Rows = append(res.Rows, WDIRecord{
			CountryName: trim(lr.ID[0]),
			CountryCode: code,
			SeriesName:  trim(lr.ID[2]),
			SeriesCode:  trim(lr.ID[3]),
			Year:        year,
			Value:       value,
			Class:       class.Join(code),
		})
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.CountryCode != b.CountryCode {
			return a.CountryCode < b.CountryCode
		}
		if a.SeriesCode != b.SeriesCode {
			return a.SeriesCode < b.SeriesCode
		}
		return a.Year < b.Year
	})

	res.Stats.Kept = len(res.Rows)
	countUnmatched(SourceWDI, class, codes)

	slog.Info("WDI cleaned",
		slog.Int("source_rows", res.Stats.Read),
		slog.Int("year_columns", len(yearCols)),
		slog.Int("observations", res.Stats.Kept),
		slog.Int("dropped", res.Stats.TotalDropped()))

	return res, nil
}

// ReadCleanedWDI parses a persisted cleaned_wdi.csv
func ReadCleanedWDI(path string) ([]WDIRecord, error) {
	t, err := dp.ReadCSV(SourceWDI, path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(WDIHeader...); err != nil {
		return nil, err
	}

	rows := make([]WDIRecord, 0, t.Len())
	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			continue
		}
		value, ok := dp.ParseValue(t.Value(r, ColValue))
		if !ok {
			continue
		}
		rows = append(rows, WDIRecord{
			CountryName: t.Value(r, WDICountryName),
			CountryCode: t.Value(r, WDICountryCode),
			SeriesName:  t.Value(r, WDISeriesName),
			SeriesCode:  t.Value(r, WDISeriesCode),
			Year:        year,
			Value:       value,
			Class:       classFromTable(t, r),
		})
	}
	return rows, nil
}
