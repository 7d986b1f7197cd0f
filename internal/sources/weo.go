package sources

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
)

// WEO source columns
const (
	WEOISO               = "ISO"
	WEOCountry           = "Country"
	WEOSubjectCode       = "WEO Subject Code"
	WEOSubjectDescriptor = "Subject Descriptor"
	WEOUnits             = "Units"
)

// WEOGDPPerCapita is the only WEO subject kept: GDP per capita, current prices
const WEOGDPPerCapita = "NGDPDPC"

var weoIDColumns = []string{WEOISO, WEOCountry, WEOSubjectCode, WEOSubjectDescriptor, WEOUnits}

// WEOHeader is the column layout of cleaned_weo.csv
var WEOHeader = []string{
	ColCountryCode, WEOCountry, WEOSubjectCode, WEOSubjectDescriptor, WEOUnits, ColYear, ColValue,
	ColCountryName, ColRegion, ColIncomeGroup,
}

// WEORecord is one country × subject × year observation
type WEORecord struct {
	CountryCode       string
	Country           string
	SubjectCode       string
	SubjectDescriptor string
	Units             string
	Year              int
	Value             float64

	Class Classification
}

// Record encodes the row in WEOHeader order
func (r WEORecord) Record() []string {
	return []string{
		r.CountryCode, r.Country, r.SubjectCode, r.SubjectDescriptor, r.Units,
		formatYear(r.Year), exporter.FormatFloat(r.Value),
		r.Class.CountryName, r.Class.Region, r.Class.IncomeGroup,
	}
}

// weoHeader trims a header and drops the ".0" float artefact of year columns
func weoHeader(h string) string {
	return strings.TrimSuffix(strings.TrimSpace(h), ".0")
}

// CleanWEO reads the WEO workbook and keeps GDP per capita observations
func CleanWEO(path string, class *Classifications) (*Result[WEORecord], error) {
	t, err := dp.ReadExcel(SourceWEO, path)
	if err != nil {
		return nil, err
	}
	return cleanWEOTable(t, class)
}

func cleanWEOTable(t *dp.Table, class *Classifications) (*Result[WEORecord], error) {
	res := newResult[WEORecord](SourceWEO, WEOHeader)
	res.Stats.Read = t.Len()

	t.RenameFunc(weoHeader)
	if err := t.Require(weoIDColumns...); err != nil {
		return nil, err
	}

	var yearCols []string
	for y := dp.MinYear; y <= dp.MaxYear; y++ {
		if col := strconv.Itoa(y); t.Has(col) {
			yearCols = append(yearCols, col)
		}
	}

	long := dp.Melt(t, weoIDColumns, yearCols)
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
		subject := trim(lr.ID[2])
		if subject != WEOGDPPerCapita {
			res.Stats.Drop(dp.ReasonSubjectExcluded, 1)
			continue
		}

		code := trim(lr.ID[0])
		codes = append(codes, code)
		res.Rows = append(res.Rows, WEORecord{
			CountryCode:       code,
			Country:           trim(lr.ID[1]),
			SubjectCode:       subject,
			SubjectDescriptor: trim(lr.ID[3]),
			Units:             trim(lr.ID[4]),
			Year:              year,
			Value:             value,
			Class:             class.Join(code),
		})
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.CountryCode != b.CountryCode {
			return a.CountryCode < b.CountryCode
		}
		if a.SubjectCode != b.SubjectCode {
			return a.SubjectCode < b.SubjectCode
		}
		return a.Year < b.Year
	})

	res.Stats.Kept = len(res.Rows)
	countUnmatched(SourceWEO, class, codes)

	slog.Info("WEO cleaned",
		slog.Int("source_rows", res.Stats.Read),
		slog.Int("year_columns", len(yearCols)),
		slog.Int("observations", res.Stats.Kept),
		slog.Int("dropped", res.Stats.TotalDropped()))

	return res, nil
}

// ReadCleanedWEO parses a persisted cleaned_weo.csv
func ReadCleanedWEO(path string) ([]WEORecord, error) {
	t, err := dp.ReadCSV(SourceWEO, path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ColCountryCode, WEOSubjectCode, ColYear, ColValue); err != nil {
		return nil, err
	}

	rows := make([]WEORecord, 0, t.Len())
	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			continue
		}
		value, ok := dp.ParseValue(t.Value(r, ColValue))
		if !ok {
			continue
		}
		code := t.Value(r, ColCountryCode)
		rows = append(rows, WEORecord{
			CountryCode:       code,
			Country:           t.Value(r, WEOCountry),
			SubjectCode:       t.Value(r, WEOSubjectCode),
			SubjectDescriptor: t.Value(r, WEOSubjectDescriptor),
			Units:             t.Value(r, WEOUnits),
			Year:              year,
			Value:             value,
			Class: Classification{
				CountryCode: code,
				CountryName: t.Value(r, ColCountryName),
				Region:      t.Value(r, ColRegion),
				IncomeGroup: t.Value(r, ColIncomeGroup),
			},
		})
	}
	return rows, nil
}
