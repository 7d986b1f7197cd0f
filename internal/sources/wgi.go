package sources

import (
	"log/slog"
	"strings"

	dp "govpanel/internal/dataprocessing"
)

// Governance indicator columns after the pivot
const (
	ColControlOfCorruption     = "Control_of_Corruption"
	ColGovernmentEffectiveness = "Government_Effectiveness"
	ColPoliticalStability      = "Political_Stability"
	ColRuleOfLaw               = "Rule_Of_Law"
	ColRegulatoryQuality       = "Regulatory_Quality"
	ColVoiceAndAccountability  = "Voice_and_Accountability"
)

// ColIndicator holds the normalized WGI indicator code before the pivot
const ColIndicator = "Indicator"

// WGIIndicators maps the six WGI codes to their column names.
// Other codes are kept as extra columns under their own code.
var WGIIndicators = map[string]string{
	"CC": ColControlOfCorruption,
	"GE": ColGovernmentEffectiveness,
	"PV": ColPoliticalStability,
	"RL": ColRuleOfLaw,
	"RQ": ColRegulatoryQuality,
	"VA": ColVoiceAndAccountability,
}

var wgiSourceColumns = map[string]string{
	"code":        ColCountryCode,
	"countryname": ColCountryName,
	"year":        ColYear,
	"indicator":   ColIndicator,
	"estimate":    ColValue,
}

var wgiRequired = []string{"code", "countryname", "year", "indicator", "estimate"}

var wgiIDColumns = []string{ColCountryCode, ColCountryName, ColYear, ColRegion, ColIncomeGroup}

// WGIRecord is one country × year row with one value per indicator column
type WGIRecord struct {
	CountryCode string
	Year        int
	Class       Classification
	Values      []dp.Cell
}

// Record encodes the row: id columns, then indicator values
func (r WGIRecord) Record() []string {
	out := []string{r.CountryCode, r.Class.CountryName, formatYear(r.Year), r.Class.Region, r.Class.IncomeGroup}
	for _, v := range r.Values {
		out = append(out, v.String())
	}
	return out
}

// WGIHeader returns the cleaned_wgi.csv layout for the given indicator columns
func WGIHeader(indicators []string) []string {
	return append(append([]string{}, wgiIDColumns...), indicators...)
}

// NormalizeIndicator upper-cases and trims an indicator code
func NormalizeIndicator(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CleanWGI reads the WGI workbook and pivots it to one row per country and year.
// The source country name is discarded so the classification name wins.
func CleanWGI(path string, class *Classifications) (*Result[WGIRecord], error) {
	t, err := dp.ReadExcel(SourceWGI, path)
	if err != nil {
		return nil, err
	}
	return cleanWGITable(t, class)
}

func cleanWGITable(t *dp.Table, class *Classifications) (*Result[WGIRecord], error) {
	if err := t.Require(wgiRequired...); err != nil {
		return nil, err
	}
	t.Rename(wgiSourceColumns)

	stats := dp.NewDropStats(SourceWGI)
	stats.Read = t.Len()

	obs := make([]dp.Observation, 0, t.Len())
	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			stats.Drop(dp.ReasonYearUnparseable, 1)
			continue
		}
		value, ok := dp.ParseValue(t.Value(r, ColValue))
		if !ok {
			stats.Drop(dp.ReasonValueMissing, 1)
			continue
		}
		if !dp.InYearRange(year) {
			stats.Drop(dp.ReasonYearOutOfRange, 1)
			continue
		}
		indicator := NormalizeIndicator(t.Value(r, ColIndicator))
		if indicator == "" {
			stats.Drop(dp.ReasonIndicatorMissing, 1)
			continue
		}

		obs = append(obs, dp.Observation{
			Key:    dp.Key{Code: t.Value(r, ColCountryCode), Year: year},
			Column: indicator,
			Value:  dp.Some(value),
		})
	}

	wide := dp.PivotFirst(obs)
	wide.SortKeys()
	for code, name := range WGIIndicators {
		wide.RenameColumn(code, name)
	}

	res := newResult[WGIRecord](SourceWGI, WGIHeader(wide.Columns))
	res.Stats = stats

	codes := make([]string, 0, wide.Len())
	for _, k := range wide.Keys {
		values := make([]dp.Cell, len(wide.Columns))
		for i, col := range wide.Columns {
			values[i] = wide.Get(k, col)
		}
		codes = append(codes, k.Code)
		res.Rows = append(res.Rows, WGIRecord{
			CountryCode: k.Code,
			Year:        k.Year,
			Class:       class.Join(k.Code),
			Values:      values,
		})
	}

	stats.Kept = len(res.Rows)
	countUnmatched(SourceWGI, class, codes)

	slog.Info("WGI cleaned",
		slog.Int("source_rows", stats.Read),
		slog.Int("observations", len(obs)),
		slog.Int("country_years", stats.Kept),
		slog.Any("indicators", wide.Columns),
		slog.Int("dropped", stats.TotalDropped()))

	return res, nil
}

// ReadCleanedWGI parses a persisted cleaned_wgi.csv.
// Every column after the id columns is an indicator.
func ReadCleanedWGI(path string) ([]string, []WGIRecord, error) {
	t, err := dp.ReadCSV(SourceWGI, path)
	if err != nil {
		return nil, nil, err
	}
	if err := t.Require(wgiIDColumns...); err != nil {
		return nil, nil, err
	}

	var indicators []string
	for _, h := range t.Header {
		if !isWGIIDColumn(h) {
			indicators = append(indicators, h)
		}
	}

	rows := make([]WGIRecord, 0, t.Len())
	for r := range t.Rows {
		year, ok := dp.ParseYear(t.Value(r, ColYear))
		if !ok {
			continue
		}
		values := make([]dp.Cell, len(indicators))
		for i, col := range indicators {
			values[i] = dp.ParseCell(t.Value(r, col))
		}
		rows = append(rows, WGIRecord{
			CountryCode: t.Value(r, ColCountryCode),
			Year:        year,
			Class:       classFromTable(t, r),
			Values:      values,
		})
	}
	return indicators, rows, nil
}

func isWGIIDColumn(h string) bool {
	for _, c := range wgiIDColumns {
		if c == h {
			return true
		}
	}
	return false
}
