package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
	"govpanel/internal/panel"
	"govpanel/internal/sources"
)

// TrendColumns are averaged per region and year
var TrendColumns = []string{
	sources.ColGovernmentEffectiveness,
	sources.ColControlOfCorruption,
	sources.ColRegulatoryQuality,
	sources.ColRuleOfLaw,
	sources.ColPoliticalStability,
	sources.ColVoiceAndAccountability,
	sources.ColPublicShare,
}

// TrendRow holds the region × year means; Means is aligned with TrendColumns
type TrendRow struct {
	Region string
	Year   int
	Means  []dp.Cell
}

// Record encodes the row for region_trends.csv
func (r TrendRow) Record() []string {
	out := []string{r.Region, exporter.FormatInt(r.Year)}
	for _, m := range r.Means {
		out = append(out, m.String())
	}
	return out
}

// TrendHeader is the layout of region_trends.csv
func TrendHeader() []string {
	return append([]string{sources.ColRegion, sources.ColYear}, TrendColumns...)
}

// Mean returns the mean of column col for the row
func (r TrendRow) Mean(col string) dp.Cell {
	for i, c := range TrendColumns {
		if c == col {
			return r.Means[i]
		}
	}
	return dp.Missing
}

type regionYear struct {
	region string
	year   int
}

// RegionTrends averages the trend columns per region and year.
// Rows without a region are left out; missing values are skipped.
func RegionTrends(p *panel.Panel) []TrendRow {
	groups := make(map[regionYear][][]float64)
	for _, r := range p.Rows {
		if r.Class.Region == "" {
			continue
		}
		k := regionYear{r.Class.Region, r.Year}
		vals, ok := groups[k]
		if !ok {
			vals = make([][]float64, len(TrendColumns))
			groups[k] = vals
		}
		for i, col := range TrendColumns {
			if c := r.Get(col); c.Valid {
				vals[i] = append(vals[i], c.Value)
			}
		}
	}

	out := make([]TrendRow, 0, len(groups))
	for k, vals := range groups {
		row := TrendRow{Region: k.region, Year: k.year, Means: make([]dp.Cell, len(TrendColumns))}
		for i, v := range vals {
			if len(v) > 0 {
				row.Means[i] = dp.Some(stat.Mean(v, nil))
			}
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Year < out[j].Year
	})

	return out
}

// Regions returns the distinct regions of the trend rows, sorted
func Regions(trends []TrendRow) []string {
	var regions []string
	for i, t := range trends {
		if i == 0 || t.Region != trends[i-1].Region {
			regions = append(regions, t.Region)
		}
	}
	return regions
}
