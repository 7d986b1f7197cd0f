package sources

import (
	"strings"

	dp "govpanel/internal/dataprocessing"
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

// classFromTable reads the joined classification columns of row r
func classFromTable(t *dp.Table, r int) Classification {
	return Classification{
		CountryCode: t.Value(r, ColCountryCode),
		CountryName: t.Value(r, ColCountryName),
		Region:      t.Value(r, ColRegion),
		IncomeGroup: t.Value(r, ColIncomeGroup),
	}
}
