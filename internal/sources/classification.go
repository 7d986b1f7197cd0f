package sources

import (
	"log/slog"

	dp "govpanel/internal/dataprocessing"
	perrors "govpanel/internal/errors"
)

// classificationColumns maps source headers to canonical names
var classificationColumns = []struct{ from, to string }{
	{"Code", ColCountryCode},
	{"Economy", ColCountryName},
	{"Region", ColRegion},
	{"Income group", ColIncomeGroup},
}

// LoadClassifications reads the classification workbook.
// A missing source header fails with a load error wrapping the schema error.
func LoadClassifications(path string) (*Classifications, error) {
	t, err := dp.ReadExcel(SourceClassification, path)
	if err != nil {
		return nil, err
	}

	return classificationsFromTable(path, t)
}

func classificationsFromTable(path string, t *dp.Table) (*Classifications, error) {
	mapping := make(map[string]string, len(classificationColumns))
	for _, c := range classificationColumns {
		if err := t.Require(c.from); err != nil {
			return nil, perrors.NewLoadError(SourceClassification, path, err)
		}
		mapping[c.from] = c.to
	}
	t.Rename(mapping)

	rows := make([]Classification, 0, t.Len())
	for r := range t.Rows {
		rows = append(rows, Classification{
			CountryCode: t.Value(r, ColCountryCode),
			CountryName: t.Value(r, ColCountryName),
			Region:      t.Value(r, ColRegion),
			IncomeGroup: t.Value(r, ColIncomeGroup),
		})
	}

	class := NewClassifications(rows)

	slog.Info("Classification table loaded",
		slog.String("path", path),
		slog.Int("rows", class.Len()))

	return class, nil
}
