package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	dp "govpanel/internal/dataprocessing"
)

func testClassifications() *Classifications {
	return NewClassifications([]Classification{
		{CountryCode: "USA", CountryName: "United States", Region: "North America", IncomeGroup: "High income"},
		{CountryCode: "FRA", CountryName: "France", Region: "Europe & Central Asia", IncomeGroup: "High income"},
	})
}

// writeWorkbook writes rows to the first sheet of a new workbook
func writeWorkbook(t *testing.T, name string, rows [][]any) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func table(source string, rows ...[]string) *dp.Table {
	return dp.NewTable(source, rows[0], rows[1:])
}
