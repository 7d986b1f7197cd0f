package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	perrors "govpanel/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV loads a comma separated file with a header row
func ReadCSV(source, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.NewLoadError(source, path, err)
	}

	t, err := ParseCSV(source, bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	if err != nil {
		return nil, perrors.NewLoadError(source, path, err)
	}

	slog.Debug("CSV loaded",
		slog.String("source", source),
		slog.String("path", path),
		slog.Int("columns", len(t.Header)),
		slog.Int("rows", t.Len()))

	return t, nil
}

// ParseCSV reads a header row plus records from r
func ParseCSV(source string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	return NewTable(source, records[0], records[1:]), nil
}

// ReadExcel loads the first sheet of a workbook; the first row is the header.
// Raw cell values are used so number formats do not leak into the data.
func ReadExcel(source, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, perrors.NewLoadError(source, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, perrors.NewLoadError(source, path, fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, perrors.NewLoadError(source, path, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err))
	}
	if len(rows) == 0 {
		return nil, perrors.NewLoadError(source, path, fmt.Errorf("sheet %q is empty", sheets[0]))
	}

	t := NewTable(source, rows[0], rows[1:])

	slog.Debug("Workbook loaded",
		slog.String("source", source),
		slog.String("path", path),
		slog.String("sheet", sheets[0]),
		slog.Int("columns", len(t.Header)),
		slog.Int("rows", t.Len()))

	return t, nil
}
