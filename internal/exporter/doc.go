// Package exporter writes the pipeline's tables as CSV.
//
// CSVWriter replaces whole files (write to a temp file, then rename) and
// StreamWriter writes row by row for tables built incrementally. Output is
// deterministic: records in the order given, floats in their shortest
// round-trip form. Paths are taken as given.
//
// Example usage:
//
//	w := exporter.NewCSVWriter()
//	err := w.WriteSimpleCSV(paths.CleanedWDI, sources.WDIHeader, exporter.Records(rows))
package exporter
