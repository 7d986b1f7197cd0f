// Package dataprocessing holds the tabular primitives shared by every
// source cleaner and the panel builder.
//
// # Components
//
//  1. Table: a raw header + string rows relation loaded from CSV or from the
//     first sheet of a workbook (excelize, raw cell values).
//  2. Coercion: ParseValue / ParseYear implement parse-or-discard; callers
//     record every discarded row in a DropStats under a reason.
//  3. Reshaping: Melt (wide year columns to long rows) and PivotFirst
//     (long rows to one column per category, first non-missing value wins).
//
// # Data Flow
//
//	Raw file → Table → Melt → parse/filter → Observations → PivotFirst → Wide
//
// Missing numeric values are explicit Cells; a NaN never leaves this package.
package dataprocessing
