// Package sources loads the classification table and cleans the four raw
// statistical sources into long or wide country × year tables.
//
// Each cleaner takes the path of its raw file and the shared classification
// table, and returns a Result: typed rows ready for CSV export plus the
// DropStats of everything it discarded. Structural problems (unreadable
// file, missing expected column) are returned as errors; bad cells never
// are. Every cleaned table has a reader (ReadCleanedWDI, ...) used by the
// panel builder, which only ever sees the persisted files.
package sources
