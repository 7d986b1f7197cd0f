package dataprocessing

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Inclusive year range every cleaned table is restricted to
const (
	MinYear = 2000
	MaxYear = 2019
)

// Drop reasons recorded in DropStats
const (
	ReasonYearUnparseable  = "year_unparseable"
	ReasonValueMissing     = "value_missing"
	ReasonYearOutOfRange   = "year_out_of_range"
	ReasonAggregateCode    = "aggregate_code"
	ReasonSectorExcluded   = "sector_excluded"
	ReasonSubjectExcluded  = "subject_excluded"
	ReasonIndicatorMissing = "indicator_missing"
	ReasonShareInvalid     = "share_invalid"
)

// missingTokens are placeholders upstream providers use for "no data"
var missingTokens = map[string]struct{}{
	"":     {},
	"..":   {},
	"...":  {},
	"-":    {},
	"--":   {},
	"n/a":  {},
	"na":   {},
	"nan":  {},
	"null": {},
	"#n/a": {},
}

// Cell is a numeric value that may be missing
type Cell struct {
	Value float64
	Valid bool
}

// Missing is the empty cell
var Missing = Cell{}

// Some wraps a value; NaN is treated as missing
func Some(v float64) Cell {
	if math.IsNaN(v) {
		return Missing
	}
	return Cell{Value: v, Valid: true}
}

// String formats the cell for CSV output; missing cells are empty
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// ParseCell parses a persisted cell back
func ParseCell(raw string) Cell {
	if v, ok := ParseValue(raw); ok {
		return Some(v)
	}
	return Missing
}

// ParseValue is the parse-or-discard numeric combinator.
// Placeholders and any text strconv cannot read yield ok=false.
func ParseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseYear reads an integer year; "2005" and "2005.0" are both accepted
func ParseYear(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// InYearRange reports whether y lies in [MinYear, MaxYear]
func InYearRange(y int) bool {
	return y >= MinYear && y <= MaxYear
}

// DropStats counts what a stage read, kept and discarded
type DropStats struct {
	Stage   string         `json:"stage"`
	Read    int            `json:"read"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped,omitempty"`
}

// NewDropStats creates empty stats for a stage
func NewDropStats(stage string) *DropStats {
	return &DropStats{Stage: stage, Dropped: make(map[string]int)}
}

// Drop records n discarded rows under reason
func (d *DropStats) Drop(reason string, n int) {
	if n <= 0 {
		return
	}
	d.Dropped[reason] += n
}

// TotalDropped sums all drop reasons
func (d *DropStats) TotalDropped() int {
	total := 0
	for _, n := range d.Dropped {
		total += n
	}
	return total
}

// Reasons returns the drop reasons in sorted order
func (d *DropStats) Reasons() []string {
	reasons := make([]string, 0, len(d.Dropped))
	for r := range d.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}
