package exporter

import (
	"strconv"
)

// FormatFloat formats with the shortest representation that round-trips
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatInt formats an integer for CSV output
func FormatInt(i int) string {
	return strconv.Itoa(i)
}
