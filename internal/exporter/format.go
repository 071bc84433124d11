package exporter

import (
	"strconv"

	"turnoutcli/internal/electiondate"
)

// formatRatio formats a turnout ratio for CSV output
func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// formatAge formats an age without trailing zeros
func formatAge(a electiondate.Age) string {
	return a.String()
}
