// Package electiondate converts MM/DD/YYYY date text into comparable
// YYYYMMDD integers and derives ages from them.
package electiondate

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "turnoutcli/internal/errors"
)

// Age is a voter's age at a reference date. Whole for non-negative
// differences; signed and fractional when the birth date is after the
// reference date.
type Age float64

// String renders whole ages without a decimal part.
func (a Age) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// ToComparable converts "MM/DD/YYYY" to YYYYMMDD so dates compare as integers.
func ToComparable(date string) (int, error) {
	tokens := strings.Split(strings.TrimSpace(date), "/")
	if len(tokens) != 3 {
		return 0, apperrors.NewFormatError(
			fmt.Sprintf("date %q is not MM/DD/YYYY", date), nil)
	}

	parts := make([]int, 3)
	for i, tok := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return 0, apperrors.NewFormatError(
				fmt.Sprintf("date %q has a non-numeric field", date), err)
		}
		parts[i] = n
	}

	month, day, year := parts[0], parts[1], parts[2]
	return year*10000 + month*100 + day, nil
}

// ComputeAge returns the age at reference for someone born at birth.
// Non-negative differences truncate to whole years; a negative difference
// keeps its sign and fraction.
func ComputeAge(birth, reference int) Age {
	diff := reference - birth
	if diff < 0 {
		return Age(float64(diff) / 10000.0)
	}
	return Age(diff / 10000)
}
