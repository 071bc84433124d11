package electiondate

import (
	"fmt"
	"sort"

	apperrors "turnoutcli/internal/errors"
)

// presidentialDays maps a US presidential election year to its November day.
var presidentialDays = map[int]int{
	2020: 3,
	2016: 8,
	2012: 6,
	2008: 4,
	2004: 2,
	2000: 7,
	1996: 5,
}

// Election identifies the target election in both representations used by
// the inputs: the literal text matched against vote history, and the
// comparable integer used for ages and registration cutoffs.
type Election struct {
	Text       string
	Comparable int
	Year       int
}

// NewElection builds an Election from MM/DD/YYYY text.
func NewElection(text string) (Election, error) {
	n, err := ToComparable(text)
	if err != nil {
		return Election{}, err
	}
	return Election{Text: text, Comparable: n, Year: n / 10000}, nil
}

// Presidential returns the general election held in year.
func Presidential(year int) (Election, error) {
	day, ok := presidentialDays[year]
	if !ok {
		return Election{}, apperrors.NewConfigError(
			fmt.Sprintf("no presidential election date known for %d", year), nil).
			WithContext("known_years", PresidentialYears())
	}
	return NewElection(fmt.Sprintf("11/%02d/%d", day, year))
}

// IsPresidentialYear reports whether year has a known election date.
func IsPresidentialYear(year int) bool {
	_, ok := presidentialDays[year]
	return ok
}

// PresidentialYears lists the supported years in ascending order.
func PresidentialYears() []int {
	years := make([]int, 0, len(presidentialDays))
	for y := range presidentialDays {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// AgeAt returns the age at this election for a comparable birth date.
func (e Election) AgeAt(birth int) Age {
	return ComputeAge(birth, e.Comparable)
}
