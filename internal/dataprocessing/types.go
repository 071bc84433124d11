package dataprocessing

import (
	"sort"
	"strings"

	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
)

// Column positions in the voter registration file
const (
	voterIDCol           = 0
	voterCountyCol       = 1
	voterBirthDateCol    = 6
	voterRegistrationCol = 7
	voterMinColumns      = voterRegistrationCol + 1
)

// Column positions in the vote history file
const (
	voteIDCol         = 1
	voteElectionCol   = 2
	voteMinColumns    = voteElectionCol + 1
	progressRowStride = 10000
)

// VoterRecord is one registered voter as of the election date
type VoterRecord struct {
	ID         string
	County     string
	Age        electiondate.Age
	Registered bool
}

// VoterTable maps voter ID to record
type VoterTable map[string]VoterRecord

// VoteSet holds the IDs of voters who voted in the election
type VoteSet map[string]struct{}

// Contains reports whether id voted
func (v VoteSet) Contains(id string) bool {
	_, ok := v[id]
	return ok
}

// CountyAgeCounts counts people per county per age
type CountyAgeCounts map[string]map[electiondate.Age]int

// Add increments the count for (county, age)
func (c CountyAgeCounts) Add(county string, age electiondate.Age) {
	ages, ok := c[county]
	if !ok {
		ages = make(map[electiondate.Age]int)
		c[county] = ages
	}
	ages[age]++
}

// Counties returns the county names in ascending order
func (c CountyAgeCounts) Counties() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total sums the counts for county over all ages
func (c CountyAgeCounts) Total(county string) int {
	total := 0
	for _, n := range c[county] {
		total += n
	}
	return total
}

// LoadStats summarizes one load
type LoadStats struct {
	Rows       int            // data rows read, header excluded
	Loaded     int            // rows kept
	Registered int            // voters registered on or before the election
	Duplicates int            // repeated vote rows collapsed
	Skipped    map[string]int // rows skipped, by reason
}

func newLoadStats() LoadStats {
	return LoadStats{Skipped: make(map[string]int)}
}

// skip counts a skipped row under the reason derived from err
func (s *LoadStats) skip(err error) {
	reason := strings.ToLower(string(apperrors.TypeOf(err)))
	if reason == "" {
		reason = "unknown"
	}
	s.Skipped[reason]++
}

// TotalSkipped sums skipped rows over all reasons
func (s LoadStats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
