package turnout

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
)

// DefaultMinSample is the default MinSample
const DefaultMinSample = 40

// Options controls SeriesForCounty
type Options struct {
	// Ages with MinSample or fewer registered voters are left out of the
	// series. They still count toward the overall turnout.
	MinSample int
	// Normalize divides every ratio by the county's overall turnout.
	Normalize bool
}

// Point is one age on a turnout line
type Point struct {
	Age   electiondate.Age `json:"age"`
	Ratio float64          `json:"ratio"`
}

// Series is the turnout line for one county
type Series struct {
	County string  `json:"county"`
	Points []Point `json:"points"`
	// TotalRegistered counts voters at every age that has both voters
	// and votes, suppressed ages included.
	TotalRegistered int `json:"total_registered"`
	TotalVotes      int `json:"total_votes"`
	// OverallTurnout is TotalVotes / TotalRegistered, or 0 when no age
	// qualified.
	OverallTurnout float64 `json:"overall_turnout"`
	Suppressed     int     `json:"suppressed"`
}

// SeriesForCounty computes votes/voters for each age present in both maps,
// ascending by age, hiding ages at or below opts.MinSample. An empty
// intersection yields an empty series. A zero voter count at an age with
// votes, or a zero overall turnout when normalizing, is a ComputationError.
func SeriesForCounty(ctx context.Context, logger *slog.Logger, county string, voters, votes map[electiondate.Age]int, opts Options) (Series, error) {
	series := Series{County: county, Points: []Point{}}

	eligible := make([]electiondate.Age, 0, len(voters))
	for age := range voters {
		if _, ok := votes[age]; ok {
			eligible = append(eligible, age)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i] < eligible[j] })

	for _, age := range eligible {
		if voters[age] == 0 {
			return Series{}, apperrors.NewComputationError(
				fmt.Sprintf("county %s has votes but no registered voters at age %s", county, age)).
				WithContext("county", county)
		}
		series.TotalRegistered += voters[age]
		series.TotalVotes += votes[age]
	}

	logger.InfoContext(ctx, "County totals",
		slog.String("county", county),
		slog.Int("registered", series.TotalRegistered),
		slog.Int("votes", series.TotalVotes),
		slog.Int("ages", len(eligible)))

	if len(eligible) == 0 {
		return series, nil
	}

	series.OverallTurnout = float64(series.TotalVotes) / float64(series.TotalRegistered)
	if opts.Normalize && series.OverallTurnout == 0 {
		return Series{}, apperrors.NewComputationError(
			fmt.Sprintf("county %s has zero overall turnout, cannot normalize", county)).
			WithContext("county", county)
	}

	for _, age := range eligible {
		if voters[age] <= opts.MinSample {
			series.Suppressed++
			continue
		}

		ratio := float64(votes[age]) / float64(voters[age])
		if opts.Normalize {
			ratio /= series.OverallTurnout
		}
		series.Points = append(series.Points, Point{Age: age, Ratio: ratio})
	}

	logger.DebugContext(ctx, "Series computed",
		slog.String("county", county),
		slog.Int("points", len(series.Points)),
		slog.Int("suppressed", series.Suppressed))

	return series, nil
}
