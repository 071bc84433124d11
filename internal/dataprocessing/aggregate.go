package dataprocessing

import (
	"context"
	"log/slog"

	apperrors "turnoutcli/internal/errors"
)

// FoldVoters counts every voter in the table by county and age
func FoldVoters(voters VoterTable) CountyAgeCounts {
	counts := make(CountyAgeCounts)
	for _, v := range voters {
		counts.Add(v.County, v.Age)
	}
	return counts
}

// FoldVotes counts each vote by its voter's county and age. Votes whose ID
// is not in the table are logged and left out; the second return value is
// how many were dropped.
func FoldVotes(ctx context.Context, votes VoteSet, voters VoterTable, logger *slog.Logger) (CountyAgeCounts, int) {
	counts := make(CountyAgeCounts)
	unmatched := 0
	for id := range votes {
		v, ok := voters[id]
		if !ok {
			unmatched++
			logger.WarnContext(ctx, "Skipping vote", slog.String("error", apperrors.NewReferentialMiss(id).Error()))
			continue
		}
		counts.Add(v.County, v.Age)
	}

	if unmatched > 0 {
		logger.WarnContext(ctx, "Votes without a matching voter",
			slog.Int("unmatched", unmatched),
			slog.Int("votes", len(votes)))
	}
	return counts, unmatched
}
