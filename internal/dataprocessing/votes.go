package dataprocessing

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	apperrors "turnoutcli/internal/errors"
)

// LoadVotes collects the IDs of voters who voted in the election named by
// electionDate. The election column must match the text exactly; repeated
// IDs collapse.
func LoadVotes(ctx context.Context, rows RowReader, electionDate string, logger *slog.Logger) (VoteSet, LoadStats, error) {
	stats := newLoadStats()
	votes := make(VoteSet)

	if _, err := rows.Next(); err != nil {
		if stderrors.Is(err, io.EOF) {
			return votes, stats, nil
		}
		return nil, stats, err
	}

	for {
		row, err := rows.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Rows++

		if stats.Rows%progressRowStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			logger.DebugContext(ctx, "Loading votes", slog.Int("rows", stats.Rows))
		}

		if len(row) < voteMinColumns {
			return nil, stats, apperrors.NewSchemaError(
				fmt.Sprintf("vote row %d has %d columns, need %d", rows.Line(), len(row), voteMinColumns))
		}

		if row[voteElectionCol] != electionDate {
			continue
		}

		id := row[voteIDCol]
		if votes.Contains(id) {
			stats.Duplicates++
			continue
		}
		votes[id] = struct{}{}
		stats.Loaded++
	}

	logger.InfoContext(ctx, "Votes loaded",
		slog.String("election", electionDate),
		slog.Int("rows", stats.Rows),
		slog.Int("votes", stats.Loaded),
		slog.Int("duplicates", stats.Duplicates))

	return votes, stats, nil
}
