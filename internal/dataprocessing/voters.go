package dataprocessing

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
)

// DefaultMinAge is the voting age used when VoterOptions.MinAge is unset
const DefaultMinAge electiondate.Age = 18

// VoterOptions controls LoadVoters
type VoterOptions struct {
	Election electiondate.Election
	// AdultsOnly drops voters younger than MinAge at the election.
	AdultsOnly bool
	MinAge     electiondate.Age
}

// LoadVoters builds the voter table from a registration file. The header
// row is skipped. Rows with a missing or malformed date, and underage
// voters when AdultsOnly is set, are skipped with a warning. A repeated
// voter ID or a row too short to hold the registration date aborts the
// load.
func LoadVoters(ctx context.Context, rows RowReader, opts VoterOptions, logger *slog.Logger) (VoterTable, LoadStats, error) {
	stats := newLoadStats()
	table := make(VoterTable)
	if opts.MinAge == 0 {
		opts.MinAge = DefaultMinAge
	}

	if _, err := rows.Next(); err != nil {
		if stderrors.Is(err, io.EOF) {
			return table, stats, nil
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
			logger.DebugContext(ctx, "Loading voters", slog.Int("rows", stats.Rows))
		}

		if len(row) < voterMinColumns {
			return nil, stats, apperrors.NewSchemaError(
				fmt.Sprintf("voter row %d has %d columns, need %d", rows.Line(), len(row), voterMinColumns))
		}

		rec, err := parseVoter(row, opts)
		if err == nil {
			// Only rows that survive the age filter count toward uniqueness.
			if _, exists := table[rec.ID]; exists {
				return nil, stats, apperrors.NewIntegrityViolation(
					fmt.Sprintf("duplicate voter ID %s", rec.ID)).
					WithContext("line", rows.Line())
			}
			err = parseRegistration(&rec, row[voterRegistrationCol], opts)
		}
		if err != nil {
			if !apperrors.IsRecoverable(err) {
				return nil, stats, err
			}
			stats.skip(err)
			logger.WarnContext(ctx, "Skipping voter row",
				slog.Int("line", rows.Line()),
				slog.String("voter_id", row[voterIDCol]),
				slog.String("error", err.Error()))
			continue
		}

		table[rec.ID] = rec
		stats.Loaded++
		if rec.Registered {
			stats.Registered++
		}
	}

	logger.InfoContext(ctx, "Voters loaded",
		slog.Int("rows", stats.Rows),
		slog.Int("loaded", stats.Loaded),
		slog.Int("registered", stats.Registered),
		slog.Int("skipped", stats.TotalSkipped()))

	return table, stats, nil
}

// parseVoter applies the per-row checks up to the age filter: birth date
// present, birth date well formed, old enough.
func parseVoter(row []string, opts VoterOptions) (VoterRecord, error) {
	id := row[voterIDCol]
	birthText := row[voterBirthDateCol]

	if birthText == "" {
		return VoterRecord{}, apperrors.NewMissingDataError("birth date").WithContext("voter_id", id)
	}

	birth, err := electiondate.ToComparable(birthText)
	if err != nil {
		return VoterRecord{}, apperrors.NewFormatError("bad birth date", err).WithContext("voter_id", id)
	}

	age := opts.Election.AgeAt(birth)
	if opts.AdultsOnly && age < opts.MinAge {
		return VoterRecord{}, apperrors.NewUnderageError(id, float64(age))
	}

	return VoterRecord{
		ID:     id,
		County: row[voterCountyCol],
		Age:    age,
	}, nil
}

// parseRegistration sets rec.Registered from the registration date. An
// empty date means not registered.
func parseRegistration(rec *VoterRecord, regText string, opts VoterOptions) error {
	if regText == "" {
		return nil
	}
	reg, err := electiondate.ToComparable(regText)
	if err != nil {
		return apperrors.NewFormatError("bad registration date", err).WithContext("voter_id", rec.ID)
	}
	rec.Registered = reg <= opts.Election.Comparable
	return nil
}
