// Package dataprocessing loads voter registration and vote history files
// and folds them into per-county, per-age counts.
//
// # Inputs
//
// Both files are read through a RowReader: delimited text via encoding/csv,
// or the first sheet of an .xlsx workbook via excelize. The first row is a
// header and is always skipped. Columns are positional:
//
//	voters: 0 id, 1 county, 6 birth date, 7 registration date (MM/DD/YYYY)
//	votes:  1 voter id, 2 election date (MM/DD/YYYY)
//
// # Data Flow
//
//	voters file → LoadVoters → VoterTable → FoldVoters → CountyAgeCounts
//	votes file  → LoadVotes  → VoteSet    → FoldVotes  → CountyAgeCounts
//
// # Error Handling
//
// Row-level problems (empty or malformed dates, underage voters, votes with
// no matching voter) are logged and the row is skipped; LoadStats counts
// them by reason. A duplicate voter ID or a row with too few columns stops
// the load with an IntegrityViolation or SchemaError.
package dataprocessing
