// Package pipeline runs the turnout ETL end to end:
//
//	load voters → load votes → fold → analyze per county → chart → render
//
// Each stage runs in its own span and records its duration. Progress lines
// ("num voters: N", "plotting Washoe county", ...) go to the writer given to
// New; diagnostics go to the logger.
package pipeline
