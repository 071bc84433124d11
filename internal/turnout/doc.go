// Package turnout turns per-age voter and vote counts for one county into
// a turnout-by-age series.
package turnout
