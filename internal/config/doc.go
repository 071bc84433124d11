// Package config provides configuration management for the turnout pipeline.
// It loads settings from several sources, validates them, and resolves the
// target election.
//
// # Configuration Sources
//
// Sources are applied in order, later ones overriding earlier ones:
//
//	1. Default() values
//	2. YAML file (-config flag, or turnout.yaml / configs/turnout.yaml)
//	3. Environment variables (TURNOUT_*)
//	4. Command line flags (applied by cmd/turnout)
//
// # Environment Variables
//
//	TURNOUT_VOTER_FILE=./data/voters.csv
//	TURNOUT_VOTE_FILE=./data/votes.csv
//	TURNOUT_MIN_REGISTERED=40
//	TURNOUT_ELECTION_DATE=11/03/2020
//	TURNOUT_ADULTS_ONLY=true
//	TURNOUT_OUTPUT_RENDERER=xlsx
//	TURNOUT_LOGGING_LEVEL=debug
//
// # YAML File
//
//	voter_file: ./data/voters.csv
//	vote_file: ./data/votes.csv
//	min_registered: 40
//	election_year: 2016
//	output:
//	  renderer: csv
//	  path: turnout.csv
//
// # Election Selection
//
// election_date (MM/DD/YYYY) names the election directly. Without it,
// election_year picks a US presidential election from the built-in table
// (1996 through 2020). The date text must match the vote history file
// exactly; it is also the reference date for ages and registrations.
package config
