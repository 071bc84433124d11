package dataprocessing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
	"turnoutcli/internal/shared/testutil"
)

const voterHeader = "id,county,last,first,street,zip,birth_date,registration_date\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func election2020(t *testing.T) electiondate.Election {
	t.Helper()
	e, err := electiondate.Presidential(2020)
	require.NoError(t, err)
	return e
}

func loadVoters(t *testing.T, body string, adultsOnly bool) (VoterTable, LoadStats, error) {
	t.Helper()
	rows := NewCSVRows(strings.NewReader(voterHeader+body), ',')
	opts := VoterOptions{Election: election2020(t), AdultsOnly: adultsOnly}
	return LoadVoters(context.Background(), rows, opts, discardLogger())
}

const mixedVoters = `V1,Washoe,,,,,01/01/1980,01/01/2000
V2,Washoe,,,,,,01/01/2000
V3,Clark,,,,,1980-01-01,01/01/2000
V4,Clark,,,,,06/01/2005,01/01/2019
V5,Clark,,,,,01/01/1990,12/01/2020
V6,Clark,,,,,01/01/1990,bad
V7,Clark,,,,,01/01/1990,
`

func TestLoadVoters_AdultsOnly(t *testing.T) {
	table, stats, err := loadVoters(t, mixedVoters, true)
	require.NoError(t, err)

	assert.Equal(t, VoterTable{
		"V1": {ID: "V1", County: "Washoe", Age: 40, Registered: true},
		"V5": {ID: "V5", County: "Clark", Age: 30, Registered: false},
		"V7": {ID: "V7", County: "Clark", Age: 30, Registered: false},
	}, table)

	assert.Equal(t, 7, stats.Rows)
	assert.Equal(t, 3, stats.Loaded)
	assert.Equal(t, 1, stats.Registered)
	assert.Equal(t, map[string]int{"missing_data": 1, "format": 2, "underage": 1}, stats.Skipped)
	assert.Equal(t, 4, stats.TotalSkipped())
}

func TestLoadVoters_AllAges(t *testing.T) {
	table, stats, err := loadVoters(t, mixedVoters, false)
	require.NoError(t, err)

	require.Contains(t, table, "V4")
	assert.Equal(t, electiondate.Age(15), table["V4"].Age)
	assert.Equal(t, 4, stats.Loaded)
	assert.NotContains(t, stats.Skipped, "underage")
}

func TestLoadVoters_BirthAfterElection(t *testing.T) {
	table, _, err := loadVoters(t, "V1,Washoe,,,,,01/01/2021,\n", false)
	require.NoError(t, err)
	assert.InDelta(t, float64(20201103-20210101)/10000.0, float64(table["V1"].Age), 1e-9)

	table, stats, err := loadVoters(t, "V1,Washoe,,,,,01/01/2021,\n", true)
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Equal(t, 1, stats.Skipped["underage"])
}

func TestLoadVoters_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "duplicate id",
			body:    "V1,Washoe,,,,,01/01/1980,\nV1,Clark,,,,,01/01/1970,\n",
			wantErr: apperrors.ErrIntegrityViolation,
		},
		{
			name: "duplicate id with bad registration date",
			body: testutil.VoterRow("V1", "Washoe", "01/01/1980", "01/01/2000") + "\n" +
				testutil.VoterRow("V1", "Washoe", "01/01/1970", "garbage") + "\n",
			wantErr: apperrors.ErrIntegrityViolation,
		},
		{
			name: "duplicate id with empty registration date",
			body: testutil.VoterRow("V1", "Washoe", "01/01/1980", "") + "\n" +
				testutil.VoterRow("V1", "Clark", "01/01/1970", "11/04/2020") + "\n",
			wantErr: apperrors.ErrIntegrityViolation,
		},
		{
			name:    "short row",
			body:    "V1,Washoe,,,,,01/01/1980\n",
			wantErr: apperrors.ErrSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, _, err := loadVoters(t, tt.body, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, table)
		})
	}
}

func TestLoadVoters_DuplicateOfSkippedRow(t *testing.T) {
	// the first V1 is skipped before the uniqueness check
	table, _, err := loadVoters(t, "V1,Washoe,,,,,,\nV1,Washoe,,,,,01/01/1980,\n", true)
	require.NoError(t, err)
	assert.Len(t, table, 1)
}

func TestLoadVoters_BadRegistrationThenUnique(t *testing.T) {
	// a row skipped for its registration date never enters the table
	body := testutil.VoterRow("V1", "Washoe", "01/01/1980", "garbage") + "\n" +
		testutil.VoterRow("V1", "Washoe", "01/01/1980", "01/01/2000") + "\n"
	table, stats, err := loadVoters(t, body, true)
	require.NoError(t, err)
	assert.Len(t, table, 1)
	assert.True(t, table["V1"].Registered)
	assert.Equal(t, 1, stats.Skipped["format"])
}

func TestLoadVoters_FromFile(t *testing.T) {
	path := testutil.WriteTable(t, "voters.csv", testutil.VoterHeader,
		testutil.VoterRow("V1", "Washoe", "01/01/1980", "01/01/2000"),
		testutil.VoterRow("V2", "Washoe", "01/01/2010", ""),
	)
	rows, err := OpenRows(path, ',')
	require.NoError(t, err)
	defer rows.Close()

	logger, logs := testutil.NewTestLogger()
	table, stats, err := LoadVoters(context.Background(), rows,
		VoterOptions{Election: election2020(t), AdultsOnly: true}, logger)
	require.NoError(t, err)
	assert.Equal(t, VoterTable{"V1": {ID: "V1", County: "Washoe", Age: 40, Registered: true}}, table)
	assert.Equal(t, 1, stats.Skipped["underage"])

	rec, ok := logs.Find(slog.LevelWarn, "Skipping voter row")
	require.True(t, ok)
	assert.Equal(t, "V2", rec.Attrs["voter_id"])
	assert.Equal(t, int64(3), rec.Attrs["line"])
}

func TestLoadVotes_FromFile(t *testing.T) {
	path := testutil.WriteTable(t, "votes.csv", testutil.VoteHeader,
		testutil.VoteRow("1", "V1", "11/03/2020"),
		testutil.VoteRow("2", "V1", "11/03/2020"),
		testutil.VoteRow("3", "V2", "11/08/2016"),
	)
	rows, err := OpenRows(path, ',')
	require.NoError(t, err)
	defer rows.Close()

	votes, stats, err := LoadVotes(context.Background(), rows, "11/03/2020", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, VoteSet{"V1": {}}, votes)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestLoadVoters_HeaderOnly(t *testing.T) {
	table, stats, err := loadVoters(t, "", true)
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Zero(t, stats.Rows)

	rows := NewCSVRows(strings.NewReader(""), ',')
	table, _, err = LoadVoters(context.Background(), rows, VoterOptions{Election: election2020(t)}, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestLoadVoters_XLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		strings.Split(strings.TrimSpace(voterHeader), ","),
		{"V1", "Washoe", "", "", "", "", "01/01/1980", "01/01/2000"},
		{"V2", "Clark", "", "", "", "", "07/04/1976"},
	})

	rows, err := OpenRows(path, ',')
	require.NoError(t, err)
	defer rows.Close()

	table, stats, err := LoadVoters(context.Background(), rows,
		VoterOptions{Election: election2020(t), AdultsOnly: true}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, electiondate.Age(44), table["V2"].Age)
	assert.False(t, table["V2"].Registered)
}

func TestLoadVotes(t *testing.T) {
	input := `county,id,election_date,method
Washoe,V1,11/03/2020,mail
Washoe,V1,11/03/2020,mail
Clark,V5,11/08/2016,early
Clark,V9,11/03/2020,early
Clark,V5, 11/03/2020,early
`
	rows := NewCSVRows(strings.NewReader(input), ',')
	votes, stats, err := LoadVotes(context.Background(), rows, "11/03/2020", discardLogger())
	require.NoError(t, err)

	assert.Equal(t, VoteSet{"V1": {}, "V9": {}}, votes)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 1, stats.Duplicates)
	assert.True(t, votes.Contains("V9"))
	assert.False(t, votes.Contains("V5"))
}

func TestLoadVotes_ShortRow(t *testing.T) {
	rows := NewCSVRows(strings.NewReader("county,id,date\nWashoe,V1\n"), ',')
	_, _, err := LoadVotes(context.Background(), rows, "11/03/2020", discardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
}

func TestLoadVoters_Cancelled(t *testing.T) {
	var b strings.Builder
	b.WriteString(voterHeader)
	for i := 0; i < progressRowStride; i++ {
		b.WriteString("V,Washoe,,,,,,\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := NewCSVRows(strings.NewReader(b.String()), ',')
	_, _, err := LoadVoters(ctx, rows, VoterOptions{Election: election2020(t)}, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
}
