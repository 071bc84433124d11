package electiondate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "turnoutcli/internal/errors"
)

func TestToComparable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "election day 2020", input: "11/03/2020", want: 20201103},
		{name: "new year", input: "01/01/1980", want: 19800101},
		{name: "unpadded fields", input: "1/5/2020", want: 20200105},
		{name: "surrounding whitespace", input: " 12/31/1999 ", want: 19991231},
		{name: "iso format", input: "2020-11-03", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "two fields", input: "11/2020", wantErr: true},
		{name: "four fields", input: "11/03/2020/1", wantErr: true},
		{name: "non numeric", input: "Nov/03/2020", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToComparable(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeAge(t *testing.T) {
	tests := []struct {
		name      string
		birth     int
		reference int
		want      Age
	}{
		{name: "forty", birth: 19800101, reference: 20201103, want: 40},
		{name: "day before birthday", birth: 20021104, reference: 20201103, want: 17},
		{name: "on birthday", birth: 20021103, reference: 20201103, want: 18},
		{name: "same day", birth: 20201103, reference: 20201103, want: 0},
		{
			name:      "born after reference keeps sign and fraction",
			birth:     20201103,
			reference: 19800101,
			want:      Age(float64(19800101-20201103) / 10000.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAge(tt.birth, tt.reference))
		})
	}
}

func TestComputeAge_NegativeBranchValue(t *testing.T) {
	got := ComputeAge(20201103, 19800101)
	assert.InDelta(t, -4010.1002, float64(got), 1e-9)
}

func TestAge_String(t *testing.T) {
	assert.Equal(t, "45", Age(45).String())
	assert.Equal(t, "-0.0002", Age(-0.0002).String())
}
