package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "turnoutcli/internal/errors"
)

var envVars = []string{
	"TURNOUT_VOTER_FILE", "TURNOUT_VOTE_FILE", "TURNOUT_MIN_REGISTERED",
	"TURNOUT_ELECTION_DATE", "TURNOUT_ELECTION_YEAR", "TURNOUT_ADULTS_ONLY",
	"TURNOUT_NORMALIZE", "TURNOUT_COUNTY", "TURNOUT_DELIMITER",
	"TURNOUT_OUTPUT_RENDERER", "TURNOUT_OUTPUT_PATH", "TURNOUT_LOGGING_LEVEL",
}

// clearEnv unsets every TURNOUT_* variable the tests touch and restores
// them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		if val, ok := os.LookupEnv(name); ok {
			t.Setenv(name, val)
			os.Unsetenv(name)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultVoterFile, cfg.VoterFile)
				assert.Equal(t, DefaultVoteFile, cfg.VoteFile)
				assert.Equal(t, 40, cfg.MinRegistered)
				assert.True(t, cfg.AdultsOnly)
				assert.Equal(t, NormalizeAuto, cfg.Normalize)
				assert.Equal(t, RendererXLSX, cfg.Output.Renderer)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "yaml file overrides defaults",
			file: `
voter_file: /data/nv/voters.csv
vote_file: /data/nv/votes.csv
min_registered: 25
election_year: 2016
adults_only: false
output:
  renderer: csv
  path: out.csv
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/data/nv/voters.csv", cfg.VoterFile)
				assert.Equal(t, 25, cfg.MinRegistered)
				assert.Equal(t, 2016, cfg.ElectionYear)
				assert.False(t, cfg.AdultsOnly)
				assert.Equal(t, RendererCSV, cfg.Output.Renderer)
				assert.Equal(t, "out.csv", cfg.Output.Path)
				// untouched keys keep defaults
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "environment overrides file",
			setupEnv: func(t *testing.T) {
				t.Setenv("TURNOUT_MIN_REGISTERED", "100")
				t.Setenv("TURNOUT_OUTPUT_RENDERER", "none")
				t.Setenv("TURNOUT_LOGGING_LEVEL", "debug")
			},
			file: "min_registered: 25\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.MinRegistered)
				assert.Equal(t, RendererNone, cfg.Output.Renderer)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid election date",
			file:    "election_date: \"2020-11-03\"\n",
			wantErr: true,
		},
		{
			name:    "unknown election year",
			file:    "election_year: 2018\n",
			wantErr: true,
		},
		{
			name:    "negative minimum",
			file:    "min_registered: -1\n",
			wantErr: true,
		},
		{
			name:    "unknown renderer",
			file:    "output:\n  renderer: png\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "voter_file: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrConfig))
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
}

func TestConfig_Election(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantText string
		wantInt  int
		wantErr  bool
	}{
		{name: "default year", cfg: Config{}, wantText: "11/03/2020", wantInt: 20201103},
		{name: "presidential year", cfg: Config{ElectionYear: 2008}, wantText: "11/04/2008", wantInt: 20081104},
		{name: "explicit date wins", cfg: Config{ElectionDate: "06/09/2020", ElectionYear: 2016}, wantText: "06/09/2020", wantInt: 20200609},
		{name: "bad year", cfg: Config{ElectionYear: 2019}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.cfg.Election()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, e.Text)
			assert.Equal(t, tt.wantInt, e.Comparable)
		})
	}
}

func TestConfig_Validate_CrossField(t *testing.T) {
	cfg := Default()
	cfg.ElectionDate = "11/08/2016"
	cfg.ElectionYear = 2020
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.Renderer = RendererCSV
	cfg.Output.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Delimiter = ";;"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestConfig_NormalizeByOverall(t *testing.T) {
	tests := []struct {
		mode   string
		county string
		want   bool
	}{
		{NormalizeAuto, "", false},
		{NormalizeAuto, "Washoe", true},
		{NormalizeOn, "", true},
		{NormalizeOff, "Washoe", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.county, func(t *testing.T) {
			cfg := Config{Normalize: tt.mode, County: tt.county}
			assert.Equal(t, tt.want, cfg.NormalizeByOverall())
			assert.Equal(t, tt.county != "", cfg.SingleCounty())
		})
	}
}

func TestConfig_MinSample(t *testing.T) {
	tests := []struct {
		mode   string
		county string
		want   int
	}{
		{NormalizeAuto, "", 40},
		{NormalizeAuto, "Washoe", 0},
		{NormalizeOn, "Washoe", 40},
		{NormalizeOff, "Washoe", 40},
		{NormalizeOff, "", 40},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.county, func(t *testing.T) {
			cfg := Config{Normalize: tt.mode, County: tt.county, MinRegistered: 40}
			assert.Equal(t, tt.want, cfg.MinSample())
		})
	}
}

func TestConfig_DelimiterRune(t *testing.T) {
	assert.Equal(t, ',', (&Config{}).DelimiterRune())
	assert.Equal(t, '\t', (&Config{Delimiter: "\t"}).DelimiterRune())
	assert.Equal(t, ';', (&Config{Delimiter: ";"}).DelimiterRune())
}
