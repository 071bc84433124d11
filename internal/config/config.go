package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	VoterFile     string `yaml:"voter_file" envconfig:"VOTER_FILE" validate:"required"`
	VoteFile      string `yaml:"vote_file" envconfig:"VOTE_FILE" validate:"required"`
	MinRegistered int    `yaml:"min_registered" envconfig:"MIN_REGISTERED" validate:"min=0"`
	ElectionDate  string `yaml:"election_date" envconfig:"ELECTION_DATE" validate:"omitempty,mmddyyyy"`

	ElectionYear int    `yaml:"election_year" envconfig:"ELECTION_YEAR" validate:"omitempty,presidential_year"`
	State        string `yaml:"state" envconfig:"STATE"`
	AdultsOnly   bool   `yaml:"adults_only" envconfig:"ADULTS_ONLY"`
	Normalize    string `yaml:"normalize" envconfig:"NORMALIZE" validate:"oneof=auto on off"`
	County       string `yaml:"county" envconfig:"COUNTY"`
	Delimiter    string `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`

	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// OutputConfig selects the chart renderer
type OutputConfig struct {
	Renderer string `yaml:"renderer" envconfig:"RENDERER" validate:"oneof=xlsx csv http none"`
	Path     string `yaml:"path" envconfig:"PATH"`
	Addr     string `yaml:"addr" envconfig:"ADDR" validate:"omitempty,hostname_port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls metrics and tracing
type TelemetryConfig struct {
	// MetricsTextfile, when set, receives the run's metrics in Prometheus
	// text format (node_exporter textfile collector).
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
	Tracing         bool   `yaml:"tracing" envconfig:"TRACING"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		VoterFile:     DefaultVoterFile,
		VoteFile:      DefaultVoteFile,
		MinRegistered: DefaultMinRegistered,
		State:         DefaultState,
		AdultsOnly:    true,
		Normalize:     NormalizeAuto,
		Delimiter:     DefaultDelimiter,
		Output: OutputConfig{
			Renderer: RendererXLSX,
			Path:     DefaultOutputPath,
			Addr:     DefaultHTTPAddr,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// TURNOUT_* environment variables, in increasing order of precedence.
// An explicit path that does not exist is an error; with an empty path the
// well-known locations are searched.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewConfigError("config file not found", err).WithContext("path", path)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first existing well-known config file
func findConfigFile() string {
	for _, location := range configFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks struct rules and cross-field constraints
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfigError("config validation failed: "+strings.Join(fields, ", "), err)
		}
		return apperrors.NewConfigError("config validation failed", err)
	}

	switch c.Output.Renderer {
	case RendererXLSX, RendererCSV:
		if c.Output.Path == "" {
			return apperrors.NewConfigError(
				fmt.Sprintf("output.path is required for the %s renderer", c.Output.Renderer), nil)
		}
	case RendererHTTP:
		if c.Output.Addr == "" {
			return apperrors.NewConfigError("output.addr is required for the http renderer", nil)
		}
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging.file_path is required when logging to a file", nil)
	}

	if c.ElectionDate != "" && c.ElectionYear != 0 {
		e, err := electiondate.NewElection(c.ElectionDate)
		if err == nil && e.Year != c.ElectionYear {
			return apperrors.NewConfigError(
				fmt.Sprintf("election_date %s is not in election_year %d", c.ElectionDate, c.ElectionYear), nil)
		}
	}
	return nil
}

// Election resolves the target election. An explicit election_date wins;
// otherwise election_year is looked up in the presidential election table.
func (c *Config) Election() (electiondate.Election, error) {
	if c.ElectionDate != "" {
		return electiondate.NewElection(c.ElectionDate)
	}
	year := c.ElectionYear
	if year == 0 {
		year = DefaultElectionYear
	}
	return electiondate.Presidential(year)
}

// SingleCounty reports whether one county was selected.
func (c *Config) SingleCounty() bool {
	return c.County != ""
}

// NormalizeByOverall resolves the normalize mode. In auto mode a single
// county is normalized by its overall turnout and the all-county chart
// shows raw ratios.
func (c *Config) NormalizeByOverall() bool {
	switch c.Normalize {
	case NormalizeOn:
		return true
	case NormalizeOff:
		return false
	default:
		return c.SingleCounty()
	}
}

// MinSample is the registered-voter threshold at or below which an age is
// hidden. A single county in auto mode charts every age; an explicit
// normalize mode or the all-county chart uses MinRegistered.
func (c *Config) MinSample() int {
	if c.Normalize == NormalizeAuto && c.SingleCounty() {
		return 0
	}
	return c.MinRegistered
}

// DelimiterRune returns the input field separator
func (c *Config) DelimiterRune() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("mmddyyyy", isMMDDYYYY)
	v.RegisterValidation("presidential_year", isPresidentialYear)
	return v
}

func isMMDDYYYY(fl validator.FieldLevel) bool {
	_, err := electiondate.ToComparable(fl.Field().String())
	return err == nil
}

func isPresidentialYear(fl validator.FieldLevel) bool {
	return electiondate.IsPresidentialYear(int(fl.Field().Int()))
}
