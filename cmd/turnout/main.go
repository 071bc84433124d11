// Command turnout charts voter turnout by age from a state voter
// registration file and its voting history.
//
// Usage:
//
//	turnout [flags] [county]
//
// With no county every county gets its own line. Settings come from
// defaults, an optional YAML file, TURNOUT_* environment variables and
// finally the flags below.
//
// Progress counts go to stdout. Warnings, such as skipped input rows, and
// other log output go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turnoutcli/internal/config"
	"turnoutcli/internal/infrastructure"
	"turnoutcli/internal/pipeline"
)

// cliFlags holds parsed command line values. Only flags named in set
// override the loaded configuration.
type cliFlags struct {
	configPath string
	county     string

	voterFile       string
	voteFile        string
	electionDate    string
	electionYear    int
	minRegistered   int
	adultsOnly      bool
	normalize       string
	state           string
	delimiter       string
	renderer        string
	out             string
	addr            string
	logLevel        string
	logFormat       string
	metricsTextfile string
	tracing         bool

	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] [county]\n\n", config.AppName)
		fmt.Fprintln(output, "Progress counts are printed to stdout. Warnings (skipped rows, counties")
		fmt.Fprintln(output, "without votes) and other logs are written to stderr.")
		fmt.Fprintf(output, "\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.voterFile, "voters", config.DefaultVoterFile, "voter registration file (.csv or .xlsx)")
	fs.StringVar(&f.voteFile, "votes", config.DefaultVoteFile, "voting history file (.csv or .xlsx)")
	fs.StringVar(&f.electionDate, "election-date", "", "election date as MM/DD/YYYY (overrides -election-year)")
	fs.IntVar(&f.electionYear, "election-year", config.DefaultElectionYear, "presidential election year")
	fs.IntVar(&f.minRegistered, "min-registered", config.DefaultMinRegistered, "hide ages with this many registered voters or fewer")
	fs.BoolVar(&f.adultsOnly, "adults-only", true, "drop voters under 18 on election day")
	fs.StringVar(&f.normalize, "normalize", config.NormalizeAuto, "divide ratios by overall turnout: auto, on or off")
	fs.StringVar(&f.state, "state", config.DefaultState, "state name used in the chart title")
	fs.StringVar(&f.delimiter, "delimiter", config.DefaultDelimiter, "input field separator")
	fs.StringVar(&f.renderer, "renderer", config.RendererXLSX, "chart output: xlsx, csv, http or none")
	fs.StringVar(&f.out, "out", config.DefaultOutputPath, "output file for the xlsx and csv renderers")
	fs.StringVar(&f.addr, "addr", config.DefaultHTTPAddr, "listen address for the http renderer")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "json", "log format: json or text")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write run metrics to this file in Prometheus text format")
	fs.BoolVar(&f.tracing, "tracing", false, "print trace spans to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	switch fs.NArg() {
	case 0:
	case 1:
		f.county = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one county, got %d arguments", fs.NArg())
	}
	return f, nil
}

// apply copies explicitly set flags onto cfg
func (f *cliFlags) apply(cfg *config.Config) {
	if f.county != "" {
		cfg.County = f.county
	}

	overrides := map[string]func(){
		"voters":           func() { cfg.VoterFile = f.voterFile },
		"votes":            func() { cfg.VoteFile = f.voteFile },
		"election-date":    func() { cfg.ElectionDate = f.electionDate },
		"election-year":    func() { cfg.ElectionYear = f.electionYear },
		"min-registered":   func() { cfg.MinRegistered = f.minRegistered },
		"adults-only":      func() { cfg.AdultsOnly = f.adultsOnly },
		"normalize":        func() { cfg.Normalize = f.normalize },
		"state":            func() { cfg.State = f.state },
		"delimiter":        func() { cfg.Delimiter = f.delimiter },
		"renderer":         func() { cfg.Output.Renderer = f.renderer },
		"out":              func() { cfg.Output.Path = f.out },
		"addr":             func() { cfg.Output.Addr = f.addr },
		"log-level":        func() { cfg.Logging.Level = f.logLevel },
		"log-format":       func() { cfg.Logging.Format = f.logFormat },
		"metrics-textfile": func() { cfg.Telemetry.MetricsTextfile = f.metricsTextfile },
		"tracing":          func() { cfg.Telemetry.Tracing = f.tracing },
	}
	for name := range f.set {
		if set, ok := overrides[name]; ok {
			set()
		}
	}
}

// loadConfig resolves the configuration for one run
func loadConfig(args []string, output io.Writer) (*config.Config, error) {
	f, err := parseFlags(args, output)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)

	// Flags may have broken what Load validated.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := loadConfig(args, os.Stderr)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	telemetry, err := infrastructure.NewTelemetry(cfg.Telemetry, os.Stderr, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	renderer, err := pipeline.NewRenderer(cfg.Output, telemetry, logger)
	if err != nil {
		return err
	}

	res, err := pipeline.New(cfg, renderer, telemetry, logger, stdout).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Run complete",
		slog.String("run_id", res.RunID),
		slog.String("election", res.Election.Text),
		slog.Int("counties", len(res.Series)),
		slog.Int("points", res.Chart.PointCount()),
		slog.String("renderer", cfg.Output.Renderer))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		infrastructure.GetLogger().Error("Run failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
