package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"turnoutcli/internal/config"
	"turnoutcli/internal/dataprocessing"
	"turnoutcli/internal/electiondate"
	apperrors "turnoutcli/internal/errors"
	"turnoutcli/internal/exporter"
	"turnoutcli/internal/infrastructure"
	"turnoutcli/internal/turnout"
	"turnoutcli/internal/validation"
)

// Stage names, used for spans and the stage duration metric
const (
	StageLoadVoters = "load_voters"
	StageLoadVotes  = "load_votes"
	StageAggregate  = "aggregate"
	StageAnalyze    = "analyze"
	StageRender     = "render"
)

// Pipeline holds everything one run needs
type Pipeline struct {
	cfg       *config.Config
	renderer  exporter.Renderer
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
	out       io.Writer
}

// Result describes a finished run
type Result struct {
	RunID     string
	Election  electiondate.Election
	Voters    dataprocessing.LoadStats
	Votes     dataprocessing.LoadStats
	Unmatched int
	Series    []turnout.Series
	Chart     exporter.Chart
}

// New creates a pipeline. renderer may be nil to skip rendering.
func New(cfg *config.Config, renderer exporter.Renderer, telemetry *infrastructure.Telemetry, logger *slog.Logger, out io.Writer) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		renderer:  renderer,
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		out:       out,
	}
}

// Run executes every stage in order. The first fatal error stops the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := p.telemetry.StartSpan(ctx, "turnout.run")
	defer span.End()

	res, err := p.run(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	p.telemetry.Metrics.RecordRun(ctx, err)

	if path := p.cfg.Telemetry.MetricsTextfile; path != "" {
		if werr := p.telemetry.WriteTextfile(path); werr != nil {
			p.logger.WarnContext(ctx, "Failed to write metrics textfile", slog.String("error", werr.Error()))
		}
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	election, err := p.cfg.Election()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    infrastructure.GetRunID(ctx),
		Election: election,
	}
	p.logger.InfoContext(ctx, "Starting run",
		slog.String("election", election.Text),
		slog.String("voter_file", p.cfg.VoterFile),
		slog.String("vote_file", p.cfg.VoteFile))

	if err := p.preflight(); err != nil {
		return nil, err
	}

	voters, votes, err := p.load(ctx, election, res)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "num voters: %d\n", len(voters))
	fmt.Fprintf(p.out, "num votes: %d\n", len(votes))

	var voterCounts, voteCounts dataprocessing.CountyAgeCounts
	err = p.stage(ctx, StageAggregate, func(ctx context.Context) error {
		voterCounts = dataprocessing.FoldVoters(voters)
		voteCounts, res.Unmatched = dataprocessing.FoldVotes(ctx, votes, voters, p.logger)
		p.telemetry.Metrics.RecordUnmatched(ctx, res.Unmatched)
		return nil
	})
	if err != nil {
		return nil, err
	}

	counties, err := p.selectCounties(voterCounts)
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageAnalyze, func(ctx context.Context) error {
		res.Series, err = p.analyze(ctx, counties, voterCounts, voteCounts)
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Chart = p.buildChart(election, res.Series, len(voterCounts))

	if p.renderer == nil {
		p.logger.InfoContext(ctx, "No renderer configured, skipping render")
		return res, nil
	}
	err = p.stage(ctx, StageRender, func(ctx context.Context) error {
		return p.renderer.Render(ctx, res.Chart)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// preflight checks the input files, and the output file for file
// renderers, before any loading starts
func (p *Pipeline) preflight() error {
	v := validation.NewFileValidator(p.logger)
	for _, path := range []string{p.cfg.VoterFile, p.cfg.VoteFile} {
		if err := v.ValidateInputFile(path); err != nil {
			return err
		}
	}

	switch p.cfg.Output.Renderer {
	case config.RendererXLSX, config.RendererCSV:
		return v.ValidateOutputFile(p.cfg.Output.Path)
	}
	return nil
}

// load reads the voter file and then the vote file
func (p *Pipeline) load(ctx context.Context, election electiondate.Election, res *Result) (dataprocessing.VoterTable, dataprocessing.VoteSet, error) {
	var (
		voters dataprocessing.VoterTable
		votes  dataprocessing.VoteSet
	)

	err := p.stage(ctx, StageLoadVoters, func(ctx context.Context) error {
		rows, err := dataprocessing.OpenRows(p.cfg.VoterFile, p.cfg.DelimiterRune())
		if err != nil {
			return err
		}
		defer rows.Close()

		opts := dataprocessing.VoterOptions{
			Election:   election,
			AdultsOnly: p.cfg.AdultsOnly,
			MinAge:     config.AdultAge,
		}
		voters, res.Voters, err = dataprocessing.LoadVoters(ctx, rows, opts, p.logger)
		p.telemetry.Metrics.RecordRows(ctx, "voters", res.Voters.Rows, res.Voters.Skipped)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	err = p.stage(ctx, StageLoadVotes, func(ctx context.Context) error {
		rows, err := dataprocessing.OpenRows(p.cfg.VoteFile, p.cfg.DelimiterRune())
		if err != nil {
			return err
		}
		defer rows.Close()

		votes, res.Votes, err = dataprocessing.LoadVotes(ctx, rows, election.Text, p.logger)
		p.telemetry.Metrics.RecordRows(ctx, "votes", res.Votes.Rows, res.Votes.Skipped)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return voters, votes, nil
}

// selectCounties returns the counties to plot in name order
func (p *Pipeline) selectCounties(voterCounts dataprocessing.CountyAgeCounts) ([]string, error) {
	if !p.cfg.SingleCounty() {
		return voterCounts.Counties(), nil
	}
	if _, ok := voterCounts[p.cfg.County]; !ok {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("county %q is not in the voter file", p.cfg.County), nil).
			WithContext("known_counties", voterCounts.Counties())
	}
	return []string{p.cfg.County}, nil
}

// analyze computes one series per county
func (p *Pipeline) analyze(ctx context.Context, counties []string, voterCounts, voteCounts dataprocessing.CountyAgeCounts) ([]turnout.Series, error) {
	opts := turnout.Options{
		MinSample: p.cfg.MinSample(),
		Normalize: p.cfg.NormalizeByOverall(),
	}

	series := make([]turnout.Series, 0, len(counties))
	for _, county := range counties {
		if !p.cfg.SingleCounty() {
			fmt.Fprintf(p.out, "plotting %s county\n", county)
		}

		countyVotes, ok := voteCounts[county]
		if !ok {
			p.logger.WarnContext(ctx, "County has no votes for this election", slog.String("county", county))
		}

		s, err := turnout.SeriesForCounty(ctx, p.logger, county, voterCounts[county], countyVotes, opts)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(p.out, "\t%d registered voters\n", s.TotalRegistered)

		p.telemetry.Metrics.RecordSeries(ctx, county, len(s.Points), s.Suppressed)
		series = append(series, s)
	}
	return series, nil
}

// stage runs fn in a span and records its duration
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := p.telemetry.StartSpan(ctx, "turnout."+name, attribute.String("stage", name))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	p.telemetry.Metrics.RecordStage(ctx, name, elapsed, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	p.logger.DebugContext(ctx, "Stage complete",
		slog.String("stage", name),
		slog.Duration("duration", elapsed))
	return nil
}
