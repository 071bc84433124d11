package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"turnoutcli/internal/config"
	apperrors "turnoutcli/internal/errors"
)

const (
	ServiceName = "turnout"
	MeterName   = "turnoutcli"
)

// Telemetry holds the metric and trace providers for one pipeline run.
// Metrics are collected into a private Prometheus registry so they can be
// served over HTTP or dumped to a textfile when the run ends.
type Telemetry struct {
	Registry       *prometheus.Registry
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider // nil when tracing is disabled
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics

	logger *slog.Logger
}

// NewTelemetry wires the OTel meter provider to a Prometheus registry and,
// when tracing is enabled, a stdout span exporter writing to traceOut.
func NewTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := createResource()
	reg := prometheus.NewRegistry()
	if err := registerRuntimeCollectors(reg); err != nil {
		return nil, fmt.Errorf("failed to register runtime collectors: %w", err)
	}

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(reg),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t := &Telemetry{
		Registry:      reg,
		MeterProvider: mp,
		Meter:         mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion)),
		logger:        logger,
	}

	if cfg.Tracing {
		if traceOut == nil {
			traceOut = os.Stderr
		}
		spanExporter, err := stdouttrace.New(
			stdouttrace.WithWriter(traceOut),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	} else {
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	}

	t.Metrics, err = NewPipelineMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	logger.Debug("Telemetry initialized", slog.Bool("tracing_enabled", cfg.Tracing))
	return t, nil
}

// createResource describes this process to the exporters
func createResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)
}

// StartSpan starts a span on the run's tracer
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// MetricsHandler serves the run's registry in the Prometheus exposition format
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (t *Telemetry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return apperrors.NewIOError("failed to write metrics textfile", err).WithContext("path", path)
	}
	return nil
}

// Shutdown flushes pending spans and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown errors: %w", err)
	}
	t.logger.DebugContext(ctx, "Telemetry shutdown complete")
	return nil
}

// PipelineMetrics holds the instruments recorded by a pipeline run
type PipelineMetrics struct {
	RowsRead       metric.Int64Counter
	RowsSkipped    metric.Int64Counter
	VotesUnmatched metric.Int64Counter
	PointsPlotted  metric.Int64Counter
	AgesSuppressed metric.Int64Counter
	StageDuration  metric.Float64Histogram
	Runs           metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsRead, err := meter.Int64Counter(
		"turnout_rows_read",
		metric.WithDescription("Input rows read, by dataset"),
	)
	if err != nil {
		return nil, err
	}

	rowsSkipped, err := meter.Int64Counter(
		"turnout_rows_skipped",
		metric.WithDescription("Input rows skipped, by dataset and reason"),
	)
	if err != nil {
		return nil, err
	}

	votesUnmatched, err := meter.Int64Counter(
		"turnout_votes_unmatched",
		metric.WithDescription("Votes whose voter ID is absent from the voter table"),
	)
	if err != nil {
		return nil, err
	}

	pointsPlotted, err := meter.Int64Counter(
		"turnout_points_plotted",
		metric.WithDescription("Chart points emitted"),
	)
	if err != nil {
		return nil, err
	}

	agesSuppressed, err := meter.Int64Counter(
		"turnout_ages_suppressed",
		metric.WithDescription("Ages hidden for having too few registered voters"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"turnout_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"turnout_runs",
		metric.WithDescription("Pipeline runs, by status"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsRead:       rowsRead,
		RowsSkipped:    rowsSkipped,
		VotesUnmatched: votesUnmatched,
		PointsPlotted:  pointsPlotted,
		AgesSuppressed: agesSuppressed,
		StageDuration:  stageDuration,
		Runs:           runs,
	}, nil
}

// RecordRows records the outcome of loading one dataset. skipped is keyed
// by skip reason.
func (m *PipelineMetrics) RecordRows(ctx context.Context, dataset string, read int, skipped map[string]int) {
	if m == nil {
		return
	}
	ds := attribute.String("dataset", dataset)
	m.RowsRead.Add(ctx, int64(read), metric.WithAttributes(ds))
	for reason, n := range skipped {
		m.RowsSkipped.Add(ctx, int64(n), metric.WithAttributes(ds, attribute.String("reason", reason)))
	}
}

// RecordUnmatched records votes dropped during aggregation
func (m *PipelineMetrics) RecordUnmatched(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.VotesUnmatched.Add(ctx, int64(n))
}

// RecordSeries records the points kept and ages hidden for one county
func (m *PipelineMetrics) RecordSeries(ctx context.Context, county string, plotted, suppressed int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("county", county))
	m.PointsPlotted.Add(ctx, int64(plotted), attrs)
	m.AgesSuppressed.Add(ctx, int64(suppressed), attrs)
}

// RecordStage records a stage duration with its outcome
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		statusAttr(err),
	))
}

// RecordRun counts a finished run
func (m *PipelineMetrics) RecordRun(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(statusAttr(err)))
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
