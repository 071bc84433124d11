package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"turnoutcli/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrape(t *testing.T, tel *Telemetry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNewTelemetry_MetricsOnly(t *testing.T) {
	tel, err := NewTelemetry(config.TelemetryConfig{}, nil, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	assert.Nil(t, tel.TracerProvider)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Metrics)

	// noop tracer still hands back a usable span
	_, span := tel.StartSpan(context.Background(), "load-voters")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestPipelineMetrics_Exposition(t *testing.T) {
	tel, err := NewTelemetry(config.TelemetryConfig{}, nil, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	m := tel.Metrics
	m.RecordRows(ctx, "voters", 5, map[string]int{"underage": 1, "format": 2})
	m.RecordRows(ctx, "votes", 3, nil)
	m.RecordUnmatched(ctx, 1)
	m.RecordSeries(ctx, "Washoe", 4, 2)
	m.RecordStage(ctx, "load_voters", 250*time.Millisecond, nil)
	m.RecordRun(ctx, errors.New("boom"))

	body := scrape(t, tel)
	assert.Contains(t, body, `turnout_rows_read_total{dataset="voters"} 5`)
	assert.Contains(t, body, `turnout_rows_read_total{dataset="votes"} 3`)
	assert.Contains(t, body, `turnout_rows_skipped_total{dataset="voters",reason="format"} 2`)
	assert.Contains(t, body, `turnout_rows_skipped_total{dataset="voters",reason="underage"} 1`)
	assert.Contains(t, body, `turnout_votes_unmatched_total 1`)
	assert.Contains(t, body, `turnout_points_plotted_total{county="Washoe"} 4`)
	assert.Contains(t, body, `turnout_ages_suppressed_total{county="Washoe"} 2`)
	assert.Contains(t, body, `turnout_stage_duration_seconds_count{stage="load_voters",status="success"} 1`)
	assert.Contains(t, body, `turnout_runs_total{status="failure"} 1`)
	// runtime collectors share the registry
	assert.Contains(t, body, "go_goroutines")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRows(ctx, "voters", 1, map[string]int{"format": 1})
		m.RecordUnmatched(ctx, 1)
		m.RecordSeries(ctx, "Clark", 1, 1)
		m.RecordStage(ctx, "render", time.Second, nil)
		m.RecordRun(ctx, nil)
	})
}

func TestTelemetry_WriteTextfile(t *testing.T) {
	tel, err := NewTelemetry(config.TelemetryConfig{}, nil, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	tel.Metrics.RecordRun(context.Background(), nil)

	path := filepath.Join(t.TempDir(), "turnout.prom")
	require.NoError(t, tel.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `turnout_runs_total{status="success"} 1`)

	err = tel.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}

func TestTelemetry_Tracing(t *testing.T) {
	var out bytes.Buffer
	tel, err := NewTelemetry(config.TelemetryConfig{Tracing: true}, &out, testLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)

	ctx, span := tel.StartSpan(context.Background(), "aggregate", attribute.String("county", "Washoe"))
	assert.True(t, span.IsRecording())
	RecordError(ctx, errors.New("zero voters"))
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Contains(t, out.String(), `"Name": "aggregate"`)
	assert.Contains(t, out.String(), "zero voters")
	assert.Contains(t, out.String(), "Washoe")
}

func TestRecordError_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("ignored"))
	})
}
