package pipeline

import (
	"log/slog"

	"turnoutcli/internal/config"
	apperrors "turnoutcli/internal/errors"
	"turnoutcli/internal/exporter"
	"turnoutcli/internal/infrastructure"
	httptransport "turnoutcli/internal/transport/http"
)

// NewRenderer builds the renderer selected by output.renderer. It returns
// nil for "none".
func NewRenderer(cfg config.OutputConfig, telemetry *infrastructure.Telemetry, logger *slog.Logger) (exporter.Renderer, error) {
	switch cfg.Renderer {
	case config.RendererXLSX:
		return exporter.NewXLSXRenderer(cfg.Path, logger), nil
	case config.RendererCSV:
		return exporter.NewCSVRenderer(cfg.Path, logger), nil
	case config.RendererHTTP:
		return httptransport.NewChartServer(cfg.Addr, telemetry.MetricsHandler(), logger), nil
	case config.RendererNone:
		return nil, nil
	default:
		return nil, apperrors.NewConfigError("unknown renderer "+cfg.Renderer, nil)
	}
}
