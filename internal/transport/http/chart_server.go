package http

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "turnoutcli/internal/errors"
	"turnoutcli/internal/exporter"
)

const shutdownTimeout = 5 * time.Second

// ChartServer serves one chart over HTTP
type ChartServer struct {
	addr    string
	metrics http.Handler
	logger  *slog.Logger
	errors  *apperrors.ErrorHandler
	limiter *rateLimiter

	mu    sync.RWMutex
	chart exporter.Chart

	// ready, when set, receives the bound address once listening
	ready chan<- string
}

// NewChartServer creates a server listening on addr. metrics may be nil.
func NewChartServer(addr string, metrics http.Handler, logger *slog.Logger) *ChartServer {
	logger = logger.With(slog.String("component", "chart_server"))
	return &ChartServer{
		addr:    addr,
		metrics: metrics,
		logger:  logger,
		errors:  apperrors.NewErrorHandler(logger),
		limiter: newRateLimiter(apiRateLimit, apiRateBurst, logger),
	}
}

// NotifyReady makes Render send the listening address on ch
func (s *ChartServer) NotifyReady(ch chan<- string) {
	s.ready = ch
}

// SetChart replaces the chart being served
func (s *ChartServer) SetChart(chart exporter.Chart) {
	s.mu.Lock()
	s.chart = chart
	s.mu.Unlock()
}

func (s *ChartServer) currentChart() exporter.Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chart
}

// Routes builds the router
func (s *ChartServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(s.errors.Middleware)
	r.NotFound(s.errors.NotFound)
	r.MethodNotAllowed(s.errors.MethodNotAllowed)

	r.Get("/", s.handlePage)
	r.Route("/api/chart", func(r chi.Router) {
		r.Use(s.limiter.Handler)
		r.Get("/", s.handleChart)
		r.Get("/{county}", s.handleLine)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Render stores chart and serves it until ctx is done
func (s *ChartServer) Render(ctx context.Context, chart exporter.Chart) error {
	s.SetChart(chart)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.NewIOError("failed to listen", err).WithContext("addr", s.addr)
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	addr := ln.Addr().String()
	s.logger.InfoContext(ctx, "Chart available", slog.String("url", "http://"+addr+"/"))
	if s.ready != nil {
		s.ready <- addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return apperrors.NewIOError("chart server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewIOError("chart server shutdown failed", err)
	}
	s.logger.InfoContext(ctx, "Chart server stopped")
	return nil
}

// handlePage handles GET /
func (s *ChartServer) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, s.currentChart()); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render page", slog.String("error", err.Error()))
	}
}

// handleChart handles GET /api/chart
func (s *ChartServer) handleChart(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.currentChart())
}

// handleLine handles GET /api/chart/{county}
func (s *ChartServer) handleLine(w http.ResponseWriter, r *http.Request) {
	county := chi.URLParam(r, "county")
	line, ok := s.currentChart().Line(county)
	if !ok {
		s.errors.HandleError(w, r, apperrors.CountyNotFound(county))
		return
	}
	render.JSON(w, r, line)
}
