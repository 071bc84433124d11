// Package http serves a rendered turnout chart in the browser.
//
// ChartServer implements exporter.Renderer: Render stores the chart and
// blocks serving it until the context is cancelled, the way an interactive
// plot window stays open until it is closed.
//
// # Routes
//
//	GET /                  HTML page drawing the chart with Chart.js
//	GET /api/chart         the chart as JSON
//	GET /api/chart/{county} one line as JSON, 404 for an unknown county
//	GET /metrics           Prometheus metrics for the run (when configured)
package http
