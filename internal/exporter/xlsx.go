package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "turnoutcli/internal/errors"
)

const (
	chartSheet  = "Chart"
	seriesSheet = "Series"

	chartWidth  = 1280
	chartHeight = 720
)

// XLSXRenderer writes a workbook holding the series data and a scatter
// chart with one series per line.
type XLSXRenderer struct {
	path   string
	logger *slog.Logger
}

// NewXLSXRenderer creates a renderer writing to path
func NewXLSXRenderer(path string, logger *slog.Logger) *XLSXRenderer {
	return &XLSXRenderer{path: path, logger: logger}
}

// Render builds and saves the workbook. Each line occupies two columns of
// the Series sheet (age, ratio); lines without points keep their header
// but get no chart series.
func (r *XLSXRenderer) Render(ctx context.Context, chart Chart) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), chartSheet); err != nil {
		return apperrors.NewIOError("failed to name chart sheet", err)
	}
	if _, err := f.NewSheet(seriesSheet); err != nil {
		return apperrors.NewIOError("failed to create series sheet", err)
	}

	series, err := writeSeries(f, chart)
	if err != nil {
		return apperrors.NewIOError("failed to write series data", err)
	}

	if len(series) == 0 {
		r.logger.WarnContext(ctx, "No points to chart, writing data sheet only",
			slog.String("title", chart.Title))
	} else if err := f.AddChart(chartSheet, "A1", scatterChart(chart, series)); err != nil {
		return apperrors.NewIOError("failed to add chart", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewIOError("failed to create output directory", err).WithContext("path", r.path)
		}
	}
	if err := f.SaveAs(r.path); err != nil {
		return apperrors.NewIOError("failed to save workbook", err).WithContext("path", r.path)
	}

	r.logger.InfoContext(ctx, "Workbook written",
		slog.String("file_path", r.path),
		slog.Int("series", len(series)),
		slog.Int("points", chart.PointCount()))
	return nil
}

// writeSeries lays out each line's points and returns the chart series
// referencing them.
func writeSeries(f *excelize.File, chart Chart) ([]excelize.ChartSeries, error) {
	var series []excelize.ChartSeries

	for i, line := range chart.Lines {
		ageCol, err := excelize.ColumnNumberToName(2*i + 1)
		if err != nil {
			return nil, err
		}
		ratioCol, err := excelize.ColumnNumberToName(2*i + 2)
		if err != nil {
			return nil, err
		}

		if err := f.SetCellValue(seriesSheet, ageCol+"1", "age"); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(seriesSheet, ratioCol+"1", line.Name); err != nil {
			return nil, err
		}

		for j, p := range line.Points {
			row := j + 2
			if err := f.SetCellValue(seriesSheet, fmt.Sprintf("%s%d", ageCol, row), float64(p.Age)); err != nil {
				return nil, err
			}
			if err := f.SetCellValue(seriesSheet, fmt.Sprintf("%s%d", ratioCol, row), p.Ratio); err != nil {
				return nil, err
			}
		}

		if len(line.Points) == 0 {
			continue
		}
		last := len(line.Points) + 1
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", seriesSheet, ratioCol),
			Categories: fmt.Sprintf("%s!$%s$2:$%s$%d", seriesSheet, ageCol, ageCol, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", seriesSheet, ratioCol, ratioCol, last),
			Line:       excelize.ChartLine{Width: 1.5},
			Marker:     excelize.ChartMarker{Symbol: "none"},
		})
	}
	return series, nil
}

func scatterChart(chart Chart, series []excelize.ChartSeries) *excelize.Chart {
	return &excelize.Chart{
		Type:      excelize.Scatter,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: chart.Title}},
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
		Legend:    excelize.ChartLegend{Position: "right"},
		XAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: chart.XLabel}},
		},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: chart.YLabel}},
		},
	}
}
