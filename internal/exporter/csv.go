package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "turnoutcli/internal/errors"
)

// csvHeaders is the long-format series layout
var csvHeaders = []string{"county", "age", "ratio"}

// CSVRenderer writes the chart's series as county,age,ratio rows
type CSVRenderer struct {
	path   string
	logger *slog.Logger
}

// NewCSVRenderer creates a renderer writing to path
func NewCSVRenderer(path string, logger *slog.Logger) *CSVRenderer {
	return &CSVRenderer{path: path, logger: logger}
}

// Render writes one row per point, lines in chart order
func (r *CSVRenderer) Render(ctx context.Context, chart Chart) error {
	r.logger.InfoContext(ctx, "Writing CSV file",
		slog.String("file_path", r.path),
		slog.Int("lines", len(chart.Lines)),
		slog.Int("record_count", chart.PointCount()))

	stream, err := CreateStreamWriter(r.path, csvHeaders)
	if err != nil {
		return apperrors.NewIOError("failed to create CSV file", err).WithContext("path", r.path)
	}

	for _, line := range chart.Lines {
		for _, p := range line.Points {
			if err := stream.WriteRecord([]string{line.Name, formatAge(p.Age), formatRatio(p.Ratio)}); err != nil {
				stream.Close()
				return apperrors.NewIOError("failed to write CSV record", err).WithContext("path", r.path)
			}
		}
	}

	if err := stream.Close(); err != nil {
		return apperrors.NewIOError("failed to close CSV file", err).WithContext("path", r.path)
	}
	return nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a CSV file, writes a UTF-8 BOM for Excel
// compatibility and then headers.
func CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
