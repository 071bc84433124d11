package dataprocessing

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "turnoutcli/internal/errors"
)

// RowReader yields the rows of a tabular file one at a time, header first.
// Next returns io.EOF after the last row.
type RowReader interface {
	Next() ([]string, error)
	// Line is the 1-based row number of the row last returned by Next.
	Line() int
	Close() error
}

// OpenRows opens a voter or vote file. Files ending in .xlsx are read from
// their first sheet with excelize; anything else is delimited text.
func OpenRows(path string, delimiter rune) (RowReader, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return openXLSXRows(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open input file", err).WithContext("path", path)
	}
	return NewCSVRows(file, delimiter), nil
}

// csvRows reads delimited text with encoding/csv
type csvRows struct {
	reader *csv.Reader
	closer io.Closer
	line   int
}

// NewCSVRows reads delimited rows from r. Rows may have differing field
// counts; the loaders enforce their own minimum width. If r is an
// io.Closer it is closed by Close.
func NewCSVRows(r io.Reader, delimiter rune) RowReader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows := &csvRows{reader: reader}
	if c, ok := r.(io.Closer); ok {
		rows.closer = c
	}
	return rows
}

func (r *csvRows) Next() ([]string, error) {
	record, err := r.reader.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, apperrors.NewSchemaError(fmt.Sprintf("malformed row %d: %v", r.line+1, err))
	}
	r.line++
	if r.line == 1 && len(record) > 0 {
		// Files written by the CSV exporter start with a UTF-8 BOM.
		record[0] = strings.TrimPrefix(record[0], "\ufeff")
	}
	return record, nil
}

func (r *csvRows) Line() int { return r.line }

func (r *csvRows) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// xlsxRows streams the first sheet of a workbook
type xlsxRows struct {
	file  *excelize.File
	rows  *excelize.Rows
	width int
	line  int
}

func openXLSXRows(path string) (*xlsxRows, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open workbook", err).WithContext("path", path)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, apperrors.NewSchemaError("workbook has no sheets").WithContext("path", path)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, apperrors.NewIOError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheets[0])
	}
	return &xlsxRows{file: f, rows: rows}, nil
}

// Next returns the next row. excelize drops trailing empty cells, so rows
// are padded to the header's width to keep empty trailing columns
// (an unset registration date) distinguishable from missing ones.
func (r *xlsxRows) Next() ([]string, error) {
	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return nil, apperrors.NewIOError("failed to read workbook row", err)
		}
		return nil, io.EOF
	}

	cols, err := r.rows.Columns()
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to read workbook row %d", r.line+1), err)
	}
	r.line++

	if r.line == 1 {
		r.width = len(cols)
	}
	for len(cols) < r.width {
		cols = append(cols, "")
	}
	return cols, nil
}

func (r *xlsxRows) Line() int { return r.line }

func (r *xlsxRows) Close() error {
	if err := r.rows.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
