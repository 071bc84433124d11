// Package exporter renders turnout charts.
//
// A Chart is a title, two axis labels and one Line per county. Renderers
// decide where it goes:
//
//	XLSXRenderer: a workbook with the series on one sheet and a scatter
//	              chart (one series per county) on another, via excelize
//	CSVRenderer:  a long-format county,age,ratio file with a UTF-8 BOM for
//	              Excel
//
// The HTTP renderer lives in internal/transport/http.
//
// Example usage:
//
//	r := exporter.NewXLSXRenderer("turnout.xlsx", logger)
//	if err := r.Render(ctx, chart); err != nil {
//	    return err
//	}
package exporter
