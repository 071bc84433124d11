package exporter

import (
	"io"
	"log/slog"

	"turnoutcli/internal/turnout"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleChart() Chart {
	return Chart{
		Title:  "2020 Nevada Normalized Voter Turnout vs. Age (2 of 2 counties; each line = 1 county)",
		XLabel: "Age (less than 40 registered voters are hidden)",
		YLabel: "Normalized voter turnout (votes / registered voters / overall turnout)",
		Lines: []Line{
			{Name: "Clark", Points: []turnout.Point{{Age: 18, Ratio: 0.5}, {Age: 19, Ratio: 0.625}}},
			{Name: "Esmeralda", Points: []turnout.Point{}},
			{Name: "Washoe", Points: []turnout.Point{{Age: 45, Ratio: 0.4}}},
		},
	}
}
