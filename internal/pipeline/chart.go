package pipeline

import (
	"fmt"

	"turnoutcli/internal/electiondate"
	"turnoutcli/internal/exporter"
	"turnoutcli/internal/turnout"
)

// buildChart labels the series. All-county runs get one line per county;
// a single-county run gets that county's line.
func (p *Pipeline) buildChart(election electiondate.Election, series []turnout.Series, totalCounties int) exporter.Chart {
	lines := make([]exporter.Line, 0, len(series))
	for _, s := range series {
		lines = append(lines, exporter.Line{Name: s.County, Points: s.Points})
	}

	hidden := fmt.Sprintf("Age (less than %d registered voters are hidden)", p.cfg.MinSample())

	if p.cfg.SingleCounty() {
		xLabel := "Age"
		if p.cfg.MinSample() > 0 {
			xLabel = hidden
		}
		return exporter.Chart{
			Title:  fmt.Sprintf("%d %s Votes and Voters vs. Age", election.Year, p.cfg.State),
			XLabel: xLabel,
			YLabel: "Votes or Voters",
			Lines:  lines,
		}
	}

	return exporter.Chart{
		Title: fmt.Sprintf("%d %s Normalized Voter Turnout vs. Age (%d of %d counties; each line = 1 county)",
			election.Year, p.cfg.State, len(lines), totalCounties),
		XLabel: hidden,
		YLabel: "Normalized voter turnout (votes / registered voters / overall turnout)",
		Lines:  lines,
	}
}
