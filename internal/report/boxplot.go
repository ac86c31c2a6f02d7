package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/videobench/retrieval-report/internal/stats"
)

// SaveMetricBoxplot renders one box per team of a metric's distribution and
// saves it as a PNG. Sentinel values are excluded; a team with no achieved
// values gets no box but keeps its axis slot.
func SaveMetricBoxplot(rows []stats.Row, teamOrder []string, column, title, yLabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.X.Label.Text = "Team"

	for i, team := range teamOrder {
		var teamRows []stats.Row
		for _, row := range rows {
			if row.Team == team {
				teamRows = append(teamRows, row)
			}
		}

		values := make(plotter.Values, 0, len(teamRows))
		for _, v := range stats.MetricValues(teamRows, column) {
			if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}

		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), values)
		if err != nil {
			return fmt.Errorf("report: boxplot for team %s: %w", team, err)
		}
		p.Add(box)
	}

	p.NominalX(teamOrder...)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}
