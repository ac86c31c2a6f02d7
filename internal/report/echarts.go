package report

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/stats"
)

// SaveRankScatterHTML renders an interactive scatter of a rank metric, one
// series per team, tasks in chronological order on the X axis.
func SaveRankScatterHTML(rows []stats.Row, teamOrder []string, cat *catalog.Catalog, column, title, path string) error {
	tasks := cat.TasksByStart()
	taskIndex := make(map[string]int, len(tasks))
	labels := make([]string, len(tasks))
	for i, task := range tasks {
		taskIndex[task.Name] = i
		labels[i] = shortTaskName(task.Name)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Task"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "Rank"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	scatter.SetXAxis(labels)

	for _, team := range teamOrder {
		data := make([]opts.ScatterData, 0, len(tasks))
		for _, row := range rows {
			if row.Team != team {
				continue
			}
			v := row.Columns()[column]
			if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			idx, ok := taskIndex[row.Task]
			if !ok {
				continue
			}
			data = append(data, opts.ScatterData{Value: []interface{}{idx, v}})
		}
		scatter.AddSeries(team, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	return renderHTML(scatter, path)
}

// SaveSubmissionRatioHTML renders, per task, the share of correct
// submissions over the task's duration, bucketed into bins.
func SaveSubmissionRatioHTML(cat *catalog.Catalog, led *ledger.Ledger, bins int, path string) error {
	page := components.NewPage()
	page.SetPageTitle("Submission correctness over task time")

	for _, task := range cat.TasksByStart() {
		taskBins, err := led.SubmissionBins(task.Name, bins)
		if err != nil {
			return fmt.Errorf("report: bins for task %s: %w", task.Name, err)
		}

		labels := make([]string, len(taskBins))
		ratios := make([]opts.BarData, len(taskBins))
		counts := make([]opts.BarData, len(taskBins))
		binSeconds := float64(task.DurationMs) / 1000 / float64(len(taskBins))
		for i, bin := range taskBins {
			labels[i] = fmt.Sprintf("%.0fs", float64(i+1)*binSeconds)
			ratios[i] = opts.BarData{Value: bin.CorrectRatio()}
			counts[i] = opts.BarData{Value: bin.Total()}
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    shortTaskName(task.Name),
				Subtitle: fmt.Sprintf("duration %.0fs", float64(task.DurationMs)/1000),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Correct ratio"}),
		)
		bar.SetXAxis(labels)
		bar.AddSeries("correct ratio", ratios)
		bar.AddSeries("submissions", counts)
		page.AddCharts(bar)
	}

	return renderHTML(page, path)
}

type htmlRenderer interface {
	Render(w io.Writer) error
}

func renderHTML(chart htmlRenderer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := chart.Render(f); err != nil {
		return fmt.Errorf("report: rendering %s: %w", path, err)
	}
	return nil
}
