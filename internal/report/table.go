// Package report renders the aggregated ranking statistics into the
// published artifacts: CSV tables, static boxplot images, and interactive
// HTML charts.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/stats"
)

const missingCell = "-"

// TimeRecallTable is the per-team, per-task summary of when (and at what
// rank) each team first reached the target. Rows are grouped by team, then
// by metric, with a rank line and a time line per metric; columns are the
// tasks, textual before visual, each block in chronological order.
type TimeRecallTable struct {
	Header []string
	Rows   [][]string
}

type metricSpec struct {
	label      string
	rankColumn string // empty for time-only metrics
	timeColumn string
}

// BuildTimeRecallTable assembles the table from aggregated rows. teamOrder
// fixes the row grouping; rows may carry several users per (team, task),
// which render joined with " / " in log-identity user order.
func BuildTimeRecallTable(rows []stats.Row, teamOrder []string, cat *catalog.Catalog, margins []int) *TimeRecallTable {
	taskCols := taskColumns(cat)

	header := []string{"team", "metric", "unit"}
	for _, task := range taskCols {
		header = append(header, shortTaskName(task.Name))
	}

	specs := metricSpecs(margins)

	// index by (team, task), keeping per-user rows ordered by user.
	byTeamTask := make(map[string][]stats.Row)
	for _, row := range rows {
		key := row.Team + "\x00" + row.Task
		byTeamTask[key] = append(byTeamTask[key], row)
	}
	for _, group := range byTeamTask {
		sort.SliceStable(group, func(i, j int) bool { return group[i].User < group[j].User })
	}

	table := &TimeRecallTable{Header: header}
	for _, team := range teamOrder {
		for _, spec := range specs {
			if spec.rankColumn != "" {
				table.Rows = append(table.Rows, metricLine(team, spec.label, "rank", spec.rankColumn, "", taskCols, byTeamTask))
			}
			table.Rows = append(table.Rows, metricLine(team, spec.label, "time", spec.timeColumn, "s", taskCols, byTeamTask))
		}
	}
	return table
}

// WriteCSV writes the table to path.
func (t *TimeRecallTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("report: writing header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("report: writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flushing %s: %w", path, err)
	}
	return nil
}

func metricSpecs(margins []int) []metricSpec {
	sorted := append([]int(nil), margins...)
	sort.Ints(sorted)

	var specs []metricSpec
	for _, m := range sorted {
		label := "correct frame"
		if m > 0 {
			label = fmt.Sprintf("frame in GT+2x%ds", m)
		}
		specs = append(specs, metricSpec{
			label:      label,
			rankColumn: fmt.Sprintf("rank_shot_margin_%d", m),
			timeColumn: fmt.Sprintf("time_best_shot_margin_%d", m),
		})
	}
	specs = append(specs,
		metricSpec{label: "correct video", rankColumn: "rank_video", timeColumn: "time_best_video"},
		metricSpec{label: "correct submission", timeColumn: "time_correct_submission"},
	)
	return specs
}

func metricLine(team, label, unit, column, suffix string, taskCols []*catalog.Task, byTeamTask map[string][]stats.Row) []string {
	line := []string{team, label, unit}
	for _, task := range taskCols {
		group := byTeamTask[team+"\x00"+task.Name]

		cells := make([]string, 0, len(group))
		anyPresent := false
		for _, row := range group {
			cell := formatCell(row.Columns()[column], suffix)
			if cell != missingCell {
				anyPresent = true
			}
			cells = append(cells, cell)
		}

		switch {
		case len(cells) == 0 || !anyPresent:
			line = append(line, missingCell)
		case len(cells) == 1:
			line = append(line, cells[0])
		default:
			line = append(line, strings.Join(cells, " / "))
		}
	}
	return line
}

// formatCell renders one exported metric value. Sentinel values show as a
// dash; achieved values are whole numbers, time values with an "s" suffix.
func formatCell(v float64, suffix string) string {
	if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return missingCell
	}
	return fmt.Sprintf("%d%s", int64(math.Round(v)), suffix)
}

// taskColumns orders the tasks for table columns: textual before visual,
// each group chronological.
func taskColumns(cat *catalog.Catalog) []*catalog.Task {
	ordered := cat.TasksByStart()
	cols := make([]*catalog.Task, 0, len(ordered))
	for _, task := range ordered {
		if strings.Contains(task.Type, "Textual") {
			cols = append(cols, task)
		}
	}
	for _, task := range ordered {
		if !strings.Contains(task.Type, "Textual") {
			cols = append(cols, task)
		}
	}
	return cols
}

// shortTaskName compresses the evaluation server's task names into column
// labels: "...-kis-t3" becomes "T_3", "...-kis-v1" becomes "V_1".
func shortTaskName(name string) string {
	lower := strings.ToLower(name)
	for _, marker := range []string{"-kis-t", "-kis-v"} {
		if idx := strings.LastIndex(lower, marker); idx >= 0 {
			kind := strings.ToUpper(marker[len(marker)-1:])
			return kind + "_" + name[idx+len(marker):]
		}
	}
	return name
}
