package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/videobench/retrieval-report/internal/stats"
)

// WriteRowsCSV dumps the full aggregated rows, one line per (team, user,
// task), with the sentinel-exported metric columns. This is the raw feed
// the tables and charts are derived from.
func WriteRowsCSV(rows []stats.Row, margins []int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	columns := stats.ColumnNames(margins)
	header := append([]string{"team", "user", "task"}, columns...)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report: writing header: %w", err)
	}
	for _, row := range rows {
		line := []string{row.Team, strconv.Itoa(row.User), row.Task}
		cols := row.Columns()
		for _, name := range columns {
			line = append(line, strconv.FormatFloat(cols[name], 'f', -1, 64))
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("report: writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flushing %s: %w", path, err)
	}
	return nil
}

// WriteSummaryCSV writes the distribution summary of one metric per team.
func WriteSummaryCSV(rows []stats.Row, teamOrder []string, column, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"team", "n", "mean", "median", "q1", "q3", "min", "max"}); err != nil {
		return fmt.Errorf("report: writing header: %w", err)
	}
	for _, team := range teamOrder {
		var teamRows []stats.Row
		for _, row := range rows {
			if row.Team == team {
				teamRows = append(teamRows, row)
			}
		}
		s := stats.Summarize(stats.MetricValues(teamRows, column))
		line := []string{
			team,
			strconv.Itoa(s.N),
			formatFloat(s.Mean),
			formatFloat(s.Median),
			formatFloat(s.Q1),
			formatFloat(s.Q3),
			formatFloat(s.Min),
			formatFloat(s.Max),
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("report: writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flushing %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
