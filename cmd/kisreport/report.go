package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/videobench/retrieval-report/internal/cache"
	"github.com/videobench/retrieval-report/internal/report"
	"github.com/videobench/retrieval-report/internal/stats"
	"github.com/videobench/retrieval-report/internal/timeline"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the time/recall tables",
		Long: `Aggregate the cached timelines into per-(team, task) ranking rows and
write the CSV artifacts: the raw row dump, the time/recall table and the
per-metric distribution summaries. Teams missing from the cache are
computed on the fly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			splitUsers, _ := cmd.Flags().GetBool("split-users")
			bestUser, _ := cmd.Flags().GetBool("best-user")

			a, err := loadAnalysis(cmd)
			if err != nil {
				return err
			}
			rows, err := aggregateRows(a, splitUsers || bestUser)
			if err != nil {
				return err
			}

			agg := newAggregator(a, splitUsers || bestUser)
			if bestUser {
				agg.MarkBestUsers(rows)
				rows = stats.BestUserRows(rows)
			}

			if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			rowsPath := filepath.Join(a.cfg.OutputDir, "team_task_rows.csv")
			if err := report.WriteRowsCSV(rows, a.cfg.Margins, rowsPath); err != nil {
				return err
			}

			table := report.BuildTimeRecallTable(rows, a.registry.DisplayNames(), a.catalog, a.cfg.Margins)
			tablePath := filepath.Join(a.cfg.OutputDir, "time_recall_table.csv")
			if err := table.WriteCSV(tablePath); err != nil {
				return err
			}

			for _, column := range []string{"rank_shot_margin_0", "rank_video", "time_correct_submission"} {
				path := filepath.Join(a.cfg.OutputDir, "summary_"+column+".csv")
				if err := report.WriteSummaryCSV(rows, a.registry.DisplayNames(), column, path); err != nil {
					return err
				}
			}

			log.Printf("report: %d rows written to %s", len(rows), a.cfg.OutputDir)
			return nil
		},
	}

	cmd.Flags().Bool("split-users", false, "keep one row per operator instead of folding per team")
	cmd.Flags().Bool("best-user", false, "keep only each team's best operator per task")
	return cmd
}

func newAggregator(a *analysis, splitUsers bool) *stats.Aggregator {
	return &stats.Aggregator{
		Catalog:      a.catalog,
		Ledger:       a.ledger,
		Margins:      a.cfg.Margins,
		MaxRecords:   a.cfg.MaxRecords,
		SplitUsers:   splitUsers,
		FoldUsersFor: a.foldSet(),
	}
}

// aggregateRows loads every team's timeline, from cache when present, and
// reduces them into ranking rows.
func aggregateRows(a *analysis, splitUsers bool) ([]stats.Row, error) {
	store, err := cache.Open(a.cfg.CachePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	agg := newAggregator(a, splitUsers)

	var rows []stats.Row
	for _, name := range a.registry.DisplayNames() {
		tl, ok, err := store.LoadTimeline(a.edition, name, a.cfg.Margins)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Printf("report: %s not cached, computing", name)
			tl, err = computeTimeline(a, name)
			if err != nil {
				return nil, err
			}
		}
		teamRows, err := agg.Rows(tl)
		if err != nil {
			return nil, err
		}
		rows = append(rows, teamRows...)
	}
	return rows, nil
}

func computeTimeline(a *analysis, displayName string) (*timeline.Timeline, error) {
	team, err := a.registry.ByDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	dir, err := a.cfg.TeamLogDir(team.DisplayName, team.LogIdentity)
	if err != nil {
		return nil, err
	}
	return a.processor.ProcessTeam(team, dir)
}
