package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/videobench/retrieval-report/internal/report"
)

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the chart artifacts",
		Long: `Render the static boxplot images and the interactive HTML charts from
the cached timelines: best-shot and best-video rank distributions per team,
a rank scatter per task, and the per-task submission correctness profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bins, _ := cmd.Flags().GetInt("bins")

			a, err := loadAnalysis(cmd)
			if err != nil {
				return err
			}
			rows, err := aggregateRows(a, false)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			teamOrder := a.registry.DisplayNames()

			boxplots := []struct {
				column, title, yLabel, file string
			}{
				{"rank_shot_margin_0", "Best rank of the correct shot", "Rank", "boxplot_rank_shot.png"},
				{"rank_video", "Best rank of the correct video", "Rank", "boxplot_rank_video.png"},
				{"time_correct_submission", "Time to correct submission", "Seconds", "boxplot_time_submission.png"},
			}
			for _, bp := range boxplots {
				path := filepath.Join(a.cfg.OutputDir, bp.file)
				if err := report.SaveMetricBoxplot(rows, teamOrder, bp.column, bp.title, bp.yLabel, path); err != nil {
					return err
				}
			}

			scatterPath := filepath.Join(a.cfg.OutputDir, "rank_shot_scatter.html")
			if err := report.SaveRankScatterHTML(rows, teamOrder, a.catalog,
				"rank_shot_margin_0", "Best correct-shot rank per task", scatterPath); err != nil {
				return err
			}

			ratioPath := filepath.Join(a.cfg.OutputDir, "submission_ratio.html")
			if err := report.SaveSubmissionRatioHTML(a.catalog, a.ledger, bins, ratioPath); err != nil {
				return err
			}

			log.Printf("plot: artifacts written to %s", a.cfg.OutputDir)
			return nil
		},
	}

	cmd.Flags().Int("bins", 10, "time buckets per task in the submission profile")
	return cmd
}
