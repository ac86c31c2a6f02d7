package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the evaluated tasks and their submission statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAnalysis(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tTYPE\tDURATION\tTARGET\tSHOTS\tCORRECT\tWRONG\tPRECISION")
			for _, task := range a.catalog.TasksByStart() {
				sub := a.ledger.SubmissionStats(task.Name)
				precision := "-"
				if p, ok := sub.Precision(); ok {
					precision = fmt.Sprintf("%.2f", p)
				}
				shots := make([]string, len(task.TargetShotIDs))
				for i, id := range task.TargetShotIDs {
					shots[i] = fmt.Sprintf("%d", id)
				}
				fmt.Fprintf(w, "%s\t%s\t%ds\t%s [%d, %d]ms\t%s\t%d\t%d\t%s\n",
					task.Name, task.Type, task.DurationMs/1000,
					task.TargetVideoID, task.TargetStartMs, task.TargetEndMs,
					strings.Join(shots, ","),
					sub.Correct, sub.Incorrect, precision)
			}
			return w.Flush()
		},
	}
}
