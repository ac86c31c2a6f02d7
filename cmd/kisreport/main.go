// Command kisreport evaluates known-item-search retrieval logs from a
// video search competition: it normalizes the per-team ranked-result logs,
// reconciles them against the evaluation server's run descriptor, and
// renders ranking statistics as tables and charts.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/videobench/retrieval-report/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kisreport",
		Short: "Known-item-search retrieval log analysis",
		Long: `kisreport analyzes interaction logs from known-item-search video
retrieval competitions. It joins each team's ranked-result logs with the
evaluation server's run descriptor and reports, per task, when the correct
video and the correct shot first appeared in the results and at what rank.

Run 'kisreport preprocess' once per edition to build the timeline cache,
then 'kisreport report' and 'kisreport plot' to generate the artifacts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "kisreport.yaml", "analysis config file")

	rootCmd.AddCommand(
		preprocessCmd(),
		reportCmd(),
		plotCmd(),
		tasksCmd(),
		migrateCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("kisreport %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		},
	}
}
