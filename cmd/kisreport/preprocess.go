package main

import (
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/videobench/retrieval-report/internal/cache"
)

func preprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Build and cache per-team timelines",
		Long: `Parse every configured team's raw log directory, normalize the ranked
result lists, compute per-event rank statistics and store the timelines in
the SQLite cache. Teams already cached are skipped unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			workers, _ := cmd.Flags().GetInt("workers")
			if workers < 1 {
				workers = 1
			}

			a, err := loadAnalysis(cmd)
			if err != nil {
				return err
			}

			store, err := cache.Open(a.cfg.CachePath)
			if err != nil {
				return err
			}
			defer store.Close()

			var g errgroup.Group
			g.SetLimit(workers)
			for _, name := range a.registry.DisplayNames() {
				g.Go(func() error {
					team, err := a.registry.ByDisplayName(name)
					if err != nil {
						return err
					}

					if !force {
						if _, ok, err := store.LoadTimeline(a.edition, name, a.cfg.Margins); err != nil {
							return err
						} else if ok {
							log.Printf("preprocess: %s already cached, skipping", name)
							return nil
						}
					}

					dir, err := a.cfg.TeamLogDir(team.DisplayName, team.LogIdentity)
					if err != nil {
						return err
					}

					tl, err := a.processor.ProcessTeam(team, dir)
					if err != nil {
						return err
					}

					buildID, err := store.SaveTimeline(a.edition, tl)
					if err != nil {
						return err
					}
					log.Printf("preprocess: %s: %d results, %d events (build %s)",
						name, len(tl.Results), len(tl.Events), buildID)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if err := store.SaveSubmissions(a.edition, a.run.ID, a.catalog, a.ledger); err != nil {
				return err
			}
			log.Printf("preprocess: submission audit exported for %s", a.edition)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "rebuild timelines even when cached")
	cmd.Flags().Int("workers", 4, "concurrent team builds")
	return cmd
}
