package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/videobench/retrieval-report/internal/cache"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|version|force <v>]",
		Short: "Manage the cache database schema",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("migrations")

			cachePath := "kisreport.db"
			if cfg, err := loadCacheConfig(path); err == nil {
				cachePath = cfg
			}

			store, err := cache.Open(cachePath)
			if err != nil {
				return err
			}
			defer store.Close()

			switch args[0] {
			case "up":
				return store.MigrateUp(dir)
			case "down":
				return store.MigrateDown(dir)
			case "version":
				version, dirty, err := store.MigrateVersion(dir)
				if err != nil {
					return err
				}
				cmd.Printf("version %d dirty=%v\n", version, dirty)
				return nil
			case "force":
				if len(args) < 2 {
					return fmt.Errorf("force requires a version argument")
				}
				v, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("bad version %q: %w", args[1], err)
				}
				return store.MigrateForce(dir, v)
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
		},
	}

	cmd.Flags().String("migrations", "internal/cache/migrations", "migrations directory")
	return cmd
}
