package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/config"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/normalize"
	"github.com/videobench/retrieval-report/internal/teams"
	"github.com/videobench/retrieval-report/internal/timeline"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

// analysis bundles the shared read-only reference tables every subcommand
// works against.
type analysis struct {
	cfg       *config.Config
	edition   edition.Edition
	index     *videoindex.Index
	cineastIx *videoindex.Index
	run       *dres.Run
	registry  *teams.Registry
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	processor *timeline.Processor
}

// loadAnalysis builds the full reference setup from the config file named
// by the --config flag.
func loadAnalysis(cmd *cobra.Command) (*analysis, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	ed := cfg.ParsedEdition()

	boundary := videoindex.BoundaryMilliseconds
	if cfg.SegmentBoundary == "frames" {
		boundary = videoindex.BoundaryFrames
	}

	ix, err := videoindex.LoadIndex(boundary, []string{cfg.SegmentsFile}, cfg.FPSFile)
	if err != nil {
		return nil, fmt.Errorf("loading segment index: %w", err)
	}
	cineastIx := ix
	if cfg.CineastSegmentsFile != "" {
		cineastIx, err = videoindex.LoadIndex(boundary, []string{cfg.CineastSegmentsFile}, cfg.FPSFile)
		if err != nil {
			return nil, fmt.Errorf("loading cineast segment index: %w", err)
		}
	}

	run, err := dres.ReadRun(cfg.RunFile, ed)
	if err != nil {
		return nil, err
	}

	reg, err := teams.LoadRegistry(cfg.TeamsFile)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(run, ix, ed)
	if err != nil {
		return nil, err
	}
	log.Printf("catalog: %d tasks across [%d, %d]", cat.Len(), cat.TasksByStart()[0].AdjustedStartMs, cat.TasksByStart()[cat.Len()-1].EndedMs)

	led, err := ledger.Build(run, cat, reg)
	if err != nil {
		return nil, err
	}

	if cfg.AuditFile != "" {
		audits, err := dres.ReadAudits(cfg.AuditFile, ed)
		if err != nil {
			return nil, err
		}
		log.Printf("audit: %d events, %d login sessions", len(audits), len(dres.SessionTeams(audits)))
	}

	proc := &timeline.Processor{
		Edition:    ed,
		Catalog:    cat,
		Ledger:     led,
		Registry:   normalize.NewRegistry(ix, cineastIx),
		Policy:     timeline.MatchPolicy(cfg.MatchPolicy),
		Margins:    cfg.Margins,
		MaxRecords: cfg.MaxRecords,
	}

	return &analysis{
		cfg:       cfg,
		edition:   ed,
		index:     ix,
		cineastIx: cineastIx,
		run:       run,
		registry:  reg,
		catalog:   cat,
		ledger:    led,
		processor: proc,
	}, nil
}

// loadCacheConfig resolves the cache path from the config file. Callers
// fall back to the default path when the config cannot be loaded.
func loadCacheConfig(path string) (string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	return cfg.CachePath, nil
}

// foldSet converts the fold_users_for list into the aggregator's set form.
func (a *analysis) foldSet() map[string]bool {
	set := make(map[string]bool, len(a.cfg.FoldUsersFor))
	for _, team := range a.cfg.FoldUsersFor {
		set[team] = true
	}
	return set
}
