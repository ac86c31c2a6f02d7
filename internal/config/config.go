// Package config defines the analysis run configuration: which competition
// edition to evaluate, where the raw data lives, and the tuning knobs of the
// ranking statistics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/videobench/retrieval-report/internal/edition"
)

// Config is the root configuration for one analysis run. Paths are resolved
// relative to the working directory.
type Config struct {
	// Edition selects the competition edition (vbs2021, vbs2022, vbse2022,
	// vbs2023) and with it the log schema and parser defaults.
	Edition string `koanf:"edition"`

	// RunFile is the competition run descriptor JSON exported by the
	// evaluation server.
	RunFile string `koanf:"run_file"`

	// AuditFile is the JSONL audit trail; optional, used for session-to-team
	// login mapping.
	AuditFile string `koanf:"audit_file"`

	// SegmentsFile is the master shot-boundary CSV of the video collection.
	SegmentsFile string `koanf:"segments_file"`

	// CineastSegmentsFile is the alternative segmentation some retrieval
	// systems report against; optional.
	CineastSegmentsFile string `koanf:"cineast_segments_file"`

	// FPSFile maps video ids to frame rates.
	FPSFile string `koanf:"fps_file"`

	// SegmentBoundary selects the authoritative boundary pair of the
	// segmentation: "milliseconds" (default) or "frames".
	SegmentBoundary string `koanf:"segment_boundary"`

	// TeamsFile is the team metadata JSON keyed by display name.
	TeamsFile string `koanf:"teams_file"`

	// LogsDir holds one subdirectory per team, named by the team's log
	// identity. TeamLogDirs overrides the location per display name.
	LogsDir     string            `koanf:"logs_dir"`
	TeamLogDirs map[string]string `koanf:"team_log_dirs"`

	// Margins are the time-interval tolerances, in seconds, evaluated when
	// matching ranked results against the target segment.
	Margins []int `koanf:"margins"`

	// MaxRecords truncates each ranked result list before normalization.
	MaxRecords int `koanf:"max_records"`

	// MatchPolicy selects how a result is compared against the target:
	// "timeinterval" (default) or "shotid".
	MatchPolicy string `koanf:"match_policy"`

	// FoldUsersFor lists teams whose per-user streams are folded into a
	// single combined user before aggregation.
	FoldUsersFor []string `koanf:"fold_users_for"`

	// CachePath is the SQLite cache database location.
	CachePath string `koanf:"cache_path"`

	// OutputDir receives the generated tables and charts.
	OutputDir string `koanf:"output_dir"`
}

// Defaults returns a Config with the standard analysis parameters set.
func Defaults() *Config {
	return &Config{
		SegmentBoundary: "milliseconds",
		Margins:         []int{0, 5},
		MaxRecords:      10000,
		MatchPolicy:     "timeinterval",
		CachePath:       "kisreport.db",
		OutputDir:       "out",
	}
}

// Load builds a Config by layering defaults, the YAML file at path, and
// KISREPORT_-prefixed environment variables, in that precedence order.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	// KISREPORT_MAX_RECORDS -> max_records and so on; underscores are kept
	// so env keys line up with the koanf tags.
	envProvider := env.Provider("KISREPORT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "kisreport_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if _, err := edition.Parse(c.Edition); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, path := range map[string]string{
		"run_file":      c.RunFile,
		"segments_file": c.SegmentsFile,
		"fps_file":      c.FPSFile,
		"teams_file":    c.TeamsFile,
	} {
		if path == "" {
			return fmt.Errorf("config: %s must be set", name)
		}
	}
	if c.LogsDir == "" && len(c.TeamLogDirs) == 0 {
		return fmt.Errorf("config: logs_dir or team_log_dirs must be set")
	}
	if len(c.Margins) == 0 {
		return fmt.Errorf("config: margins must not be empty")
	}
	for _, m := range c.Margins {
		if m < 0 {
			return fmt.Errorf("config: margin %d is negative", m)
		}
	}
	if c.MaxRecords <= 0 {
		return fmt.Errorf("config: max_records must be positive")
	}
	switch c.MatchPolicy {
	case "timeinterval", "shotid":
	default:
		return fmt.Errorf("config: unknown match_policy %q", c.MatchPolicy)
	}
	switch c.SegmentBoundary {
	case "milliseconds", "frames":
	default:
		return fmt.Errorf("config: unknown segment_boundary %q", c.SegmentBoundary)
	}
	return nil
}

// ParsedEdition returns the validated edition value.
func (c *Config) ParsedEdition() edition.Edition {
	ed, err := edition.Parse(c.Edition)
	if err != nil {
		// Validate is a precondition of use.
		panic(err)
	}
	return ed
}

// TeamLogDir resolves the log directory for a team, preferring an explicit
// per-team override over the shared logs root.
func (c *Config) TeamLogDir(displayName, logIdentity string) (string, error) {
	if dir, ok := c.TeamLogDirs[displayName]; ok {
		return dir, nil
	}
	if c.LogsDir == "" {
		return "", fmt.Errorf("config: no log directory configured for team %q", displayName)
	}
	dir := filepath.Join(c.LogsDir, logIdentity)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("config: log directory for team %q: %w", displayName, err)
	}
	return dir, nil
}
