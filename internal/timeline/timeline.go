// Package timeline ingests a team's raw per-session log files, normalizes
// every ranked result list and computes, per logged event, the best known
// rank of the correct video and of the correct shot under the configured
// matching policies.
package timeline

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/normalize"
	"github.com/videobench/retrieval-report/internal/teams"
)

// MatchPolicy selects how the correct shot is recognized among results for
// the correct video.
type MatchPolicy string

const (
	// PolicyTimeInterval accepts results whose reference time falls inside
	// the (margin-widened) ground-truth window. Default from 2022 on.
	PolicyTimeInterval MatchPolicy = "timeinterval"
	// PolicyShotID accepts results whose shot id equals the canonical
	// target shot id. Used for 2021-era logs that report shot ids.
	PolicyShotID MatchPolicy = "shotid"
)

// maxUsersPerTeam is the most concurrently active physical operators a
// team may field.
const maxUsersPerTeam = 2

// ResultRow is one normalized ranked-list entry tagged with its context.
type ResultRow struct {
	Team      string
	User      int
	Task      string
	Timestamp int64
	normalize.Result
}

// Event is one logged query event joined with the rank statistics of the
// results visible at the same instant.
type Event struct {
	Team      string
	User      int
	Task      string
	Timestamp int64

	// Standard event schema fields.
	EventTimestamp int64
	Category       string
	EventType      string
	Value          string
	// Additionals bundles the free-form residual fields of the raw event.
	Additionals map[string]interface{}

	Ranks RankSet
}

// Timeline is the computed per-team event stream.
type Timeline struct {
	Team    string
	Results []ResultRow
	Events  []Event
}

// Processor computes team timelines against shared read-only reference
// tables. A Processor is safe for concurrent use by multiple goroutines.
type Processor struct {
	Edition    edition.Edition
	Catalog    *catalog.Catalog
	Ledger     *ledger.Ledger
	Registry   *normalize.Registry
	Policy     MatchPolicy
	Margins    []int // temporal margins in seconds, e.g. 0 and 5
	MaxRecords int   // ranked list truncation, 0 disables
}

// ProcessTeam walks the team's log directory and produces its timeline.
// One subdirectory per physical operator is the expected layout; files in
// the directory root belong to the first operator. A malformed file fails
// that file only.
func (p *Processor) ProcessTeam(team *teams.Team, logDir string) (*Timeline, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("timeline: reading log directory for %s: %w", team.DisplayName, err)
	}

	var rootFiles []string
	var userDirs []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue // .DS_Store and friends
		}
		if entry.IsDir() {
			userDirs = append(userDirs, filepath.Join(logDir, entry.Name()))
		} else {
			rootFiles = append(rootFiles, filepath.Join(logDir, entry.Name()))
		}
	}
	sort.Strings(userDirs)
	if len(userDirs) > maxUsersPerTeam {
		return nil, fmt.Errorf("timeline: %s has %d user directories, at most %d operators are expected",
			team.DisplayName, len(userDirs), maxUsersPerTeam)
	}

	tl := &Timeline{Team: team.DisplayName}
	strategy := p.Registry.Strategy(p.Edition, team.LogIdentity)

	for _, path := range rootFiles {
		if err := p.processFile(tl, team, strategy, path, 0); err != nil {
			return nil, err
		}
	}
	for user, dir := range userDirs {
		files, err := listFiles(dir)
		if err != nil {
			log.Printf("timeline: skipping unreadable user directory %s: %v", dir, err)
			continue
		}
		for _, path := range files {
			if err := p.processFile(tl, team, strategy, path, user); err != nil {
				return nil, err
			}
		}
	}

	p.finish(tl)
	return tl, nil
}

// processFile runs the per-snapshot state machine. Per-file corruption is
// logged and confined to the file: partial corruption across hundreds of
// session files is expected operational reality. A rank convention
// violation is different: it poisons every rank statistic of the run, so
// it aborts the team instead of being skipped.
func (p *Processor) processFile(tl *Timeline, team *teams.Team, strategy normalize.Strategy, path string, user int) error {
	snap, err := readSnapshot(path)
	if err != nil {
		log.Printf("timeline: skipping malformed log file %s: %v", path, err)
		return nil
	}

	ts, err := snap.authoritativeTimestamp(path)
	if err != nil {
		log.Printf("timeline: skipping %s: %v", path, err)
		return nil
	}

	task := p.Catalog.TaskAt(ts)
	if task == nil {
		// Logs outside every task window are normal operational noise.
		return nil
	}
	if p.Ledger.SolvedBefore(team.DisplayName, task.Name, ts) {
		// Post-solve activity is noise for ranking statistics.
		return nil
	}

	if len(snap.Results) > 0 {
		results, err := normalize.NormalizeList(strategy, snap.Results, p.MaxRecords)
		switch {
		case errors.Is(err, normalize.ErrRankConvention):
			return fmt.Errorf("timeline: %s: %w", path, err)
		case err != nil:
			log.Printf("timeline: skipping results of %s: %v", path, err)
		default:
			for _, res := range results {
				tl.Results = append(tl.Results, ResultRow{
					Team:      team.DisplayName,
					User:      user,
					Task:      task.Name,
					Timestamp: ts,
					Result:    res,
				})
			}
		}
	}

	for _, raw := range snap.events() {
		ev := newEvent(raw)
		ev.Team = team.DisplayName
		ev.User = user
		ev.Task = task.Name
		// Some teams log approximated event timestamps; the snapshot
		// timestamp is authoritative so the per-instant rank join works.
		ev.Timestamp = ts
		tl.Events = append(tl.Events, ev)
	}
	return nil
}

// finish sorts the streams by timestamp, computes per-instant rank sets
// over the full visible result set of each instant and joins them onto the
// event stream. Events at instants without any logged results are dropped,
// duplicated rows from log repetitions collapse to one.
func (p *Processor) finish(tl *Timeline) {
	sort.SliceStable(tl.Results, func(i, j int) bool { return tl.Results[i].Timestamp < tl.Results[j].Timestamp })
	sort.SliceStable(tl.Events, func(i, j int) bool { return tl.Events[i].Timestamp < tl.Events[j].Timestamp })

	ranksByInstant := p.rankAllInstants(tl.Results)

	joined := tl.Events[:0]
	seen := make(map[string]struct{}, len(tl.Events))
	for _, ev := range tl.Events {
		ranks, ok := ranksByInstant[ev.Timestamp]
		if !ok {
			continue
		}
		ev.Ranks = ranks
		key := ev.dedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		joined = append(joined, ev)
	}
	tl.Events = joined
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
