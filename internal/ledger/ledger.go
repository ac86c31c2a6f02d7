// Package ledger records, for every task and team, when (if ever) the team
// achieved its first verified-correct submission, plus the raw submission
// history used for audit export and per-task submission statistics.
package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/teams"
)

// NeverSubmitted is the timestamp-space sentinel for a team without a
// correct submission on a task. Elapsed-time space uses +Inf instead; the
// two domains are deliberately distinct and never conflated.
const NeverSubmitted int64 = -1

// Ledger is the per-(team, task) table of correct-submission timestamps.
// Built once at setup and never mutated, so it is safe to share across
// worker goroutines.
type Ledger struct {
	// csts[teamDisplayName][taskName] = first correct submission timestamp
	// in unix ms, or NeverSubmitted.
	csts map[string]map[string]int64

	// history keeps every submission per task, ordered by timestamp, for
	// audit export and submission statistics.
	history map[string][]dres.Submission

	catalog *catalog.Catalog
}

// Build scans every task's submissions in the order given by the
// competition system. The first CORRECT submission per (team, task) wins;
// later submissions never overwrite it but remain in the raw history. The
// team registry gains the competition uid bindings discovered in the run
// descriptor.
func Build(run *dres.Run, cat *catalog.Catalog, reg *teams.Registry) (*Ledger, error) {
	led := &Ledger{
		csts:    make(map[string]map[string]int64, reg.Len()),
		history: make(map[string][]dres.Submission, cat.Len()),
		catalog: cat,
	}

	for _, name := range reg.DisplayNames() {
		team, err := reg.ByDisplayName(name)
		if err != nil {
			return nil, err
		}
		uid, err := run.TeamUIDByName(team.LogIdentity)
		if err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
		if err := reg.BindUID(name, uid); err != nil {
			return nil, err
		}
		led.csts[name] = make(map[string]int64, cat.Len())
	}

	for _, rec := range run.Tasks {
		if !rec.KIS() {
			continue
		}
		task, err := cat.TaskByName(rec.Name)
		if err != nil {
			// Degenerate tasks are absent from the catalog; their
			// submissions carry no signal either.
			continue
		}

		subs := append([]dres.Submission(nil), rec.Submissions...)
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].Timestamp < subs[j].Timestamp })
		led.history[task.Name] = subs

		for _, name := range reg.DisplayNames() {
			led.csts[name][task.Name] = NeverSubmitted
		}
		for _, sub := range subs {
			if !sub.Correct() {
				continue
			}
			team, ok := reg.ByUID(sub.TeamUID)
			if !ok {
				continue // team not under analysis
			}
			if led.csts[team.DisplayName][task.Name] == NeverSubmitted {
				led.csts[team.DisplayName][task.Name] = sub.Timestamp
			}
		}
	}

	return led, nil
}

// CorrectSubmissionTime returns the first-correct timestamp for a
// (team, task) in unix ms, or NeverSubmitted.
func (l *Ledger) CorrectSubmissionTime(teamDisplayName, taskName string) (int64, error) {
	byTask, ok := l.csts[teamDisplayName]
	if !ok {
		return 0, fmt.Errorf("ledger: unknown team %q", teamDisplayName)
	}
	ts, ok := byTask[taskName]
	if !ok {
		return 0, fmt.Errorf("ledger: unknown task %q", taskName)
	}
	return ts, nil
}

// ElapsedToCorrectSubmission returns the seconds between the adjusted task
// start and the team's first correct submission, or +Inf when the team
// never solved the task.
func (l *Ledger) ElapsedToCorrectSubmission(teamDisplayName, taskName string) (float64, error) {
	ts, err := l.CorrectSubmissionTime(teamDisplayName, taskName)
	if err != nil {
		return 0, err
	}
	if ts == NeverSubmitted {
		return math.Inf(1), nil
	}
	task, err := l.catalog.TaskByName(taskName)
	if err != nil {
		return 0, err
	}
	return task.ElapsedSeconds(ts), nil
}

// SolvedBefore reports whether the team already had a correct submission
// for the task strictly before the given timestamp. Log activity after the
// solve is noise for ranking statistics.
func (l *Ledger) SolvedBefore(teamDisplayName, taskName string, tsMs int64) bool {
	byTask, ok := l.csts[teamDisplayName]
	if !ok {
		return false
	}
	cst, ok := byTask[taskName]
	if !ok || cst == NeverSubmitted {
		return false
	}
	return tsMs > cst
}

// History returns the task's full submission record in timestamp order,
// for audit export.
func (l *Ledger) History(taskName string) []dres.Submission {
	subs := l.history[taskName]
	out := make([]dres.Submission, len(subs))
	copy(out, subs)
	return out
}
