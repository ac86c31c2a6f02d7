// Package stats reduces computed team timelines into one row per
// (team, user, task): best ranks of the correct video and shot, first and
// last appearance times, and the elapsed time to the official correct
// submission. Internal sentinels use +Inf; the one-way conversion to the
// external -1 reporting sentinel happens in Export, never earlier.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/timeline"
)

// neverTimestamp marks a metric whose achieving instant does not exist.
const neverTimestamp int64 = -1

// Row is the aggregated statistics row for one (team, user, task).
type Row struct {
	Team string
	User int
	Task string
	// TaskStartMs is the task's adjusted start, carried for chronological
	// ordering in reports.
	TaskStartMs int64

	// RankVideo is the best rank of the target video across all events;
	// TimestampBestVideo is the earliest instant achieving it.
	RankVideo          float64
	TimestampBestVideo int64
	TimeBestVideo      float64 // seconds since adjusted start, +Inf if never

	// RankShotByMargin are the best shot ranks under the time-interval
	// policy, keyed by margin seconds, with their achieving instants.
	RankShotByMargin      map[int]float64
	TimestampBestShot     map[int]int64
	TimeBestShot          map[int]float64
	// RankShotExact is the best rank under the exact-shot-id policy.
	RankShotExact float64

	// First/last instants at which the correct shot (margin 0) was visible
	// anywhere in the ranked list, and the rank it held there.
	TimeFirstAppearance     float64
	RankShotFirstAppearance float64
	TimeLastAppearance      float64
	RankShotLastAppearance  float64
	// Video analogue of the first appearance.
	TimeFirstAppearanceVideo float64
	RankVideoFirstAppearance float64

	// TimeCorrectSubmission is the ledger's elapsed time to the official
	// correct submission, +Inf if the team never solved the task.
	TimeCorrectSubmission float64

	// BestUser marks the better of a team's two operators for the task,
	// set by MarkBestUsers.
	BestUser bool
}

// Aggregator folds event streams into Rows against the shared reference
// tables.
type Aggregator struct {
	Catalog *catalog.Catalog
	Ledger  *ledger.Ledger
	Margins []int
	// MaxRecords caps usable ranks: anything beyond the list truncation
	// limit counts as not found.
	MaxRecords int
	// SplitUsers keeps per-operator rows; otherwise all activity folds
	// into user 0.
	SplitUsers bool
	// FoldUsersFor lists teams whose operators are indistinguishable in
	// the logs; their users fold regardless of SplitUsers.
	FoldUsersFor map[string]bool
}

// Rows reduces one team's timeline. Events must already be in
// non-decreasing timestamp order, which timeline guarantees.
func (a *Aggregator) Rows(tl *timeline.Timeline) ([]Row, error) {
	type groupKey struct {
		user int
		task string
	}

	groups := make(map[groupKey][]timeline.Event)
	var order []groupKey
	for _, ev := range tl.Events {
		user := ev.User
		if !a.SplitUsers || a.FoldUsersFor[tl.Team] {
			user = 0
		}
		key := groupKey{user: user, task: ev.Task}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ev)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].task != order[j].task {
			return order[i].task < order[j].task
		}
		return order[i].user < order[j].user
	})

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		row, err := a.reduce(tl.Team, key.user, key.task, groups[key])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// reduce computes one Row from the task's event group.
func (a *Aggregator) reduce(team string, user int, taskName string, events []timeline.Event) (Row, error) {
	task, err := a.Catalog.TaskByName(taskName)
	if err != nil {
		return Row{}, fmt.Errorf("stats: %w", err)
	}

	row := Row{
		Team:              team,
		User:              user,
		Task:              taskName,
		TaskStartMs:       task.AdjustedStartMs,
		RankVideo:         math.Inf(1),
		RankShotExact:     math.Inf(1),
		TimestampBestVideo: neverTimestamp,
		RankShotByMargin:  make(map[int]float64, len(a.Margins)),
		TimestampBestShot: make(map[int]int64, len(a.Margins)),
		TimeBestShot:      make(map[int]float64, len(a.Margins)),

		TimeFirstAppearance:      math.Inf(1),
		RankShotFirstAppearance:  math.Inf(1),
		TimeLastAppearance:       math.Inf(1),
		RankShotLastAppearance:   math.Inf(1),
		TimeFirstAppearanceVideo: math.Inf(1),
		RankVideoFirstAppearance: math.Inf(1),
	}
	for _, m := range a.Margins {
		row.RankShotByMargin[m] = math.Inf(1)
		row.TimestampBestShot[m] = neverTimestamp
	}

	firstShotTs, lastShotTs, firstVideoTs := neverTimestamp, neverTimestamp, neverTimestamp

	for _, ev := range events {
		rankVideo := a.clampRank(ev.Ranks.Video)
		if rankVideo < row.RankVideo {
			row.RankVideo = rankVideo
			row.TimestampBestVideo = ev.Timestamp
		}
		if exact := a.clampRank(ev.Ranks.Exact); exact < row.RankShotExact {
			row.RankShotExact = exact
		}
		for _, m := range a.Margins {
			if rank := a.clampRank(ev.Ranks.ByMargin[m]); rank < row.RankShotByMargin[m] {
				row.RankShotByMargin[m] = rank
				row.TimestampBestShot[m] = ev.Timestamp
			}
		}

		// Appearance tracking uses the margin-0 window: the correct shot
		// was somewhere in the visible ranked list.
		if rank := a.clampRank(ev.Ranks.ByMargin[0]); !math.IsInf(rank, 1) {
			if firstShotTs == neverTimestamp {
				firstShotTs = ev.Timestamp
				row.RankShotFirstAppearance = rank
			}
			lastShotTs = ev.Timestamp
			row.RankShotLastAppearance = rank
		}
		if !math.IsInf(rankVideo, 1) && firstVideoTs == neverTimestamp {
			firstVideoTs = ev.Timestamp
			row.RankVideoFirstAppearance = rankVideo
		}
	}

	// Metrics never achieved keep sentinel timestamps.
	if math.IsInf(row.RankVideo, 1) {
		row.TimestampBestVideo = neverTimestamp
	}
	for _, m := range a.Margins {
		if math.IsInf(row.RankShotByMargin[m], 1) {
			row.TimestampBestShot[m] = neverTimestamp
		}
	}

	row.TimeBestVideo = elapsedOrInf(task, row.TimestampBestVideo)
	for _, m := range a.Margins {
		row.TimeBestShot[m] = elapsedOrInf(task, row.TimestampBestShot[m])
	}
	row.TimeFirstAppearance = elapsedOrInf(task, firstShotTs)
	row.TimeLastAppearance = elapsedOrInf(task, lastShotTs)
	row.TimeFirstAppearanceVideo = elapsedOrInf(task, firstVideoTs)

	if row.TimeCorrectSubmission, err = a.Ledger.ElapsedToCorrectSubmission(team, taskName); err != nil {
		return Row{}, fmt.Errorf("stats: %w", err)
	}

	return row, nil
}

// clampRank lifts ranks beyond the truncation limit to +Inf: a hit deeper
// than anything an operator could inspect is not a hit.
func (a *Aggregator) clampRank(rank float64) float64 {
	if a.MaxRecords > 0 && rank > float64(a.MaxRecords) {
		return math.Inf(1)
	}
	return rank
}

// elapsedOrInf converts an achieving instant to seconds since the adjusted
// task start. Sentinel and pre-start instants read as never.
func elapsedOrInf(task *catalog.Task, tsMs int64) float64 {
	if tsMs == neverTimestamp {
		return math.Inf(1)
	}
	elapsed := task.ElapsedSeconds(tsMs)
	if elapsed <= 0 {
		return math.Inf(1)
	}
	return elapsed
}
