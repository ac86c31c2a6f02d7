package timeline

import (
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/videobench/retrieval-report/internal/catalog"
)

// RankSet holds, for one instant, the best (minimum) rank of the correct
// answer. The shot fields are filled according to the processor's matching
// policy. Absent matches are +Inf; the +Inf to -1 conversion happens once
// at the aggregation boundary, never here.
type RankSet struct {
	// Video is the best rank of any result on the target video.
	Video float64
	// Exact is the best rank among results whose shot id equals the
	// canonical target shot id. Filled only under the shot-id policy.
	Exact float64
	// ByMargin is the best rank among results whose reference time falls
	// inside the ground-truth window widened by each configured margin,
	// keyed by margin seconds. Under the shot-id policy every margin
	// mirrors Exact.
	ByMargin map[int]float64
}

func (p *Processor) emptyRankSet() RankSet {
	rs := RankSet{
		Video:    math.Inf(1),
		Exact:    math.Inf(1),
		ByMargin: make(map[int]float64, len(p.Margins)),
	}
	for _, m := range p.Margins {
		rs.ByMargin[m] = math.Inf(1)
	}
	return rs
}

// rankAllInstants folds the timestamp-sorted result stream into one RankSet
// per instant. Rows sharing a timestamp form one visible result set even
// when they came from different files.
func (p *Processor) rankAllInstants(results []ResultRow) map[int64]RankSet {
	ranks := make(map[int64]RankSet)
	for start := 0; start < len(results); {
		end := start
		for end < len(results) && results[end].Timestamp == results[start].Timestamp {
			end++
		}
		group := results[start:end]

		task, err := p.Catalog.TaskByName(group[0].Task)
		if err != nil {
			// Rows are tagged from the catalog, so this is unreachable with
			// consistent inputs; guard anyway rather than panic mid-batch.
			log.Printf("timeline: dropping ranks at %d: %v", group[0].Timestamp, err)
			start = end
			continue
		}
		ranks[group[0].Timestamp] = p.rankInstant(task, group)
		start = end
	}
	return ranks
}

// rankInstant computes the best ranks of the correct answer among the
// results visible at one instant. The configured policy selects how the
// correct shot is recognized: time-interval matching fills the per-margin
// ranks, shot-id matching fills the exact rank. Ties on the minimum rank
// are irrelevant: the metric is the rank value, not which row achieved it.
func (p *Processor) rankInstant(task *catalog.Task, rows []ResultRow) RankSet {
	rs := p.emptyRankSet()
	target := p.canonicalVideoID(task.TargetVideoID)

	for _, row := range rows {
		if p.canonicalVideoID(row.VideoID) != target {
			continue
		}
		rank := float64(row.Rank)
		if rank < rs.Video {
			rs.Video = rank
		}

		if p.Policy == PolicyShotID {
			if row.ShotID != 0 && row.ShotID == task.TargetShotID() && rank < rs.Exact {
				rs.Exact = rank
			}
			continue
		}

		// The invalid-time sentinel is negative and must never fall inside
		// a margin window that extends below zero.
		if row.ShotTimeMs < 0 {
			continue
		}
		for _, m := range p.Margins {
			startMs, endMs := task.MarginWindow(m)
			if row.ShotTimeMs >= float64(startMs) && row.ShotTimeMs <= float64(endMs) && rank < rs.ByMargin[m] {
				rs.ByMargin[m] = rank
			}
		}
	}

	if p.Policy == PolicyShotID {
		// Shot-id equality admits no temporal widening; every configured
		// margin reports the exact-match rank so the per-margin statistics
		// stay comparable across editions.
		for _, m := range p.Margins {
			rs.ByMargin[m] = rs.Exact
		}
	}
	return rs
}

// canonicalVideoID prepares a video identifier for equality comparison.
// Numeric editions compare by value so padded and unpadded spellings match;
// string editions compare exactly. No cross-edition coercion happens here.
func (p *Processor) canonicalVideoID(id string) string {
	if !p.Edition.NumericVideoIDs() {
		return id
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	if _, err := strconv.Atoi(trimmed); err != nil {
		return id
	}
	return trimmed
}
