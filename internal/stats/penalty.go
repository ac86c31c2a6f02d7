package stats

import "math"

// Penalty weights. The lexicographic ordering of the four metrics is
// implemented with fixed multiplicative weights so that a worse value in a
// higher-priority field always dominates any combination of the lower
// ones, without floating approximation at realistic magnitudes.
const (
	// penaltyTaskDuration bounds the time terms: no task runs longer.
	penaltyTaskDuration = 420
	// penaltyMissingTime substitutes a never-achieved time metric.
	penaltyMissingTime = 1000
)

// penalty combines a row's metrics into one strictly ordered score, lower
// is better. Priority from highest to lowest: best shot rank, best shot
// time, best video rank, best video time.
func (a *Aggregator) penalty(row Row) float64 {
	maxRecords := float64(a.MaxRecords)
	if maxRecords <= 0 {
		maxRecords = 10000
	}

	rankVideo := substitute(row.RankVideo, maxRecords+1)
	rankShot := substitute(row.RankShotByMargin[0], maxRecords+1)
	timeVideo := substitute(row.TimeBestVideo, penaltyMissingTime)
	timeShot := substitute(row.TimeBestShot[0], penaltyMissingTime)

	return timeVideo +
		rankVideo*penaltyTaskDuration +
		timeShot*penaltyTaskDuration*maxRecords +
		rankShot*penaltyTaskDuration*penaltyTaskDuration*maxRecords
}

func substitute(v, missing float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return missing
	}
	return v
}

// MarkBestUsers flags, per (team, task), the operator with the lowest
// penalty. With equal penalties the earlier row wins, which after the
// deterministic row ordering means the lower user index.
func (a *Aggregator) MarkBestUsers(rows []Row) {
	type key struct {
		team string
		task string
	}
	best := make(map[key]int)
	for i, row := range rows {
		k := key{team: row.Team, task: row.Task}
		current, seen := best[k]
		if !seen || a.penalty(row) < a.penalty(rows[current]) {
			best[k] = i
		}
	}
	for _, i := range best {
		rows[i].BestUser = true
	}
}

// BestUserRows filters rows down to each (team, task)'s best operator.
// MarkBestUsers must have run first.
func BestUserRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.BestUser {
			out = append(out, row)
		}
	}
	return out
}
