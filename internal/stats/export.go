package stats

import (
	"fmt"
	"math"
	"sort"
)

// NeverSentinel is the single external reporting sentinel. Internal +Inf
// (and impossible negatives) normalize to it exactly once, at this
// boundary; the conversion is never propagated back upstream.
const NeverSentinel float64 = -1

// Export converts an internal metric value to the external reporting
// domain: finite non-negative values round to whole numbers, everything
// else becomes NeverSentinel. Notably never 0 and never NaN.
func Export(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return NeverSentinel
	}
	return math.Round(v)
}

// Columns returns the row's named numeric columns in the external domain,
// the in-process contract consumed by rendering and export code.
func (r Row) Columns() map[string]float64 {
	cols := map[string]float64{
		"rank_video":                  Export(r.RankVideo),
		"rank_shot_exact":             Export(r.RankShotExact),
		"time_best_video":             Export(r.TimeBestVideo),
		"time_first_appearance":       Export(r.TimeFirstAppearance),
		"rank_shot_first_appearance":  Export(r.RankShotFirstAppearance),
		"time_last_appearance":        Export(r.TimeLastAppearance),
		"rank_shot_last_appearance":   Export(r.RankShotLastAppearance),
		"time_first_appearance_video": Export(r.TimeFirstAppearanceVideo),
		"rank_video_first_appearance": Export(r.RankVideoFirstAppearance),
		"time_correct_submission":     Export(r.TimeCorrectSubmission),
	}
	for m, rank := range r.RankShotByMargin {
		cols[fmt.Sprintf("rank_shot_margin_%d", m)] = Export(rank)
	}
	for m, t := range r.TimeBestShot {
		cols[fmt.Sprintf("time_best_shot_margin_%d", m)] = Export(t)
	}
	return cols
}

// ColumnNames lists the column keys of Columns for the given margins, in
// stable report order.
func ColumnNames(margins []int) []string {
	sorted := append([]int(nil), margins...)
	sort.Ints(sorted)

	names := []string{"rank_video"}
	for _, m := range sorted {
		names = append(names, fmt.Sprintf("rank_shot_margin_%d", m))
	}
	names = append(names, "rank_shot_exact", "time_best_video")
	for _, m := range sorted {
		names = append(names, fmt.Sprintf("time_best_shot_margin_%d", m))
	}
	names = append(names,
		"time_first_appearance",
		"rank_shot_first_appearance",
		"time_last_appearance",
		"rank_shot_last_appearance",
		"time_first_appearance_video",
		"rank_video_first_appearance",
		"time_correct_submission",
	)
	return names
}
