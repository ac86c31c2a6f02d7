package ledger

import (
	"github.com/videobench/retrieval-report/internal/dres"
)

// TaskSubmissionStats summarizes the submission record of one task across
// all teams.
type TaskSubmissionStats struct {
	Correct       int
	Incorrect     int
	Indeterminate int
	// CorrectVideos counts distinct video ids among correct submissions.
	CorrectVideos int
}

// Attempts is the total number of submissions.
func (s TaskSubmissionStats) Attempts() int {
	return s.Correct + s.Incorrect + s.Indeterminate
}

// Precision is the fraction of correct submissions among all attempts. The
// second return is false when no submission exists at all.
func (s TaskSubmissionStats) Precision() (float64, bool) {
	if s.Attempts() == 0 {
		return 0, false
	}
	return float64(s.Correct) / float64(s.Attempts()), true
}

// SubmissionStats folds a task's submission history into summary counts.
func (l *Ledger) SubmissionStats(taskName string) TaskSubmissionStats {
	var stats TaskSubmissionStats
	videos := make(map[string]struct{})
	for _, sub := range l.history[taskName] {
		switch sub.Status {
		case dres.StatusCorrect:
			stats.Correct++
			videos[sub.ItemName] = struct{}{}
		case dres.StatusWrong:
			stats.Incorrect++
		default:
			stats.Indeterminate++
		}
	}
	stats.CorrectVideos = len(videos)
	return stats
}

// Bin is one fixed-width time bucket of a task's submission activity.
type Bin struct {
	Correct int
	Wrong   int
}

// Total is the number of submissions in the bucket.
func (b Bin) Total() int { return b.Correct + b.Wrong }

// CorrectRatio is the fraction of correct submissions in the bucket. Empty
// buckets report 1: no attempt means no wrong attempt.
func (b Bin) CorrectRatio() float64 {
	if b.Total() == 0 {
		return 1
	}
	return float64(b.Correct) / float64(b.Total())
}

// SubmissionBins folds the task's submissions into n fixed-width buckets
// spanning [adjusted start, end]. Bucket membership is computed by direct
// division over the sorted history; submissions outside the window clamp to
// the nearest bucket.
func (l *Ledger) SubmissionBins(taskName string, n int) ([]Bin, error) {
	task, err := l.catalog.TaskByName(taskName)
	if err != nil {
		return nil, err
	}

	bins := make([]Bin, n)
	span := task.EndedMs - task.AdjustedStartMs
	if span <= 0 || n == 0 {
		return bins, nil
	}

	for _, sub := range l.history[taskName] {
		idx := int((sub.Timestamp - task.AdjustedStartMs) * int64(n) / span)
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		if sub.Correct() {
			bins[idx].Correct++
		} else {
			bins[idx].Wrong++
		}
	}
	return bins, nil
}

// SubmissionRatioBySecond folds the task's submissions into per-second
// correct ratios keyed by whole seconds since the adjusted start.
func (l *Ledger) SubmissionRatioBySecond(taskName string) (map[int]float64, error) {
	task, err := l.catalog.TaskByName(taskName)
	if err != nil {
		return nil, err
	}

	correct := make(map[int]int)
	total := make(map[int]int)
	for _, sub := range l.history[taskName] {
		sec := int((sub.Timestamp - task.AdjustedStartMs) / 1000)
		total[sec]++
		if sub.Correct() {
			correct[sec]++
		}
	}

	ratio := make(map[int]float64, len(total))
	for sec, n := range total {
		ratio[sec] = float64(correct[sec]) / float64(n)
	}
	return ratio, nil
}
