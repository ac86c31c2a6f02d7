// Package catalog holds the known-item-search tasks of one competition run
// and resolves timestamps to the enclosing task via sorted-interval binary
// search.
package catalog

import (
	"fmt"
	"log"
	"sort"

	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

// minTaskDurationMs filters out degenerate descriptor entries. Tasks
// lasting a second or less are aborted starts, not real challenges.
const minTaskDurationMs = 1000

// Task is one timed retrieval challenge with its ground truth resolved
// against the video index. Tasks are built once at setup and never mutated.
type Task struct {
	Name     string
	UID      string
	Type     string
	Position int

	// StartedMs is the nominal start from the descriptor. AdjustedStartMs
	// adds the edition's fixed countdown offset and is the zero point of
	// every elapsed-time computation.
	StartedMs       int64
	AdjustedStartMs int64
	EndedMs         int64
	DurationMs      int64

	TargetVideoID string
	TargetStartMs int64
	TargetEndMs   int64

	// TargetShotIDs lists every shot intersecting the ground-truth range,
	// in increasing order. This list is authoritative.
	TargetShotIDs []int

	Hints []dres.Hint
}

// TargetShotID is the shot enclosing the start of the ground-truth range,
// kept as a convenience alias for the exact-shot matching policy. Equal to
// the first element of TargetShotIDs.
func (t *Task) TargetShotID() int {
	if len(t.TargetShotIDs) == 0 {
		return 0
	}
	return t.TargetShotIDs[0]
}

// Contains reports whether a timestamp falls inside the task's active
// window. Both endpoints are inclusive.
func (t *Task) Contains(tsMs int64) bool {
	return tsMs >= t.AdjustedStartMs && tsMs <= t.EndedMs
}

// ElapsedSeconds converts an absolute timestamp to seconds since the
// adjusted task start.
func (t *Task) ElapsedSeconds(tsMs int64) float64 {
	return float64(tsMs-t.AdjustedStartMs) / 1000
}

// MarginWindow returns the ground-truth acceptance window widened
// symmetrically by margin seconds.
func (t *Task) MarginWindow(marginSeconds int) (startMs, endMs int64) {
	m := int64(marginSeconds) * 1000
	return t.TargetStartMs - m, t.TargetEndMs + m
}

// Catalog resolves tasks by name and by timestamp.
type Catalog struct {
	byName  []*Task // sorted by name for deterministic iteration
	names   map[string]*Task
	byStart []*Task // sorted by adjusted start
	starts  []int64
	ends    []int64
}

// New builds the catalog from a decoded run descriptor. Ground-truth shot
// ids are resolved against the video index; an unknown target video means
// the reference corpus is broken and aborts construction.
func New(run *dres.Run, ix *videoindex.Index, ed edition.Edition) (*Catalog, error) {
	c := &Catalog{names: make(map[string]*Task)}
	offset := ed.StartOffsetMs()

	for _, rec := range run.Tasks {
		if !rec.KIS() {
			continue
		}
		if rec.DurationMs <= minTaskDurationMs || rec.EndedMs-rec.StartedMs <= minTaskDurationMs {
			log.Printf("catalog: discarding degenerate task %s (duration %dms)", rec.Name, rec.EndedMs-rec.StartedMs)
			continue
		}

		shotIDs, err := ix.ShotsInRange(rec.TargetVideoID, rec.TargetStartMs, rec.TargetEndMs)
		if err != nil {
			return nil, fmt.Errorf("catalog: resolving ground truth for task %s: %w", rec.Name, err)
		}

		task := &Task{
			Name:            rec.Name,
			UID:             rec.UID,
			Type:            rec.TaskType,
			Position:        rec.Position,
			StartedMs:       rec.StartedMs,
			AdjustedStartMs: rec.StartedMs + offset,
			EndedMs:         rec.EndedMs,
			DurationMs:      rec.DurationMs,
			TargetVideoID:   rec.TargetVideoID,
			TargetStartMs:   rec.TargetStartMs,
			TargetEndMs:     rec.TargetEndMs,
			TargetShotIDs:   shotIDs,
			Hints:           rec.Hints,
		}
		if _, dup := c.names[task.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate task name %q in run descriptor", task.Name)
		}
		c.names[task.Name] = task
		c.byName = append(c.byName, task)
	}

	if len(c.byName) == 0 {
		return nil, fmt.Errorf("catalog: run descriptor contains no usable KIS tasks")
	}

	sort.Slice(c.byName, func(i, j int) bool { return c.byName[i].Name < c.byName[j].Name })

	// Interval search works over start-sorted tasks regardless of the
	// descriptor's internal order. Tasks never overlap, so the end
	// boundaries in start order are sorted as well.
	c.byStart = make([]*Task, len(c.byName))
	copy(c.byStart, c.byName)
	sort.Slice(c.byStart, func(i, j int) bool {
		return c.byStart[i].AdjustedStartMs < c.byStart[j].AdjustedStartMs
	})
	c.starts = make([]int64, len(c.byStart))
	c.ends = make([]int64, len(c.byStart))
	for i, t := range c.byStart {
		c.starts[i] = t.AdjustedStartMs
		c.ends[i] = t.EndedMs
	}

	return c, nil
}

// TaskByName resolves a task by its unique name.
func (c *Catalog) TaskByName(name string) (*Task, error) {
	t, ok := c.names[name]
	if !ok {
		return nil, fmt.Errorf("catalog: no task named %q", name)
	}
	return t, nil
}

// TaskAt resolves the single task whose window contains the timestamp, or
// nil when the timestamp falls outside every window. Windows are
// closed-closed; a timestamp between two tasks resolves to no task.
func (c *Catalog) TaskAt(tsMs int64) *Task {
	if tsMs < c.starts[0] || tsMs > c.ends[len(c.ends)-1] {
		return nil
	}

	// Rightmost start <= ts, versus the count of ends strictly before ts.
	// The indices agree exactly when ts lies inside a task window.
	startIdx := sort.Search(len(c.starts), func(i int) bool { return c.starts[i] > tsMs }) - 1
	endIdx := sort.Search(len(c.ends), func(i int) bool { return c.ends[i] >= tsMs })
	if startIdx != endIdx {
		return nil
	}
	return c.byStart[startIdx]
}

// Tasks returns every task sorted by name.
func (c *Catalog) Tasks() []*Task {
	out := make([]*Task, len(c.byName))
	copy(out, c.byName)
	return out
}

// TasksByStart returns every task in chronological order of adjusted start.
func (c *Catalog) TasksByStart() []*Task {
	out := make([]*Task, len(c.byStart))
	copy(out, c.byStart)
	return out
}

// Len returns the number of tasks in the catalog.
func (c *Catalog) Len() int { return len(c.byName) }
