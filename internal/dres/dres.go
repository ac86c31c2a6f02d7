// Package dres decodes competition run descriptors and audit streams
// produced by the evaluation server. Each edition ships an incompatible
// descriptor schema; the per-edition adapters in this package all feed the
// same neutral record types consumed by catalog and ledger construction.
package dres

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/videobench/retrieval-report/internal/edition"
)

// Submission status values as reported by the evaluation server.
const (
	StatusCorrect       = "CORRECT"
	StatusWrong         = "WRONG"
	StatusIndeterminate = "INDETERMINATE"
)

// Task types relevant to known-item search evaluation.
const (
	TaskTypeVisualKIS  = "Visual KIS"
	TaskTypeTextualKIS = "Textual KIS"
)

// Submission is one scoring attempt by a team during a task.
type Submission struct {
	TeamUID   string
	MemberUID string
	Timestamp int64
	Status    string
	ItemName  string
}

// Correct reports whether the submission was verified correct.
func (s Submission) Correct() bool { return s.Status == StatusCorrect }

// Hint is one textual hint shown during a task (present from vbse2022 on).
type Hint struct {
	Text    string
	ShownAt int64
}

// TaskRecord is the neutral, edition-independent form of one task entry in
// the run descriptor. Times are unix milliseconds.
type TaskRecord struct {
	Name          string
	UID           string
	TaskType      string
	Position      int
	StartedMs     int64
	EndedMs       int64
	DurationMs    int64
	TargetVideoID string
	TargetStartMs int64
	TargetEndMs   int64
	Submissions   []Submission
	Hints         []Hint
}

// KIS reports whether the task is a known-item-search task. Other task
// types carry no ground-truth segment and are skipped by the catalog.
func (t TaskRecord) KIS() bool {
	return t.TaskType == TaskTypeVisualKIS || t.TaskType == TaskTypeTextualKIS
}

// TeamRecord is a team entry from the run descriptor.
type TeamRecord struct {
	Name string
	UID  string
}

// Run is a fully decoded run descriptor.
type Run struct {
	ID    string
	Teams []TeamRecord
	Tasks []TaskRecord
}

// TeamUIDByName resolves the competition uid of a team by the name it
// carries in the run descriptor.
func (r *Run) TeamUIDByName(name string) (string, error) {
	for _, t := range r.Teams {
		if t.Name == name {
			return t.UID, nil
		}
	}
	return "", fmt.Errorf("dres: run descriptor has no team named %q", name)
}

// ReadRun decodes the run descriptor file using the schema adapter for the
// given edition. An unknown edition is rejected by edition.Parse before
// this point; a decode failure here means the reference data itself is
// broken and aborts the run.
func ReadRun(path string, ed edition.Edition) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run descriptor: %w", err)
	}

	var run *Run
	switch ed {
	case edition.VBS2021:
		run, err = decodeRun2021(data)
	case edition.VBS2022, edition.VBSE2022, edition.VBS2023:
		run, err = decodeRun2022(data)
	default:
		return nil, fmt.Errorf("dres: no run descriptor adapter for edition %q", ed)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s run descriptor: %w", ed, err)
	}
	return run, nil
}

// uidString is the 2022+ wrapper around string uids: {"string": "..."}.
type uidString struct {
	String string `json:"string"`
}

func decodeUID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	// Try the wrapped form first, fall back to a plain string.
	var wrapped uidString
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.String != "" {
		return wrapped.String, nil
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err != nil {
		return "", fmt.Errorf("dres: undecodable uid %s", string(raw))
	}
	return plain, nil
}
