package catalog

import (
	"testing"

	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

func testVideoIndex(t *testing.T) *videoindex.Index {
	t.Helper()
	segments := map[string][]videoindex.Segment{
		"00123": {
			{ID: 1, StartMs: 0, EndMs: 9999},
			{ID: 2, StartMs: 10000, EndMs: 24999},
			{ID: 3, StartMs: 25000, EndMs: 39999},
		},
	}
	ix, err := videoindex.NewIndex(videoindex.BoundaryMilliseconds, segments, nil)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	return ix
}

func kisTask(name string, started, ended int64) dres.TaskRecord {
	return dres.TaskRecord{
		Name:          name,
		TaskType:      dres.TaskTypeVisualKIS,
		StartedMs:     started,
		EndedMs:       ended,
		DurationMs:    ended - started,
		TargetVideoID: "00123",
		TargetStartMs: 20000,
		TargetEndMs:   30000,
	}
}

func TestNewResolvesTargetShots(t *testing.T) {
	run := &dres.Run{Tasks: []dres.TaskRecord{kisTask("kis-v1", 0, 300000)}}

	cat, err := New(run, testVideoIndex(t), edition.VBS2022)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	task, err := cat.TaskByName("kis-v1")
	if err != nil {
		t.Fatalf("TaskByName failed: %v", err)
	}
	// [20000, 30000] intersects segments 2 and 3.
	if len(task.TargetShotIDs) != 2 || task.TargetShotIDs[0] != 2 || task.TargetShotIDs[1] != 3 {
		t.Errorf("TargetShotIDs = %v, want [2 3]", task.TargetShotIDs)
	}
	if task.TargetShotID() != 2 {
		t.Errorf("TargetShotID() = %d, want 2", task.TargetShotID())
	}
}

func TestNewDiscardsDegenerateTasks(t *testing.T) {
	run := &dres.Run{Tasks: []dres.TaskRecord{
		kisTask("kis-v1", 0, 300000),
		kisTask("aborted", 400000, 400500),
	}}

	cat, err := New(run, testVideoIndex(t), edition.VBS2022)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after discarding the aborted task", cat.Len())
	}
	if _, err := cat.TaskByName("aborted"); err == nil {
		t.Error("degenerate task still resolvable by name")
	}
}

func TestNewRejectsDuplicatesAndEmptyRuns(t *testing.T) {
	dup := &dres.Run{Tasks: []dres.TaskRecord{
		kisTask("kis-v1", 0, 300000),
		kisTask("kis-v1", 400000, 700000),
	}}
	if _, err := New(dup, testVideoIndex(t), edition.VBS2022); err == nil {
		t.Fatal("expected error for duplicate task names")
	}

	empty := &dres.Run{Tasks: []dres.TaskRecord{
		{Name: "avs-1", TaskType: "AVS", StartedMs: 0, EndedMs: 300000, DurationMs: 300000},
	}}
	if _, err := New(empty, testVideoIndex(t), edition.VBS2022); err == nil {
		t.Fatal("expected error for run without KIS tasks")
	}
}

func TestNewUnknownTargetVideo(t *testing.T) {
	task := kisTask("kis-v1", 0, 300000)
	task.TargetVideoID = "99999"
	run := &dres.Run{Tasks: []dres.TaskRecord{task}}

	if _, err := New(run, testVideoIndex(t), edition.VBS2022); err == nil {
		t.Fatal("expected error for unknown target video")
	}
}

func TestTaskAt(t *testing.T) {
	run := &dres.Run{Tasks: []dres.TaskRecord{
		kisTask("kis-v1", 0, 300000),
		kisTask("kis-v2", 400000, 700000),
	}}
	cat, err := New(run, testVideoIndex(t), edition.VBS2022)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name string
		ts   int64
		want string // empty means no task
	}{
		{"first task start", 0, "kis-v1"},
		{"inside first", 150000, "kis-v1"},
		{"first task end inclusive", 300000, "kis-v1"},
		{"gap between tasks", 350000, ""},
		{"second task start", 400000, "kis-v2"},
		{"second task end inclusive", 700000, "kis-v2"},
		{"before everything", -5, ""},
		{"after everything", 700001, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cat.TaskAt(tt.ts)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("TaskAt(%d) = %s, want none", tt.ts, got.Name)
			case tt.want != "" && (got == nil || got.Name != tt.want):
				t.Errorf("TaskAt(%d) = %v, want %s", tt.ts, got, tt.want)
			}
		})
	}
}

func TestAdjustedStart(t *testing.T) {
	run := &dres.Run{Tasks: []dres.TaskRecord{kisTask("kis-v1", 100000, 400000)}}

	cat, err := New(run, testVideoIndex(t), edition.VBSE2022)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	task, _ := cat.TaskByName("kis-v1")
	if task.AdjustedStartMs != 105000 {
		t.Errorf("AdjustedStartMs = %d, want 105000", task.AdjustedStartMs)
	}
	if got := task.ElapsedSeconds(115000); got != 10 {
		t.Errorf("ElapsedSeconds(115000) = %v, want 10", got)
	}
	// The countdown window itself is outside the task.
	if cat.TaskAt(102000) != nil {
		t.Error("timestamp during countdown resolved to the task")
	}
}

func TestMarginWindow(t *testing.T) {
	task := &Task{TargetStartMs: 20000, TargetEndMs: 30000}

	start, end := task.MarginWindow(0)
	if start != 20000 || end != 30000 {
		t.Errorf("MarginWindow(0) = [%d, %d]", start, end)
	}
	start, end = task.MarginWindow(5)
	if start != 15000 || end != 35000 {
		t.Errorf("MarginWindow(5) = [%d, %d], want [15000, 35000]", start, end)
	}
}
