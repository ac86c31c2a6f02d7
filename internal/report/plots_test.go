package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/stats"
	"github.com/videobench/retrieval-report/internal/teams"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

func TestSaveMetricBoxplot(t *testing.T) {
	rows := []stats.Row{
		testRow("vitrivr", 0, "vbs22-kis-v1", 2, 10, 1, 5, 20),
		testRow("vitrivr", 0, "vbs22-kis-v2", 8, 60, 2, 30, 90),
		testRow("HTW", 0, "vbs22-kis-v1", math.Inf(1), math.Inf(1), math.Inf(1), math.Inf(1), math.Inf(1)),
	}

	path := filepath.Join(t.TempDir(), "boxplot.png")
	err := SaveMetricBoxplot(rows, []string{"vitrivr", "HTW"}, "rank_shot_margin_0", "Best shot rank", "Rank", path)
	if err != nil {
		t.Fatalf("SaveMetricBoxplot failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("boxplot file is empty")
	}
}

func TestSaveRankScatterHTML(t *testing.T) {
	cat := testCatalog(t)
	rows := []stats.Row{
		testRow("vitrivr", 0, "vbs22-kis-v1", 7, 42, 3, 30, 65),
		testRow("vitrivr", 0, "vbs22-kis-t1", math.Inf(1), math.Inf(1), 4, 20, math.Inf(1)),
	}

	path := filepath.Join(t.TempDir(), "scatter.html")
	err := SaveRankScatterHTML(rows, []string{"vitrivr"}, cat, "rank_shot_margin_0", "Best shot rank", path)
	if err != nil {
		t.Fatalf("SaveRankScatterHTML failed: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if !strings.Contains(string(body), "vitrivr") {
		t.Error("rendered chart is missing the team series")
	}
}

func TestSaveSubmissionRatioHTML(t *testing.T) {
	segments := map[string][]videoindex.Segment{
		"00123": {{ID: 1, StartMs: 0, EndMs: 59999}},
	}
	ix, err := videoindex.NewIndex(videoindex.BoundaryMilliseconds, segments, nil)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	run := &dres.Run{
		Teams: []dres.TeamRecord{{Name: "vitrivr-VR", UID: "uid-a"}},
		Tasks: []dres.TaskRecord{{
			Name:          "vbs22-kis-v1",
			TaskType:      dres.TaskTypeVisualKIS,
			StartedMs:     100000,
			EndedMs:       400000,
			DurationMs:    300000,
			TargetVideoID: "00123",
			TargetStartMs: 10000,
			TargetEndMs:   20000,
			Submissions: []dres.Submission{
				{TeamUID: "uid-a", Timestamp: 150000, Status: dres.StatusWrong, ItemName: "00999"},
				{TeamUID: "uid-a", Timestamp: 250000, Status: dres.StatusCorrect, ItemName: "00123"},
			},
		}},
	}
	reg := teams.NewRegistry(map[string]teams.Team{"vitrivr": {LogIdentity: "vitrivr-VR"}})
	cat, err := catalog.New(run, ix, edition.VBS2022)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	led, err := ledger.Build(run, cat, reg)
	if err != nil {
		t.Fatalf("ledger.Build failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ratio.html")
	if err := SaveSubmissionRatioHTML(cat, led, 10, path); err != nil {
		t.Fatalf("SaveSubmissionRatioHTML failed: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if !strings.Contains(string(body), "V_1") {
		t.Error("rendered page is missing the task title")
	}
}
