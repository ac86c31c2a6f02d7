package ledger

import (
	"math"
	"testing"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/teams"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

func testSetup(t *testing.T, submissions []dres.Submission) (*Ledger, *teams.Registry) {
	t.Helper()

	segments := map[string][]videoindex.Segment{
		"00123": {{ID: 1, StartMs: 0, EndMs: 59999}},
	}
	ix, err := videoindex.NewIndex(videoindex.BoundaryMilliseconds, segments, nil)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	run := &dres.Run{
		Teams: []dres.TeamRecord{
			{Name: "vitrivr-VR", UID: "uid-a"},
			{Name: "HTW", UID: "uid-b"},
		},
		Tasks: []dres.TaskRecord{{
			Name:          "kis-v1",
			TaskType:      dres.TaskTypeVisualKIS,
			StartedMs:     100000,
			EndedMs:       400000,
			DurationMs:    300000,
			TargetVideoID: "00123",
			TargetStartMs: 10000,
			TargetEndMs:   20000,
			Submissions:   submissions,
		}},
	}

	reg := teams.NewRegistry(map[string]teams.Team{
		"vitrivr": {LogIdentity: "vitrivr-VR"},
		"HTW":     {},
	})

	cat, err := catalog.New(run, ix, edition.VBS2022)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	led, err := Build(run, cat, reg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return led, reg
}

func TestFirstCorrectWins(t *testing.T) {
	led, _ := testSetup(t, []dres.Submission{
		{TeamUID: "uid-a", Timestamp: 150000, Status: dres.StatusWrong, ItemName: "00999"},
		{TeamUID: "uid-a", Timestamp: 200000, Status: dres.StatusCorrect, ItemName: "00123"},
		{TeamUID: "uid-a", Timestamp: 250000, Status: dres.StatusCorrect, ItemName: "00123"},
	})

	ts, err := led.CorrectSubmissionTime("vitrivr", "kis-v1")
	if err != nil {
		t.Fatalf("CorrectSubmissionTime failed: %v", err)
	}
	if ts != 200000 {
		t.Errorf("correct submission time = %d, want the first correct at 200000", ts)
	}

	elapsed, err := led.ElapsedToCorrectSubmission("vitrivr", "kis-v1")
	if err != nil {
		t.Fatalf("ElapsedToCorrectSubmission failed: %v", err)
	}
	if elapsed != 100 {
		t.Errorf("elapsed = %v, want 100s", elapsed)
	}
}

func TestNeverSubmitted(t *testing.T) {
	led, _ := testSetup(t, nil)

	ts, err := led.CorrectSubmissionTime("HTW", "kis-v1")
	if err != nil {
		t.Fatalf("CorrectSubmissionTime failed: %v", err)
	}
	if ts != NeverSubmitted {
		t.Errorf("correct submission time = %d, want sentinel %d", ts, NeverSubmitted)
	}

	elapsed, err := led.ElapsedToCorrectSubmission("HTW", "kis-v1")
	if err != nil {
		t.Fatalf("ElapsedToCorrectSubmission failed: %v", err)
	}
	if !math.IsInf(elapsed, 1) {
		t.Errorf("elapsed = %v, want +Inf", elapsed)
	}
}

func TestSolvedBefore(t *testing.T) {
	led, _ := testSetup(t, []dres.Submission{
		{TeamUID: "uid-a", Timestamp: 200000, Status: dres.StatusCorrect, ItemName: "00123"},
	})

	if led.SolvedBefore("vitrivr", "kis-v1", 200000) {
		t.Error("the solving instant itself must not count as already solved")
	}
	if !led.SolvedBefore("vitrivr", "kis-v1", 200001) {
		t.Error("instants after the solve must count as solved")
	}
	if led.SolvedBefore("HTW", "kis-v1", 999999) {
		t.Error("a team without a correct submission is never solved")
	}
}

func TestBindUIDsDuringBuild(t *testing.T) {
	_, reg := testSetup(t, nil)

	team, ok := reg.ByUID("uid-a")
	if !ok || team.DisplayName != "vitrivr" {
		t.Errorf("ByUID(uid-a) = (%v, %v), want vitrivr", team, ok)
	}
	team, ok = reg.ByUID("uid-b")
	if !ok || team.DisplayName != "HTW" {
		t.Errorf("ByUID(uid-b) = (%v, %v), want HTW", team, ok)
	}
}

func TestSubmissionsFromUnknownTeamsIgnored(t *testing.T) {
	led, _ := testSetup(t, []dres.Submission{
		{TeamUID: "uid-stranger", Timestamp: 150000, Status: dres.StatusCorrect, ItemName: "00123"},
	})

	for _, team := range []string{"vitrivr", "HTW"} {
		ts, err := led.CorrectSubmissionTime(team, "kis-v1")
		if err != nil {
			t.Fatalf("CorrectSubmissionTime failed: %v", err)
		}
		if ts != NeverSubmitted {
			t.Errorf("%s credited with a stranger's submission", team)
		}
	}
}

func TestSubmissionStats(t *testing.T) {
	led, _ := testSetup(t, []dres.Submission{
		{TeamUID: "uid-a", Timestamp: 150000, Status: dres.StatusWrong, ItemName: "00999"},
		{TeamUID: "uid-a", Timestamp: 200000, Status: dres.StatusCorrect, ItemName: "00123"},
		{TeamUID: "uid-b", Timestamp: 220000, Status: dres.StatusCorrect, ItemName: "00123"},
		{TeamUID: "uid-b", Timestamp: 230000, Status: "INDETERMINATE", ItemName: "00123"},
	})

	stats := led.SubmissionStats("kis-v1")
	if stats.Correct != 2 || stats.Incorrect != 1 || stats.Indeterminate != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CorrectVideos != 1 {
		t.Errorf("CorrectVideos = %d, want 1", stats.CorrectVideos)
	}
	p, ok := stats.Precision()
	if !ok || p != 0.5 {
		t.Errorf("Precision() = (%v, %v), want (0.5, true)", p, ok)
	}
}

func TestSubmissionBins(t *testing.T) {
	// Task window [100000, 400000], 3 bins of 100s each.
	led, _ := testSetup(t, []dres.Submission{
		{TeamUID: "uid-a", Timestamp: 110000, Status: dres.StatusWrong},
		{TeamUID: "uid-a", Timestamp: 250000, Status: dres.StatusCorrect},
		{TeamUID: "uid-b", Timestamp: 399999, Status: dres.StatusCorrect},
		// Before the window: clamps into the first bin.
		{TeamUID: "uid-b", Timestamp: 90000, Status: dres.StatusWrong},
	})

	bins, err := led.SubmissionBins("kis-v1", 3)
	if err != nil {
		t.Fatalf("SubmissionBins failed: %v", err)
	}
	if bins[0].Wrong != 2 || bins[0].Correct != 0 {
		t.Errorf("bin 0 = %+v", bins[0])
	}
	if bins[1].Correct != 1 {
		t.Errorf("bin 1 = %+v", bins[1])
	}
	if bins[2].Correct != 1 {
		t.Errorf("bin 2 = %+v", bins[2])
	}

	if bins[0].CorrectRatio() != 0 {
		t.Errorf("bin 0 ratio = %v", bins[0].CorrectRatio())
	}
	if (Bin{}).CorrectRatio() != 1 {
		t.Error("empty bucket ratio must be 1")
	}
}
