package cache

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/ledger"
	"github.com/videobench/retrieval-report/internal/normalize"
	"github.com/videobench/retrieval-report/internal/teams"
	"github.com/videobench/retrieval-report/internal/timeline"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTimeline() *timeline.Timeline {
	return &timeline.Timeline{
		Team: "vitrivr",
		Results: []timeline.ResultRow{
			{Team: "vitrivr", User: 0, Task: "kis-v1", Timestamp: 150000,
				Result: normalize.Result{VideoID: "00123", ShotTimeMs: 12000, Rank: 3}},
			{Team: "vitrivr", User: 1, Task: "kis-v1", Timestamp: 160000,
				Result: normalize.Result{VideoID: "00999", ShotTimeMs: -1, ShotID: 7, Rank: 1}},
		},
		Events: []timeline.Event{
			{
				Team: "vitrivr", User: 0, Task: "kis-v1",
				Timestamp: 150000, EventTimestamp: 149000,
				Category: "TEXT", EventType: "jointEmbedding", Value: "red car",
				Additionals: map[string]interface{}{"page": "2"},
				Ranks: timeline.RankSet{
					Video:    3,
					Exact:    math.Inf(1),
					ByMargin: map[int]float64{0: math.Inf(1), 5: 3},
				},
			},
			{
				Team: "vitrivr", User: 1, Task: "kis-v1",
				Timestamp: 160000, EventTimestamp: 160000,
				Category: "BROWSING", EventType: "rankedList",
				Ranks: timeline.RankSet{
					Video:    math.Inf(1),
					Exact:    math.Inf(1),
					ByMargin: map[int]float64{0: math.Inf(1), 5: math.Inf(1)},
				},
			},
		},
	}
}

func TestTimelineRoundTrip(t *testing.T) {
	s := testStore(t)

	buildID, err := s.SaveTimeline(edition.VBS2022, sampleTimeline())
	if err != nil {
		t.Fatalf("SaveTimeline failed: %v", err)
	}
	if buildID == "" {
		t.Fatal("SaveTimeline returned an empty build id")
	}

	tl, ok, err := s.LoadTimeline(edition.VBS2022, "vitrivr", []int{0, 5})
	if err != nil {
		t.Fatalf("LoadTimeline failed: %v", err)
	}
	if !ok {
		t.Fatal("LoadTimeline found no cached build after a save")
	}

	if len(tl.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(tl.Results))
	}
	first := tl.Results[0]
	if first.VideoID != "00123" || first.ShotTimeMs != 12000 || first.Rank != 3 {
		t.Errorf("first result = %+v", first)
	}
	if tl.Results[1].ShotTimeMs != -1 || tl.Results[1].ShotID != 7 {
		t.Errorf("sentinel result = %+v", tl.Results[1])
	}

	if len(tl.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(tl.Events))
	}
	ev := tl.Events[0]
	if ev.Timestamp != 150000 || ev.EventTimestamp != 149000 {
		t.Errorf("timestamps = %d / %d", ev.Timestamp, ev.EventTimestamp)
	}
	if ev.Category != "TEXT" || ev.EventType != "jointEmbedding" || ev.Value != "red car" {
		t.Errorf("schema fields = %q %q %q", ev.Category, ev.EventType, ev.Value)
	}
	if ev.Additionals["page"] != "2" {
		t.Errorf("additionals = %v", ev.Additionals)
	}
	if ev.Ranks.Video != 3 {
		t.Errorf("rank_video = %v, want 3", ev.Ranks.Video)
	}
	if !math.IsInf(ev.Ranks.Exact, 1) || !math.IsInf(ev.Ranks.ByMargin[0], 1) {
		t.Errorf("absent ranks must load as +Inf, got %v / %v", ev.Ranks.Exact, ev.Ranks.ByMargin[0])
	}
	if ev.Ranks.ByMargin[5] != 3 {
		t.Errorf("margin-5 rank = %v, want 3", ev.Ranks.ByMargin[5])
	}
	if all := tl.Events[1]; !math.IsInf(all.Ranks.Video, 1) || !math.IsInf(all.Ranks.ByMargin[5], 1) {
		t.Errorf("fully unmatched event = %+v", all.Ranks)
	}
}

func TestSaveTimelineReplacesPriorBuild(t *testing.T) {
	s := testStore(t)

	if _, err := s.SaveTimeline(edition.VBS2022, sampleTimeline()); err != nil {
		t.Fatalf("first SaveTimeline failed: %v", err)
	}

	smaller := &timeline.Timeline{
		Team: "vitrivr",
		Events: []timeline.Event{{
			Team: "vitrivr", Task: "kis-v1", Timestamp: 170000,
			Ranks: timeline.RankSet{
				Video: 1, Exact: math.Inf(1),
				ByMargin: map[int]float64{0: math.Inf(1), 5: math.Inf(1)},
			},
		}},
	}
	if _, err := s.SaveTimeline(edition.VBS2022, smaller); err != nil {
		t.Fatalf("second SaveTimeline failed: %v", err)
	}

	tl, ok, err := s.LoadTimeline(edition.VBS2022, "vitrivr", []int{0, 5})
	if err != nil || !ok {
		t.Fatalf("LoadTimeline failed: ok=%v err=%v", ok, err)
	}
	if len(tl.Events) != 1 || len(tl.Results) != 0 {
		t.Errorf("got %d events and %d results, want the second build only", len(tl.Events), len(tl.Results))
	}
}

func TestLoadTimelineMissing(t *testing.T) {
	s := testStore(t)

	tl, ok, err := s.LoadTimeline(edition.VBS2022, "nobody", []int{0})
	if err != nil {
		t.Fatalf("LoadTimeline failed: %v", err)
	}
	if ok || tl != nil {
		t.Errorf("got ok=%v tl=%v for an uncached team", ok, tl)
	}
}

func TestEditionsIsolated(t *testing.T) {
	s := testStore(t)

	if _, err := s.SaveTimeline(edition.VBS2022, sampleTimeline()); err != nil {
		t.Fatalf("SaveTimeline failed: %v", err)
	}
	if _, ok, err := s.LoadTimeline(edition.VBS2023, "vitrivr", []int{0, 5}); err != nil || ok {
		t.Errorf("cross-edition load: ok=%v err=%v, want a miss", ok, err)
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	s := testStore(t)

	segments := map[string][]videoindex.Segment{
		"00123": {{ID: 1, StartMs: 0, EndMs: 59999}},
	}
	ix, err := videoindex.NewIndex(videoindex.BoundaryMilliseconds, segments, nil)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	run := &dres.Run{
		ID:    "run-1",
		Teams: []dres.TeamRecord{{Name: "vitrivr-VR", UID: "uid-a"}},
		Tasks: []dres.TaskRecord{{
			Name:          "kis-v1",
			TaskType:      dres.TaskTypeVisualKIS,
			StartedMs:     100000,
			EndedMs:       400000,
			DurationMs:    300000,
			TargetVideoID: "00123",
			TargetStartMs: 10000,
			TargetEndMs:   20000,
			Submissions: []dres.Submission{
				{TeamUID: "uid-a", MemberUID: "m-1", Timestamp: 200000, Status: dres.StatusWrong, ItemName: "00999"},
				{TeamUID: "uid-a", MemberUID: "m-1", Timestamp: 150000, Status: dres.StatusCorrect, ItemName: "00123"},
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

	if err := s.SaveSubmissions(edition.VBS2022, run.ID, cat, led); err != nil {
		t.Fatalf("SaveSubmissions failed: %v", err)
	}

	subs, err := s.LoadSubmissions(edition.VBS2022, "kis-v1")
	if err != nil {
		t.Fatalf("LoadSubmissions failed: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d submissions, want 2", len(subs))
	}
	if subs[0].Timestamp != 150000 || subs[0].Status != dres.StatusCorrect {
		t.Errorf("submissions not in timestamp order: %+v", subs[0])
	}
	if subs[1].ItemName != "00999" {
		t.Errorf("second submission = %+v", subs[1])
	}

	// A second export replaces, not appends.
	if err := s.SaveSubmissions(edition.VBS2022, run.ID, cat, led); err != nil {
		t.Fatalf("second SaveSubmissions failed: %v", err)
	}
	subs, err = s.LoadSubmissions(edition.VBS2022, "kis-v1")
	if err != nil {
		t.Fatalf("LoadSubmissions failed: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("got %d submissions after re-export, want 2", len(subs))
	}
}
