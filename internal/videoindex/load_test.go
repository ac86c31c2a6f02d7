package videoindex

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadIndex(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv",
		"video,segment,startframe,endframe,start,end\n"+
			"00001,1,0,99,0,3999\n"+
			"00001,2,100,249,4000,9999\n"+
			"00002,1,0,49,0,1999\n")
	fpsPath := writeFile(t, dir, "fps.csv",
		"00001,25\n00002,29.97\n")

	ix, err := LoadIndex(BoundaryFrames, []string{segPath}, fpsPath)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}

	v, err := ix.Video("00001")
	if err != nil {
		t.Fatalf("Video failed: %v", err)
	}
	if len(v.Segments) != 2 {
		t.Errorf("video 00001 has %d segments, want 2", len(v.Segments))
	}
	if v.FPS != 25 {
		t.Errorf("video 00001 fps = %v, want 25", v.FPS)
	}

	id, ok, err := ix.ShotAt("00002", 30, UnitFrames)
	if err != nil || !ok || id != 1 {
		t.Errorf("ShotAt(00002, 30) = (%d, %v, %v), want (1, true, nil)", id, ok, err)
	}
}

func TestLoadIndexWithoutFrameColumns(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv",
		"video,segment,start,end\n"+
			"mvk001,1,0,4999\n"+
			"mvk001,2,5000,12000\n")
	fpsPath := writeFile(t, dir, "fps.csv", "mvk001,30\n")

	ix, err := LoadIndex(BoundaryMilliseconds, []string{segPath}, fpsPath)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}

	mid, err := ix.SegmentMidpointMs("mvk001", 2)
	if err != nil {
		t.Fatalf("SegmentMidpointMs failed: %v", err)
	}
	if mid != 8500 {
		t.Errorf("midpoint = %v, want 8500", mid)
	}
}

func TestLoadIndexMissingColumn(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv", "video,segment,start\n00001,1,0\n")
	fpsPath := writeFile(t, dir, "fps.csv", "00001,25\n")

	if _, err := LoadIndex(BoundaryFrames, []string{segPath}, fpsPath); err == nil {
		t.Fatal("expected error for missing end column")
	}
}
