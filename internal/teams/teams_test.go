package teams

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teams.json")
	content := `{
		"vitrivr": {"name_in_logs": "vitrivr-VR"},
		"HTW": {}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	team, err := reg.ByDisplayName("vitrivr")
	if err != nil {
		t.Fatalf("ByDisplayName failed: %v", err)
	}
	if team.LogIdentity != "vitrivr-VR" {
		t.Errorf("LogIdentity = %q, want vitrivr-VR", team.LogIdentity)
	}

	// A team without name_in_logs falls back to its display name.
	team, err = reg.ByDisplayName("HTW")
	if err != nil {
		t.Fatalf("ByDisplayName failed: %v", err)
	}
	if team.LogIdentity != "HTW" {
		t.Errorf("LogIdentity = %q, want HTW", team.LogIdentity)
	}

	if _, err := reg.ByDisplayName("nobody"); err == nil {
		t.Fatal("expected error for unknown team")
	}
}

func TestBindUID(t *testing.T) {
	reg := NewRegistry(map[string]Team{
		"vitrivr": {LogIdentity: "vitrivr-VR"},
	})

	if _, ok := reg.ByUID("abc123"); ok {
		t.Fatal("uid resolved before binding")
	}

	if err := reg.BindUID("vitrivr", "abc123"); err != nil {
		t.Fatalf("BindUID failed: %v", err)
	}
	team, ok := reg.ByUID("abc123")
	if !ok {
		t.Fatal("uid not resolvable after binding")
	}
	if team.DisplayName != "vitrivr" || team.CompetitionUID != "abc123" {
		t.Errorf("bound team = %+v", team)
	}

	if err := reg.BindUID("nobody", "zzz"); err == nil {
		t.Fatal("expected error binding unknown team")
	}
}

func TestDisplayNamesSorted(t *testing.T) {
	reg := NewRegistry(map[string]Team{"c": {}, "a": {}, "b": {}})
	names := reg.DisplayNames()
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("DisplayNames() = %v, want %v", names, want)
		}
	}
}
