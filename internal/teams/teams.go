// Package teams maps the three namespaces a participating team lives in:
// the human-facing display name, the folder name its raw logs arrive under,
// and the uid the competition system assigns it. The three are never
// assumed equal; every crossing between namespaces goes through the
// registry.
package teams

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Team is one participating team's identity across namespaces.
type Team struct {
	// DisplayName is the key used in reports and configuration.
	DisplayName string `json:"-"`
	// LogIdentity is the name used in the run descriptor and log folders.
	LogIdentity string `json:"name_in_logs"`
	// CompetitionUID is assigned by the competition system and appears on
	// submission records. Filled in during ledger construction.
	CompetitionUID string `json:"-"`
}

// Registry holds every configured team, keyed by display name.
type Registry struct {
	byDisplay map[string]*Team
	byUID     map[string]*Team
	order     []string
}

// NewRegistry builds a registry from display name -> metadata pairs.
func NewRegistry(meta map[string]Team) *Registry {
	r := &Registry{
		byDisplay: make(map[string]*Team, len(meta)),
		byUID:     make(map[string]*Team),
	}
	for name, t := range meta {
		team := t
		team.DisplayName = name
		if team.LogIdentity == "" {
			team.LogIdentity = name
		}
		r.byDisplay[name] = &team
		r.order = append(r.order, name)
	}
	sort.Strings(r.order)
	return r
}

// LoadRegistry reads a teams metadata JSON file: an object keyed by display
// name with a name_in_logs field per team.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading teams metadata: %w", err)
	}
	var meta map[string]Team
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing teams metadata: %w", err)
	}
	return NewRegistry(meta), nil
}

// ByDisplayName resolves a team by its display name.
func (r *Registry) ByDisplayName(name string) (*Team, error) {
	t, ok := r.byDisplay[name]
	if !ok {
		return nil, fmt.Errorf("teams: unknown team %q", name)
	}
	return t, nil
}

// ByUID resolves a team by its competition system uid. Only valid after
// BindUID has been called during ledger construction.
func (r *Registry) ByUID(uid string) (*Team, bool) {
	t, ok := r.byUID[uid]
	return t, ok
}

// BindUID records the competition uid discovered for a team in the run
// descriptor.
func (r *Registry) BindUID(displayName, uid string) error {
	t, err := r.ByDisplayName(displayName)
	if err != nil {
		return err
	}
	t.CompetitionUID = uid
	r.byUID[uid] = t
	return nil
}

// DisplayNames returns every configured display name in sorted order.
func (r *Registry) DisplayNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered teams.
func (r *Registry) Len() int { return len(r.byDisplay) }
