package normalize

import (
	"strings"

	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/videoindex"
)

// Registry maps (edition, team log identity) to a normalization strategy,
// with a per-edition default for teams that follow the logging standard.
// The table is declared once here; call sites never branch on team names.
type Registry struct {
	strategies map[registryKey]Strategy
	defaults   map[edition.Edition]Strategy
}

type registryKey struct {
	ed   edition.Edition
	team string // lowercased log identity
}

// NewRegistry builds the strategy table for one competition setup. ix is
// the edition's video index; cineastIx is the alternate segment table used
// by vitrivr's own segmentation tool, falling back to ix when absent.
func NewRegistry(ix *videoindex.Index, cineastIx *videoindex.Index) *Registry {
	if cineastIx == nil {
		cineastIx = ix
	}

	standard := &standardStrategy{ix: ix}
	r := &Registry{
		strategies: make(map[registryKey]Strategy),
		defaults: map[edition.Edition]Strategy{
			edition.VBS2021:  &visione2021Strategy{},
			edition.VBS2022:  standard,
			edition.VBSE2022: standard,
			edition.VBS2023:  standard,
		},
	}

	for _, ed := range []edition.Edition{edition.VBS2022, edition.VBS2023} {
		r.register(ed, "diveXplore", &divexploreStrategy{ix: ix})
		r.register(ed, "VERGE", &vergeStrategy{ix: ix})
		r.register(ed, "VIREO", &vireoStrategy{ix: ix})
	}
	// vitrivr's cineast segments only diverge from the reference tables in
	// 2022.
	r.register(edition.VBS2022, "vitrivr", &vitrivrStrategy{ix: cineastIx})
	r.register(edition.VBS2023, "vitrivr", &vitrivrStrategy{ix: ix})

	return r
}

func (r *Registry) register(ed edition.Edition, team string, s Strategy) {
	r.strategies[registryKey{ed: ed, team: strings.ToLower(team)}] = s
}

// Strategy resolves the strategy for a team in an edition, falling back to
// the edition default. Team matching is case-insensitive on the log
// identity.
func (r *Registry) Strategy(ed edition.Edition, teamLogIdentity string) Strategy {
	if s, ok := r.strategies[registryKey{ed: ed, team: strings.ToLower(teamLogIdentity)}]; ok {
		return s
	}
	return r.defaults[ed]
}
