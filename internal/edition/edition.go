// Package edition identifies a competition edition. Every edition ships its
// own run descriptor schema, video identifier format and log quirks, so the
// edition tag is threaded explicitly through construction instead of being
// inferred from file names.
package edition

import "fmt"

// Edition is the explicit tag selecting schema adapters and per-edition
// behaviour. Editions are not interchangeable: video identifiers and
// descriptor layouts differ between them.
type Edition string

const (
	VBS2021  Edition = "vbs2021"
	VBS2022  Edition = "vbs2022"
	VBSE2022 Edition = "vbse2022"
	VBS2023  Edition = "vbs2023"
)

// All lists the supported editions in chronological order.
func All() []Edition {
	return []Edition{VBS2021, VBS2022, VBSE2022, VBS2023}
}

// Parse validates a raw edition string. An unknown edition is fatal for the
// whole run: no schema adapter can be selected for it.
func Parse(s string) (Edition, error) {
	e := Edition(s)
	for _, known := range All() {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown competition edition %q (supported: %v)", s, All())
}

// NumericVideoIDs reports whether the edition's video identifiers are
// numeric. Numeric editions compare identifiers by value so that padded and
// unpadded spellings of the same id match; string editions compare exactly.
// Identifiers are never coerced across editions.
func (e Edition) NumericVideoIDs() bool {
	return e != VBSE2022
}

// StartOffsetMs is the fixed countdown delay between the nominal task start
// in the run descriptor and the moment the first real hint is shown.
// Elapsed-time computations measure from the adjusted start.
func (e Edition) StartOffsetMs() int64 {
	switch e {
	case VBSE2022:
		return 5000
	default:
		return 0
	}
}
