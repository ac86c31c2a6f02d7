package normalize

import (
	"errors"
	"fmt"
)

// ErrRankConvention marks a result list whose minimum rank is neither 0
// nor 1. Convention detection has no safe fallback, so callers must abort
// the run instead of guessing an offset.
var ErrRankConvention = errors.New("normalize: unrecognized rank convention")

// NormalizeRanks rewrites the ranks of one result list to the one-based
// convention. Sources disagree on whether ranks start at 0 or 1; the
// convention in effect is detected from the list's minimum rank. Any
// minimum other than 0 or 1 is a fatal data error: the corpus asserts it is
// always exactly one of the two.
func NormalizeRanks(results []Result) error {
	if len(results) == 0 {
		return nil
	}

	min := results[0].Rank
	for _, r := range results[1:] {
		if r.Rank < min {
			min = r.Rank
		}
	}

	switch min {
	case 1:
		return nil
	case 0:
		for i := range results {
			results[i].Rank++
		}
		return nil
	default:
		return fmt.Errorf("%w: result list has minimum rank %d, expected 0 or 1", ErrRankConvention, min)
	}
}
