// Package normalize turns team-specific raw ranked-result entries into the
// uniform {videoId, shotReferenceTimeMs, rank} records the ranking engine
// consumes. Teams report position information differently (raw frame
// numbers, segment indices, composite timecode strings), so each
// (edition, team) pair selects a mapping strategy from a single registry.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// RawResult is one loosely-typed entry of a team's ranked result list.
// Field names vary per team; unused fields stay at their zero values.
type RawResult struct {
	Item    interface{} `json:"item"`
	Video   interface{} `json:"video"`
	Frame   interface{} `json:"frame"`
	Segment interface{} `json:"segment"`
	Shot    interface{} `json:"shot"`
	Rank    *float64    `json:"rank"`
}

// Result is the normalized form consumed by ranking computations.
type Result struct {
	VideoID string
	// ShotTimeMs locates the result inside the video. The
	// videoindex.InvalidTimeMs sentinel marks entries whose position could
	// not be recovered; they propagate as non-matches.
	ShotTimeMs float64
	// ShotID is set only by strategies that report shot ids directly
	// (2021-era logs); 0 means unknown.
	ShotID int
	// Rank is one-based after normalization.
	Rank int
}

// rawRank extracts the pre-normalization rank. A missing rank reads as 0
// and is lifted to 1 by the convention pass.
func (r RawResult) rawRank() int {
	if r.Rank == nil {
		return 0
	}
	return int(*r.Rank)
}

// itemString renders a loosely-typed identifier field to a string. JSON
// numbers arrive as float64.
func itemString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatInt(int64(s), 10)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprint(v)
	}
}

// intValue parses a loosely-typed numeric field.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
