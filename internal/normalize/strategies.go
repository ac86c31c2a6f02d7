package normalize

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/videobench/retrieval-report/internal/videoindex"
)

// Strategy maps one raw per-team result entry to the normalized record.
// Implementations must be pure: the same input always yields the same
// output. Rank values are copied through as reported; the one-based
// convention is applied afterwards by NormalizeList over the whole list.
type Strategy interface {
	// Name identifies the strategy in logs and cache keys.
	Name() string
	Normalize(raw RawResult) (Result, error)
}

// NormalizeList truncates a raw ranked list to maxRecords, applies the
// strategy to every entry and rewrites ranks to the one-based convention.
func NormalizeList(s Strategy, raw []RawResult, maxRecords int) ([]Result, error) {
	if maxRecords > 0 && len(raw) > maxRecords {
		raw = raw[:maxRecords]
	}

	results := make([]Result, 0, len(raw))
	for i, entry := range raw {
		res, err := s.Normalize(entry)
		if err != nil {
			return nil, fmt.Errorf("normalize: entry %d (%s): %w", i, s.Name(), err)
		}
		results = append(results, res)
	}

	if err := NormalizeRanks(results); err != nil {
		return nil, err
	}
	return results, nil
}

// unknownVideoResult demotes an unknown-video lookup failure to a
// non-match record. Ranked lists are full of distractor videos outside the
// indexed collection; those rows can never match the target, so they keep
// their rank with the invalid-time sentinel instead of failing the whole
// list. Any other lookup error stays an error.
func unknownVideoResult(strategyName, videoID string, rank int, err error) (Result, error) {
	if !errors.Is(err, videoindex.ErrUnknownVideo) {
		return Result{}, err
	}
	log.Printf("normalize: %s result for unindexed video %s, using sentinel", strategyName, videoID)
	return Result{VideoID: videoID, ShotTimeMs: videoindex.InvalidTimeMs, Rank: rank}, nil
}

// The marine-video corpus renamed one video between editions; logs carry
// both spellings.
func fixMarineID(id string) string {
	return strings.ReplaceAll(id, "GreenEggSep2021", "GreenEgg_Sep2021")
}

// standardStrategy covers teams that follow the logging standard: the
// video id in "item", a raw frame number in "frame".
type standardStrategy struct {
	ix *videoindex.Index
}

func (s *standardStrategy) Name() string { return "standard" }

func (s *standardStrategy) Normalize(raw RawResult) (Result, error) {
	videoID := fixMarineID(itemString(raw.Item))
	timeMs, err := s.ix.TimeMsFromRawFrame(videoID, raw.Frame)
	if err != nil {
		return unknownVideoResult(s.Name(), videoID, raw.rawRank(), err)
	}
	return Result{VideoID: videoID, ShotTimeMs: timeMs, Rank: raw.rawRank()}, nil
}

// vergeStrategy: the team reports the segment index, not the frame; the
// reference time is the segment midpoint.
type vergeStrategy struct {
	ix *videoindex.Index
}

func (s *vergeStrategy) Name() string { return "verge" }

func (s *vergeStrategy) Normalize(raw RawResult) (Result, error) {
	videoID := itemString(raw.Item)
	segment, ok := intValue(raw.Segment)
	if !ok {
		return Result{}, fmt.Errorf("non-numeric segment %v", raw.Segment)
	}
	timeMs, err := s.ix.SegmentMidpointMs(videoID, segment)
	if err != nil {
		return unknownVideoResult(s.Name(), videoID, raw.rawRank(), err)
	}
	return Result{VideoID: videoID, ShotTimeMs: timeMs, Rank: raw.rawRank()}, nil
}

// vitrivrStrategy: item names carry a "v_" prefix, and the team segments
// video with its own tool, so lookups go through a dedicated segment table.
// Marine items (recognizable by an underscore in the id) report a frame in
// the segment field instead of a segment index.
type vitrivrStrategy struct {
	ix *videoindex.Index
}

func (s *vitrivrStrategy) Name() string { return "vitrivr" }

func (s *vitrivrStrategy) Normalize(raw RawResult) (Result, error) {
	videoID := itemString(raw.Item)
	if strings.HasPrefix(videoID, "v_") {
		videoID = videoID[2:]
	}
	videoID = fixMarineID(videoID)

	var timeMs float64
	var err error
	if strings.Contains(videoID, "_") {
		timeMs, err = s.ix.TimeMsFromRawFrame(videoID, raw.Segment)
	} else {
		var segment int
		var ok bool
		if segment, ok = intValue(raw.Segment); !ok {
			return Result{}, fmt.Errorf("non-numeric segment %v", raw.Segment)
		}
		timeMs, err = s.ix.SegmentMidpointMs(videoID, segment)
	}
	if err != nil {
		return unknownVideoResult(s.Name(), videoID, raw.rawRank(), err)
	}
	return Result{VideoID: videoID, ShotTimeMs: timeMs, Rank: raw.rawRank()}, nil
}

// vireoStrategy: video ids arrive unpadded in "video", the position in
// "shot" either as a segment index or as a composite "HH;MM,SS;FF"
// timecode whose trailing component is the frame number.
type vireoStrategy struct {
	ix *videoindex.Index
}

func (s *vireoStrategy) Name() string { return "vireo" }

func (s *vireoStrategy) Normalize(raw RawResult) (Result, error) {
	videoID := itemString(raw.Video)
	for len(videoID) < 5 {
		videoID = "0" + videoID
	}

	position := raw.Shot
	if position == nil {
		position = raw.Segment
	}

	var timeMs float64
	var err error
	if str, isString := position.(string); isString && strings.Contains(str, ";") {
		frame := str[strings.LastIndex(str, ";")+1:]
		timeMs, err = s.ix.TimeMsFromRawFrame(videoID, frame)
	} else {
		var segment int
		var ok bool
		if segment, ok = intValue(position); !ok {
			return Result{}, fmt.Errorf("non-numeric segment %v", position)
		}
		timeMs, err = s.ix.SegmentMidpointMs(videoID, segment)
	}
	if err != nil {
		return unknownVideoResult(s.Name(), videoID, raw.rawRank(), err)
	}
	return Result{VideoID: videoID, ShotTimeMs: timeMs, Rank: raw.rawRank()}, nil
}

// divexploreStrategy: "v_"-prefixed ids, frame numbers that are sometimes
// absent altogether. A missing frame is operational noise, not an error.
type divexploreStrategy struct {
	ix *videoindex.Index
}

func (s *divexploreStrategy) Name() string { return "divexplore" }

func (s *divexploreStrategy) Normalize(raw RawResult) (Result, error) {
	videoID := strings.TrimPrefix(itemString(raw.Item), "v_")

	if raw.Frame == nil {
		log.Printf("normalize: %s result for video %s has no frame information, using sentinel", s.Name(), videoID)
		return Result{VideoID: videoID, ShotTimeMs: videoindex.InvalidTimeMs, Rank: raw.rawRank()}, nil
	}
	timeMs, err := s.ix.TimeMsFromRawFrame(videoID, raw.Frame)
	if err != nil {
		return unknownVideoResult(s.Name(), videoID, raw.rawRank(), err)
	}
	return Result{VideoID: videoID, ShotTimeMs: timeMs, Rank: raw.rawRank()}, nil
}

// visione2021Strategy: 2021-era logs report the shot id directly in the
// frame field; matching for that edition is by shot id, not by time.
type visione2021Strategy struct{}

func (s *visione2021Strategy) Name() string { return "visione-2021" }

func (s *visione2021Strategy) Normalize(raw RawResult) (Result, error) {
	shotID, ok := intValue(raw.Frame)
	if !ok {
		return Result{}, fmt.Errorf("non-numeric shot id %v", raw.Frame)
	}
	return Result{
		VideoID:    itemString(raw.Item),
		ShotTimeMs: videoindex.InvalidTimeMs,
		ShotID:     shotID,
		Rank:       raw.rawRank(),
	}, nil
}
