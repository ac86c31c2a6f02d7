// Package videoindex holds the per-video shot boundary tables and frame
// rates for one competition edition. It converts between frame numbers,
// segment ids and millisecond offsets, and resolves a (video, time) pair to
// a shot using binary search over the segment start boundaries.
package videoindex

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
)

// ErrUnknownVideo marks a lookup for a video id absent from the index.
// Callers decide the severity: a missing ground-truth video is fatal, a
// missing distractor in a ranked list is a non-match.
var ErrUnknownVideo = errors.New("videoindex: unknown video")

// BoundaryUnit selects which boundary pair of a segment is authoritative
// when computing midpoints. Editions differ: V3C segment tables carry exact
// frame boundaries, marine video (MVK) tables only carry millisecond
// boundaries.
type BoundaryUnit string

const (
	BoundaryFrames       BoundaryUnit = "frames"
	BoundaryMilliseconds BoundaryUnit = "milliseconds"
)

// Unit selects the unit of a shot lookup query point.
type Unit string

const (
	UnitFrames       Unit = "frames"
	UnitMilliseconds Unit = "milliseconds"
)

// InvalidTimeMs is the sentinel returned for unparseable frame numbers.
// It propagates as a non-match downstream instead of aborting a whole log
// file.
const InvalidTimeMs float64 = -1

// Segment is one contiguous shot within a video. IDs are one-based and
// strictly increasing within a video.
type Segment struct {
	ID         int
	StartFrame int64
	EndFrame   int64
	StartMs    int64
	EndMs      int64
}

// Video bundles the ordered segment table and the frame rate of one source
// video.
type Video struct {
	ID       string
	FPS      float64
	Segments []Segment

	// Sorted start keys, kept parallel to Segments for binary search.
	startFrames []int64
	startMs     []int64
}

// Index resolves shot lookups for every video of one edition. It is built
// once at setup and never mutated, so it is safe to share across worker
// goroutines.
type Index struct {
	boundary BoundaryUnit
	videos   map[string]*Video
}

// NewIndex assembles an index from per-video segment tables and a frame
// rate map. Segments are sorted by start time; the authoritative boundary
// pair for midpoint computations is explicit per-edition configuration.
func NewIndex(boundary BoundaryUnit, segments map[string][]Segment, fps map[string]float64) (*Index, error) {
	if boundary != BoundaryFrames && boundary != BoundaryMilliseconds {
		return nil, fmt.Errorf("videoindex: invalid boundary unit %q", boundary)
	}

	videos := make(map[string]*Video, len(segments))
	for id, segs := range segments {
		v := &Video{ID: id, Segments: segs}
		sort.Slice(v.Segments, func(i, j int) bool {
			return v.Segments[i].StartMs < v.Segments[j].StartMs
		})
		v.startFrames = make([]int64, len(v.Segments))
		v.startMs = make([]int64, len(v.Segments))
		for i, s := range v.Segments {
			v.startFrames[i] = s.StartFrame
			v.startMs[i] = s.StartMs
		}
		if rate, ok := fps[id]; ok {
			v.FPS = rate
		}
		videos[id] = v
	}

	return &Index{boundary: boundary, videos: videos}, nil
}

// Video returns the entry for a video id. Unknown ids return
// ErrUnknownVideo, never an empty result: downstream statistics have no
// correct-by-default behaviour for a missing video.
func (ix *Index) Video(videoID string) (*Video, error) {
	v, ok := ix.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVideo, videoID)
	}
	return v, nil
}

// Len returns the number of indexed videos.
func (ix *Index) Len() int { return len(ix.videos) }

// ShotAt returns the id of the segment whose start is the greatest value
// not exceeding the query point. The second return is false when the point
// precedes the first known boundary; shot id 0 is never used as a valid id.
func (ix *Index) ShotAt(videoID string, point int64, unit Unit) (int, bool, error) {
	v, err := ix.Video(videoID)
	if err != nil {
		return 0, false, err
	}

	starts := v.startMs
	if unit == UnitFrames {
		starts = v.startFrames
	}

	// Rightmost start <= point.
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > point }) - 1
	if idx < 0 {
		return 0, false, nil
	}
	return v.Segments[idx].ID, true, nil
}

// ShotsInRange returns the ids of every segment overlapping
// [startMs, endMs], in increasing order. A degenerate (zero-length or
// inverted) range still yields the single enclosing segment.
func (ix *Index) ShotsInRange(videoID string, startMs, endMs int64) ([]int, error) {
	v, err := ix.Video(videoID)
	if err != nil {
		return nil, err
	}
	if len(v.Segments) == 0 {
		return nil, nil
	}

	lo := sort.Search(len(v.startMs), func(i int) bool { return v.startMs[i] > startMs }) - 1
	if lo < 0 {
		lo = 0
	}
	hi := sort.Search(len(v.startMs), func(i int) bool { return v.startMs[i] >= endMs })
	if hi <= lo {
		hi = lo + 1
	}

	ids := make([]int, 0, hi-lo)
	for _, s := range v.Segments[lo:hi] {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// TimeMsFromFrame converts a frame number to milliseconds using the video's
// frame rate.
func (ix *Index) TimeMsFromFrame(videoID string, frame int64) (float64, error) {
	v, err := ix.Video(videoID)
	if err != nil {
		return 0, err
	}
	if v.FPS <= 0 {
		return 0, fmt.Errorf("videoindex: no frame rate for video %q", videoID)
	}
	return float64(frame) * 1000 / v.FPS, nil
}

// TimeMsFromRawFrame is the lenient variant used on loosely-typed log
// records, where the frame field may be a JSON number, a numeric string or
// garbage. Non-numeric frames yield InvalidTimeMs with a logged warning;
// only an unknown video is an error.
func (ix *Index) TimeMsFromRawFrame(videoID string, raw interface{}) (float64, error) {
	frame, ok := parseFrame(raw)
	if !ok {
		log.Printf("videoindex: invalid frame number %v for video %s, using sentinel", raw, videoID)
		if _, err := ix.Video(videoID); err != nil {
			return InvalidTimeMs, err
		}
		return InvalidTimeMs, nil
	}
	return ix.TimeMsFromFrame(videoID, frame)
}

// SegmentMidpointMs returns the midpoint of a segment in milliseconds,
// computed from the edition's authoritative boundary pair.
func (ix *Index) SegmentMidpointMs(videoID string, segmentID int) (float64, error) {
	v, err := ix.Video(videoID)
	if err != nil {
		return 0, err
	}

	seg, ok := v.segmentByID(segmentID)
	if !ok {
		return 0, fmt.Errorf("videoindex: video %q has no segment %d", videoID, segmentID)
	}

	if ix.boundary == BoundaryFrames {
		if v.FPS <= 0 {
			return 0, fmt.Errorf("videoindex: no frame rate for video %q", videoID)
		}
		mid := float64(seg.StartFrame+seg.EndFrame) / 2
		return mid * 1000 / v.FPS, nil
	}
	return float64(seg.StartMs+seg.EndMs) / 2, nil
}

// segmentByID resolves a one-based segment id. Ids are contiguous in well
// formed tables, so the direct index is tried first.
func (v *Video) segmentByID(id int) (Segment, bool) {
	if id >= 1 && id <= len(v.Segments) && v.Segments[id-1].ID == id {
		return v.Segments[id-1], true
	}
	for _, s := range v.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}

func parseFrame(raw interface{}) (int64, bool) {
	switch f := raw.(type) {
	case nil:
		return 0, false
	case int:
		return int64(f), true
	case int64:
		return f, true
	case float64:
		return int64(f), true
	case string:
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			// Some logs report fractional frames as strings.
			fl, ferr := strconv.ParseFloat(f, 64)
			if ferr != nil {
				return 0, false
			}
			return int64(fl), true
		}
		return n, true
	default:
		return 0, false
	}
}
