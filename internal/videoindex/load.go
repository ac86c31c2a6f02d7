package videoindex

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadIndex builds an Index from one or more segment boundary CSV files and
// a frame rate CSV. Segment files carry a header row with the columns
// video, segment, startframe, endframe, start, end (times in milliseconds,
// segment ids one-based). The frame rate file is headerless videoId,FPS.
func LoadIndex(boundary BoundaryUnit, segmentFiles []string, fpsFile string) (*Index, error) {
	segments := make(map[string][]Segment)
	for _, path := range segmentFiles {
		if err := readSegmentFile(path, segments); err != nil {
			return nil, fmt.Errorf("loading segment table %s: %w", path, err)
		}
	}

	fps, err := readFPSFile(fpsFile)
	if err != nil {
		return nil, fmt.Errorf("loading frame rate table %s: %w", fpsFile, err)
	}

	return NewIndex(boundary, segments, fps)
}

func readSegmentFile(path string, segments map[string][]Segment) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"video", "segment", "start", "end"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("missing column %q", required)
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		line++

		seg := Segment{}
		videoID := rec[col["video"]]
		if seg.ID, err = strconv.Atoi(rec[col["segment"]]); err != nil {
			return fmt.Errorf("line %d: bad segment id: %w", line, err)
		}
		if seg.StartMs, err = strconv.ParseInt(rec[col["start"]], 10, 64); err != nil {
			return fmt.Errorf("line %d: bad start: %w", line, err)
		}
		if seg.EndMs, err = strconv.ParseInt(rec[col["end"]], 10, 64); err != nil {
			return fmt.Errorf("line %d: bad end: %w", line, err)
		}

		// Frame boundaries are optional: MVK tables only carry times.
		if i, ok := col["startframe"]; ok && rec[i] != "" {
			if seg.StartFrame, err = strconv.ParseInt(rec[i], 10, 64); err != nil {
				return fmt.Errorf("line %d: bad startframe: %w", line, err)
			}
		}
		if i, ok := col["endframe"]; ok && rec[i] != "" {
			if seg.EndFrame, err = strconv.ParseInt(rec[i], 10, 64); err != nil {
				return fmt.Errorf("line %d: bad endframe: %w", line, err)
			}
		}

		segments[videoID] = append(segments[videoID], seg)
	}
	return nil
}

func readFPSFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = 2

	fps := make(map[string]float64)
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		rate, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad fps value %q: %w", line, rec[1], err)
		}
		fps[rec[0]] = rate
	}
	return fps, nil
}
