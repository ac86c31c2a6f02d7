package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/videobench/retrieval-report/internal/normalize"
)

// snapshot is one raw query-result log file as teams upload it: a ranked
// result list plus a list of query events, in a team-specific schema.
type snapshot struct {
	Timestamp json.Number           `json:"timestamp"`
	Results   []normalize.RawResult `json:"results"`
	// RawEvents is either a list of events or a single event object.
	RawEvents json.RawMessage `json:"events"`
}

// standard event field names; everything else is residual.
var standardEventFields = map[string]struct{}{
	"timestamp": {},
	"category":  {},
	"type":      {},
	"value":     {},
}

func readSnapshot(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// authoritativeTimestamp recovers the snapshot's timestamp: a numeric
// filename stem wins, an embedded timestamp field is the fallback.
func (s *snapshot) authoritativeTimestamp(path string) (int64, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if ts, err := strconv.ParseInt(stem, 10, 64); err == nil {
		return ts, nil
	}
	if s.Timestamp != "" {
		if ts, err := s.Timestamp.Int64(); err == nil {
			return ts, nil
		}
	}
	return 0, fmt.Errorf("no usable timestamp in filename or record")
}

// events decodes the raw events payload, tolerating the single-object form
// some teams emit.
func (s *snapshot) events() []map[string]interface{} {
	if len(s.RawEvents) == 0 {
		return nil
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(s.RawEvents, &list); err == nil {
		return list
	}
	var single map[string]interface{}
	if err := json.Unmarshal(s.RawEvents, &single); err == nil {
		return []map[string]interface{}{single}
	}
	return nil
}

// newEvent splits a raw event into the standard schema fields and the
// opaque residual bundle.
func newEvent(raw map[string]interface{}) Event {
	ev := Event{}
	if v, ok := raw["timestamp"].(float64); ok {
		ev.EventTimestamp = int64(v)
	}
	if v, ok := raw["category"].(string); ok {
		ev.Category = v
	}
	if v, ok := raw["type"].(string); ok {
		ev.EventType = v
	}
	switch v := raw["value"].(type) {
	case string:
		ev.Value = v
	case nil:
	default:
		if encoded, err := json.Marshal(v); err == nil {
			ev.Value = string(encoded)
		}
	}

	for key, val := range raw {
		if _, standard := standardEventFields[key]; standard {
			continue
		}
		if ev.Additionals == nil {
			ev.Additionals = make(map[string]interface{})
		}
		ev.Additionals[key] = val
	}
	return ev
}

// dedupeKey identifies repeated event rows caused by log repetitions.
func (e Event) dedupeKey() string {
	additionals := ""
	if len(e.Additionals) > 0 {
		if encoded, err := json.Marshal(e.Additionals); err == nil {
			additionals = string(encoded)
		}
	}
	return fmt.Sprintf("%d|%d|%s|%s|%s|%s", e.Timestamp, e.User, e.Category, e.EventType, e.Value, additionals)
}
