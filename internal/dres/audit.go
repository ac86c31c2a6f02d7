package dres

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/videobench/retrieval-report/internal/edition"
)

// AuditEvent is one line of the evaluation server's audit stream. Only
// LOGIN events are interpreted here; everything else is carried through for
// external attribution tooling.
type AuditEvent struct {
	Type      string `json:"type"`
	Session   string `json:"session"`
	User      string `json:"user"`
	Timestamp int64  `json:"timestamp"`
}

// vbs2023 audit files include events from unrelated dry runs; only the
// competition week is relevant.
const (
	vbs2023AuditStartMs = 1672831958820
	vbs2023AuditEndMs   = 1673308800000
)

// ReadAudits reads a JSONL audit file, applying the per-edition time window
// clamp. Malformed lines are skipped with a warning: audit streams commonly
// carry truncated trailing lines.
func ReadAudits(path string, ed edition.Edition) ([]AuditEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)
	line := 0
	for scanner.Scan() {
		line++
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			log.Printf("dres: skipping malformed audit line %d in %s: %v", line, path, err)
			continue
		}
		if ed == edition.VBS2023 && (ev.Timestamp <= vbs2023AuditStartMs || ev.Timestamp >= vbs2023AuditEndMs) {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit file: %w", err)
	}
	return events, nil
}

// SessionTeams extracts the session id -> team name mapping from LOGIN
// audit events. The mapping is consumed by log-to-user attribution, which
// lives outside this module.
func SessionTeams(events []AuditEvent) map[string]string {
	sessions := make(map[string]string)
	for _, ev := range events {
		if ev.Type == "LOGIN" {
			sessions[ev.Session] = ev.User
		}
	}
	return sessions
}
