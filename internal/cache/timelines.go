package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/timeline"
)

// Rank values of +Inf are stored as SQL NULL (and omitted from the margin
// JSON map); loading restores the +Inf sentinel. The external -1 sentinel
// never enters the cache.

// SaveTimeline replaces the cached timeline of one (edition, team) and
// records a fresh build id for it.
func (s *Store) SaveTimeline(ed edition.Edition, tl *timeline.Timeline) (buildID string, err error) {
	tx, err := s.Begin()
	if err != nil {
		return "", fmt.Errorf("cache: beginning save: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"results", "events"} {
		if _, err = tx.Exec("DELETE FROM "+table+" WHERE edition = ? AND team = ?", string(ed), tl.Team); err != nil {
			return "", fmt.Errorf("cache: clearing %s: %w", table, err)
		}
	}

	buildID = uuid.NewString()
	if _, err = tx.Exec(
		"INSERT INTO builds (build_id, edition, team) VALUES (?, ?, ?)",
		buildID, string(ed), tl.Team,
	); err != nil {
		return "", fmt.Errorf("cache: recording build: %w", err)
	}

	resultStmt, err := tx.Prepare(`
		INSERT INTO results (edition, team, user, task, timestamp, video_id, shot_time_ms, shot_id, rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("cache: preparing result insert: %w", err)
	}
	defer resultStmt.Close()

	for _, row := range tl.Results {
		if _, err = resultStmt.Exec(
			string(ed), row.Team, row.User, row.Task, row.Timestamp,
			row.VideoID, row.ShotTimeMs, row.ShotID, row.Rank,
		); err != nil {
			return "", fmt.Errorf("cache: inserting result: %w", err)
		}
	}

	eventStmt, err := tx.Prepare(`
		INSERT INTO events (edition, team, user, task, timestamp, event_timestamp,
			category, type, value, additionals, rank_video, rank_shot_exact, rank_margins)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("cache: preparing event insert: %w", err)
	}
	defer eventStmt.Close()

	for _, ev := range tl.Events {
		additionals, marginJSON, encErr := encodeEvent(ev)
		if encErr != nil {
			return "", fmt.Errorf("cache: encoding event: %w", encErr)
		}
		if _, err = eventStmt.Exec(
			string(ed), ev.Team, ev.User, ev.Task, ev.Timestamp, ev.EventTimestamp,
			ev.Category, ev.EventType, ev.Value, additionals,
			nullableRank(ev.Ranks.Video), nullableRank(ev.Ranks.Exact), marginJSON,
		); err != nil {
			return "", fmt.Errorf("cache: inserting event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("cache: committing save: %w", err)
	}
	return buildID, nil
}

// LoadTimeline restores a cached timeline. The second return is false when
// the (edition, team) pair has no cached build.
func (s *Store) LoadTimeline(ed edition.Edition, team string, margins []int) (*timeline.Timeline, bool, error) {
	var buildID string
	err := s.QueryRow(
		"SELECT build_id FROM builds WHERE edition = ? AND team = ? ORDER BY created_at DESC LIMIT 1",
		string(ed), team,
	).Scan(&buildID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: looking up build: %w", err)
	}

	tl := &timeline.Timeline{Team: team}

	rows, err := s.Query(`
		SELECT user, task, timestamp, video_id, shot_time_ms, shot_id, rank
		FROM results WHERE edition = ? AND team = ? ORDER BY timestamp
	`, string(ed), team)
	if err != nil {
		return nil, false, fmt.Errorf("cache: loading results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row timeline.ResultRow
		row.Team = team
		if err := rows.Scan(&row.User, &row.Task, &row.Timestamp,
			&row.VideoID, &row.ShotTimeMs, &row.ShotID, &row.Rank); err != nil {
			return nil, false, fmt.Errorf("cache: scanning result: %w", err)
		}
		tl.Results = append(tl.Results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("cache: reading results: %w", err)
	}

	evRows, err := s.Query(`
		SELECT user, task, timestamp, event_timestamp, category, type, value,
			additionals, rank_video, rank_shot_exact, rank_margins
		FROM events WHERE edition = ? AND team = ? ORDER BY timestamp
	`, string(ed), team)
	if err != nil {
		return nil, false, fmt.Errorf("cache: loading events: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		ev, err := scanEvent(evRows, team, margins)
		if err != nil {
			return nil, false, err
		}
		tl.Events = append(tl.Events, ev)
	}
	if err := evRows.Err(); err != nil {
		return nil, false, fmt.Errorf("cache: reading events: %w", err)
	}

	return tl, true, nil
}

func encodeEvent(ev timeline.Event) (additionals string, marginJSON string, err error) {
	if len(ev.Additionals) > 0 {
		encoded, err := json.Marshal(ev.Additionals)
		if err != nil {
			return "", "", err
		}
		additionals = string(encoded)
	}

	finite := make(map[string]float64, len(ev.Ranks.ByMargin))
	for m, rank := range ev.Ranks.ByMargin {
		if !math.IsInf(rank, 1) {
			finite[strconv.Itoa(m)] = rank
		}
	}
	encoded, err := json.Marshal(finite)
	if err != nil {
		return "", "", err
	}
	return additionals, string(encoded), nil
}

func scanEvent(rows *sql.Rows, team string, margins []int) (timeline.Event, error) {
	ev := timeline.Event{Team: team}
	var additionals, marginJSON sql.NullString
	var rankVideo, rankExact sql.NullFloat64

	if err := rows.Scan(&ev.User, &ev.Task, &ev.Timestamp, &ev.EventTimestamp,
		&ev.Category, &ev.EventType, &ev.Value,
		&additionals, &rankVideo, &rankExact, &marginJSON); err != nil {
		return ev, fmt.Errorf("cache: scanning event: %w", err)
	}

	if additionals.Valid && additionals.String != "" {
		if err := json.Unmarshal([]byte(additionals.String), &ev.Additionals); err != nil {
			return ev, fmt.Errorf("cache: decoding event additionals: %w", err)
		}
	}

	ev.Ranks.Video = rankOrInf(rankVideo)
	ev.Ranks.Exact = rankOrInf(rankExact)
	ev.Ranks.ByMargin = make(map[int]float64, len(margins))
	for _, m := range margins {
		ev.Ranks.ByMargin[m] = math.Inf(1)
	}
	if marginJSON.Valid && marginJSON.String != "" {
		finite := make(map[string]float64)
		if err := json.Unmarshal([]byte(marginJSON.String), &finite); err != nil {
			return ev, fmt.Errorf("cache: decoding margin ranks: %w", err)
		}
		for key, rank := range finite {
			m, err := strconv.Atoi(key)
			if err != nil {
				return ev, fmt.Errorf("cache: bad margin key %q", key)
			}
			ev.Ranks.ByMargin[m] = rank
		}
	}
	return ev, nil
}

func nullableRank(rank float64) interface{} {
	if math.IsInf(rank, 1) {
		return nil
	}
	return rank
}

func rankOrInf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
