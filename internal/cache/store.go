// Package cache persists computed team timelines and the raw submission
// audit trail in a local SQLite database. Recomputing a timeline is pure
// and idempotent given the same raw inputs, so the cache is strictly an
// optimization: every consumer works identically with or without it.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the cache database handle.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the cache database at path and ensures
// the base schema exists.
func Open(path string) (*Store, error) {
	// preprocess writes team timelines concurrently, so every pooled
	// connection needs the busy timeout.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			build_id          TEXT PRIMARY KEY,
			edition           TEXT NOT NULL,
			team              TEXT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			edition           TEXT NOT NULL,
			team              TEXT NOT NULL,
			user              INTEGER NOT NULL,
			task              TEXT NOT NULL,
			timestamp         BIGINT NOT NULL,
			video_id          TEXT NOT NULL,
			shot_time_ms      DOUBLE NOT NULL,
			shot_id           INTEGER NOT NULL,
			rank              INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS events (
			edition           TEXT NOT NULL,
			team              TEXT NOT NULL,
			user              INTEGER NOT NULL,
			task              TEXT NOT NULL,
			timestamp         BIGINT NOT NULL,
			event_timestamp   BIGINT,
			category          TEXT,
			type              TEXT,
			value             TEXT,
			additionals       TEXT,
			rank_video        DOUBLE,
			rank_shot_exact   DOUBLE,
			rank_margins      TEXT
		);
		CREATE TABLE IF NOT EXISTS submissions (
			edition           TEXT NOT NULL,
			run_id            TEXT NOT NULL,
			task              TEXT NOT NULL,
			team_uid          TEXT NOT NULL,
			member_uid        TEXT,
			timestamp         BIGINT NOT NULL,
			status            TEXT NOT NULL,
			item_name         TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_results_team ON results(edition, team, timestamp);
		CREATE INDEX IF NOT EXISTS idx_events_team ON events(edition, team, timestamp);
		CREATE INDEX IF NOT EXISTS idx_submissions_task ON submissions(edition, task, timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Store{db}, nil
}
