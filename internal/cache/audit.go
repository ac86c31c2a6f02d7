package cache

import (
	"fmt"

	"github.com/videobench/retrieval-report/internal/catalog"
	"github.com/videobench/retrieval-report/internal/dres"
	"github.com/videobench/retrieval-report/internal/edition"
	"github.com/videobench/retrieval-report/internal/ledger"
)

// SaveSubmissions exports the full submission history of every catalog task
// to the audit table, replacing any prior export for the edition.
func (s *Store) SaveSubmissions(ed edition.Edition, runID string, cat *catalog.Catalog, led *ledger.Ledger) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("cache: beginning submission export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM submissions WHERE edition = ?", string(ed)); err != nil {
		return fmt.Errorf("cache: clearing submissions: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO submissions (edition, run_id, task, team_uid, member_uid, timestamp, status, item_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cache: preparing submission insert: %w", err)
	}
	defer stmt.Close()

	for _, task := range cat.Tasks() {
		for _, sub := range led.History(task.Name) {
			if _, err := stmt.Exec(
				string(ed), runID, task.Name,
				sub.TeamUID, sub.MemberUID, sub.Timestamp, sub.Status, sub.ItemName,
			); err != nil {
				return fmt.Errorf("cache: inserting submission: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: committing submission export: %w", err)
	}
	return nil
}

// LoadSubmissions returns the audited submissions of one task in timestamp
// order, or an empty slice when the edition has no export.
func (s *Store) LoadSubmissions(ed edition.Edition, taskName string) ([]dres.Submission, error) {
	rows, err := s.Query(`
		SELECT team_uid, member_uid, timestamp, status, item_name
		FROM submissions WHERE edition = ? AND task = ? ORDER BY timestamp
	`, string(ed), taskName)
	if err != nil {
		return nil, fmt.Errorf("cache: loading submissions: %w", err)
	}
	defer rows.Close()

	var subs []dres.Submission
	for rows.Next() {
		var sub dres.Submission
		if err := rows.Scan(&sub.TeamUID, &sub.MemberUID, &sub.Timestamp, &sub.Status, &sub.ItemName); err != nil {
			return nil, fmt.Errorf("cache: scanning submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: reading submissions: %w", err)
	}
	return subs, nil
}
