package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindSwipe       Kind = "swipe"
	KindClick       Kind = "click"
	KindGesture     Kind = "gesture"
	KindPerformance Kind = "performance"
)

// Entry is one journal row. Detail holds kind-specific JSON, e.g. the
// swipe direction or the new performance mode.
type Entry struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Gesture    string          `json:"gesture"`
	Slide      int             `json:"slide"`
	Detail     json.RawMessage `json:"detail"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// JournalRepository appends and reads journal entries. The journal is
// write-only from the pipeline's point of view; nothing is read back into
// detector state.
type JournalRepository struct {
	db *sql.DB
}

// Journal returns the journal repository for this store.
func (s *Store) Journal() *JournalRepository {
	return &JournalRepository{db: s.db}
}

// Append inserts entries in one transaction.
func (r *JournalRepository) Append(entries ...*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO journal (id, kind, gesture, slide, detail, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare journal append: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		gesture := e.Gesture
		if gesture == "" {
			gesture = "NONE"
		}
		if _, err := stmt.Exec(e.ID, string(e.Kind), gesture, e.Slide, configOrEmpty(e.Detail), e.OccurredAt.UTC()); err != nil {
			return fmt.Errorf("insert journal entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit entries, newest first.
func (r *JournalRepository) Recent(limit int) ([]*Entry, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, gesture, slide, detail, occurred_at
		 FROM journal ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var kind, detail string
		if err := rows.Scan(&e.ID, &kind, &e.Gesture, &e.Slide, &detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.Detail = json.RawMessage(detail)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the number of entries.
func (r *JournalRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM journal`).Scan(&n)
	return n, err
}

// Prune keeps the newest keep entries and deletes the rest. It returns the
// number of rows removed.
func (r *JournalRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM journal WHERE rowid NOT IN (
			SELECT rowid FROM journal ORDER BY occurred_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
