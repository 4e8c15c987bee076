package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

// Store provides append and query operations for activity entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log appends an entry. A nil Store is a no-op so callers can run without an
// activity log.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if s == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO activity_entries (id, timestamp, actor_id, action, rfq_id, summary)
		VALUES (?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.Timestamp, entry.ActorID, string(entry.Action), entry.RfqID, entry.Summary,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Record is a convenience wrapper around Log.
func (s *Store) Record(ctx context.Context, actorID string, action Action, rfqID, summary string) error {
	return s.Log(ctx, Entry{ActorID: actorID, Action: action, RfqID: rfqID, Summary: summary})
}

// ListByRFQ returns the entries for one RFQ, oldest first.
func (s *Store) ListByRFQ(ctx context.Context, rfqID string, limit int) ([]Entry, error) {
	if s == nil {
		return nil, nil
	}
	query := `SELECT id, timestamp, actor_id, action, rfq_id, summary
		FROM activity_entries WHERE rfq_id = ? ORDER BY timestamp ASC`
	args := []any{rfqID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActorID, &action, &e.RfqID, &e.Summary); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
