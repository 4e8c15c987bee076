package rfq

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

// Store persists RFQs. Line items, terms and risks live in JSON columns so
// each RFQ is read and written as one document.
type Store struct {
	db *db.DB
}

// NewStore creates a new RFQ store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `id, owner_id, project_name, project_description, status, line_items,
	commercial_terms, risks, internal_notes, reconstructed, created_at, updated_at`

// Save inserts or replaces the RFQ. Missing id, status and timestamps are
// filled in on r.
func (s *Store) Save(ctx context.Context, r *Rfq) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	items, err := json.Marshal(nonNilItems(r.LineItems))
	if err != nil {
		return fmt.Errorf("marshalling line items: %w", err)
	}
	terms, err := json.Marshal(r.CommercialTerms)
	if err != nil {
		return fmt.Errorf("marshalling commercial terms: %w", err)
	}
	risks := []RiskAnnotation{}
	if r.Risks != nil {
		risks = r.Risks
	}
	risksJSON, err := json.Marshal(risks)
	if err != nil {
		return fmt.Errorf("marshalling risks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO rfqs (id, owner_id, project_name, project_description, status, line_items,
			commercial_terms, risks, internal_notes, reconstructed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			project_name = excluded.project_name,
			project_description = excluded.project_description,
			status = excluded.status,
			line_items = excluded.line_items,
			commercial_terms = excluded.commercial_terms,
			risks = excluded.risks,
			internal_notes = excluded.internal_notes,
			reconstructed = excluded.reconstructed,
			updated_at = excluded.updated_at`),
		r.ID, r.OwnerID, r.ProjectName, r.ProjectDescription, string(r.Status), string(items),
		string(terms), string(risksJSON), r.InternalNotes, db.BoolInt(r.Reconstructed), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving rfq: %w", err)
	}
	return nil
}

// Get returns the RFQ with the given id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Rfq, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+selectColumns+` FROM rfqs WHERE id = ?`), id)
	r, err := scanRfq(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rfq: %w", err)
	}
	return r, nil
}

// GetOwned returns the RFQ only when it belongs to ownerID.
func (s *Store) GetOwned(ctx context.Context, id, ownerID string) (*Rfq, error) {
	found, err := s.Get(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	if found.OwnerID != ownerID {
		return nil, nil
	}
	return found, nil
}

// List returns RFQs matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Rfq, error) {
	query := `SELECT ` + selectColumns + ` FROM rfqs WHERE 1=1`
	args := []any{}

	if filter.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing rfqs: %w", err)
	}
	defer rows.Close()

	var out []Rfq
	for rows.Next() {
		r, err := scanRfq(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rfq: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Archive soft-deletes an RFQ by moving it to the archived status.
func (s *Store) Archive(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE rfqs SET status = ?, updated_at = ? WHERE id = ?`),
		string(StatusArchived), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("archiving rfq: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rfq not found: %s", id)
	}
	return nil
}

// Delete removes an RFQ permanently. Only explicit user requests reach this.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rfqs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting rfq: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rfq not found: %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRfq(sc scanner) (*Rfq, error) {
	var (
		r                   Rfq
		status              string
		items, terms, risks string
		reconstructed       int
	)
	if err := sc.Scan(&r.ID, &r.OwnerID, &r.ProjectName, &r.ProjectDescription, &status, &items,
		&terms, &risks, &r.InternalNotes, &reconstructed, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	r.Reconstructed = reconstructed != 0
	if err := json.Unmarshal([]byte(items), &r.LineItems); err != nil {
		return nil, fmt.Errorf("decoding line items: %w", err)
	}
	if err := json.Unmarshal([]byte(terms), &r.CommercialTerms); err != nil {
		return nil, fmt.Errorf("decoding commercial terms: %w", err)
	}
	if err := json.Unmarshal([]byte(risks), &r.Risks); err != nil {
		return nil, fmt.Errorf("decoding risks: %w", err)
	}
	if len(r.Risks) == 0 {
		r.Risks = nil
	}
	return &r, nil
}

func nonNilItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}
