package quote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

// Store persists quotes.
type Store struct {
	db *db.DB
}

// NewStore creates a new quote store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `id, rfq_id, supplier_name, supplier_email, currency, items, total,
	lead_time, payment_terms, validity, notes, created_at`

// ErrConflict is returned by Save when the quote id already belongs to a
// different RFQ.
var ErrConflict = errors.New("quote id belongs to another rfq")

// Save inserts or replaces a quote. Importing the same shared quote twice
// overwrites the earlier copy; a quote is never moved to another RFQ.
func (s *Store) Save(ctx context.Context, q *Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	items := q.Items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshalling quote items: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO quotes (id, rfq_id, supplier_name, supplier_email, currency, items, total,
			lead_time, payment_terms, validity, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			supplier_name = excluded.supplier_name,
			supplier_email = excluded.supplier_email,
			currency = excluded.currency,
			items = excluded.items,
			total = excluded.total,
			lead_time = excluded.lead_time,
			payment_terms = excluded.payment_terms,
			validity = excluded.validity,
			notes = excluded.notes
		WHERE quotes.rfq_id = excluded.rfq_id`),
		q.ID, q.RfqID, q.SupplierName, q.SupplierEmail, q.Currency, string(data), q.Total,
		q.LeadTime, q.PaymentTerms, q.Validity, q.Notes, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving quote: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

// Get returns a quote by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Quote, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+selectColumns+` FROM quotes WHERE id = ?`), id)
	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}
	return q, nil
}

// ListByRFQ returns the quotes received for an RFQ, oldest first.
func (s *Store) ListByRFQ(ctx context.Context, rfqID string) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT `+selectColumns+` FROM quotes WHERE rfq_id = ? ORDER BY created_at ASC`), rfqID)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// Delete removes a quote.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM quotes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("quote not found: %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(sc scanner) (*Quote, error) {
	var q Quote
	var items string
	if err := sc.Scan(&q.ID, &q.RfqID, &q.SupplierName, &q.SupplierEmail, &q.Currency, &items, &q.Total,
		&q.LeadTime, &q.PaymentTerms, &q.Validity, &q.Notes, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &q.Items); err != nil {
		return nil, fmt.Errorf("decoding quote items: %w", err)
	}
	return &q, nil
}
