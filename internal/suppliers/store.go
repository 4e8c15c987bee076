package suppliers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

// Store persists the supplier directory.
type Store struct {
	db *db.DB
}

// NewStore creates a supplier store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `id, name, email, website, region, capabilities, source, created_at, updated_at`

// Upsert stores s, merging with an existing supplier of the same name
// (case-insensitive). Existing non-empty contact fields and the original
// source are kept; capabilities are unioned. s is updated in place.
func (s *Store) Upsert(ctx context.Context, sup *Supplier) error {
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Name == "" {
		return fmt.Errorf("supplier name is required")
	}
	existing, err := s.GetByName(ctx, sup.Name)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing != nil {
		merge(existing, sup)
		*sup = *existing
	} else {
		if sup.ID == "" {
			sup.ID = uuid.New().String()
		}
		if sup.Source == "" {
			sup.Source = SourceManual
		}
		sup.Capabilities = normalizeCapabilities(sup.Capabilities)
		sup.CreatedAt = now
	}
	sup.UpdatedAt = now

	caps, err := json.Marshal(sup.Capabilities)
	if err != nil {
		return fmt.Errorf("marshalling capabilities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO suppliers (id, name, email, website, region, capabilities, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			website = excluded.website,
			region = excluded.region,
			capabilities = excluded.capabilities,
			updated_at = excluded.updated_at`),
		sup.ID, sup.Name, sup.Email, sup.Website, sup.Region, string(caps), string(sup.Source), sup.CreatedAt, sup.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving supplier: %w", err)
	}
	return nil
}

func merge(dst *Supplier, src *Supplier) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = strings.TrimSpace(s)
		}
	}
	fill(&dst.Email, src.Email)
	fill(&dst.Website, src.Website)
	fill(&dst.Region, src.Region)
	dst.Capabilities = normalizeCapabilities(append(dst.Capabilities, src.Capabilities...))
}

func normalizeCapabilities(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Get returns the supplier with the given id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Supplier, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+selectColumns+` FROM suppliers WHERE id = ?`), id)
	return scanOne(row)
}

// GetByName looks a supplier up by name, ignoring case.
func (s *Store) GetByName(ctx context.Context, name string) (*Supplier, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+selectColumns+` FROM suppliers WHERE LOWER(name) = LOWER(?)`), strings.TrimSpace(name))
	return scanOne(row)
}

func scanOne(row *sql.Row) (*Supplier, error) {
	sup, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting supplier: %w", err)
	}
	return sup, nil
}

// List returns suppliers ordered by name, optionally limited to a region.
func (s *Store) List(ctx context.Context, region string) ([]Supplier, error) {
	query := `SELECT ` + selectColumns + ` FROM suppliers`
	var args []any
	if region != "" {
		query += ` WHERE LOWER(region) = LOWER(?)`
		args = append(args, region)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		out = append(out, *sup)
	}
	return out, rows.Err()
}

// Delete removes a supplier.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM suppliers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting supplier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("supplier %s not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSupplier(sc scanner) (*Supplier, error) {
	var sup Supplier
	var caps, source string
	if err := sc.Scan(&sup.ID, &sup.Name, &sup.Email, &sup.Website, &sup.Region, &caps, &source, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
		return nil, err
	}
	sup.Source = Source(source)
	if err := json.Unmarshal([]byte(caps), &sup.Capabilities); err != nil {
		return nil, fmt.Errorf("decoding capabilities: %w", err)
	}
	return &sup, nil
}
