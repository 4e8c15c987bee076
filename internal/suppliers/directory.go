// Package suppliers keeps the buyer's supplier directory: suppliers entered
// by hand, found by AI discovery, or seen on received quotes. Suppliers are
// matched to RFQs semantically when an embedder is configured and by
// capability keywords otherwise.
package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// Directory combines the store, the optional semantic index and the AI
// gateway.
type Directory struct {
	store  *Store
	index  *Index
	ai     *assistant.Gateway
	logger *slog.Logger
}

// NewDirectory creates a directory. index and ai may be nil.
func NewDirectory(store *Store, index *Index, ai *assistant.Gateway, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{store: store, index: index, ai: ai, logger: logger}
}

// Store returns the underlying store.
func (d *Directory) Store() *Store { return d.store }

// Save upserts a supplier and refreshes its index entry.
func (d *Directory) Save(ctx context.Context, s *Supplier) error {
	if err := d.store.Upsert(ctx, s); err != nil {
		return err
	}
	d.reindex(ctx, *s)
	return nil
}

func (d *Directory) reindex(ctx context.Context, s Supplier) {
	if d.index == nil {
		return
	}
	if err := d.index.Add(ctx, []Supplier{s}); err != nil {
		d.logger.Warn("indexing supplier failed", "supplier", s.Name, "error", err)
	}
}

// Delete removes a supplier from the store and the index.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.store.Delete(ctx, id); err != nil {
		return err
	}
	if d.index != nil {
		if err := d.index.Remove(ctx, id); err != nil {
			d.logger.Warn("removing supplier from index failed", "id", id, "error", err)
		}
	}
	return nil
}

// Reindex loads every stored supplier into the index.
func (d *Directory) Reindex(ctx context.Context) (int, error) {
	if d.index == nil {
		return 0, nil
	}
	all, err := d.store.List(ctx, "")
	if err != nil {
		return 0, err
	}
	if err := d.index.Add(ctx, all); err != nil {
		return 0, fmt.Errorf("indexing suppliers: %w", err)
	}
	return len(all), nil
}

// RecordQuote adds the quoting supplier to the directory. The RFQ, when
// known, contributes its product types as capabilities.
func (d *Directory) RecordQuote(ctx context.Context, q *quote.Quote, r *rfq.Rfq) error {
	if strings.TrimSpace(q.SupplierName) == "" {
		return nil
	}
	s := &Supplier{Name: q.SupplierName, Email: q.SupplierEmail, Source: SourceQuote}
	if r != nil {
		for _, it := range r.LineItems {
			if it.ProductType != "" {
				s.Capabilities = append(s.Capabilities, it.ProductType)
			}
		}
	}
	return d.Save(ctx, s)
}

// Discover asks the AI for suppliers that can quote r and stores them.
func (d *Directory) Discover(ctx context.Context, r *rfq.Rfq, region string) ([]Supplier, error) {
	if d.ai == nil {
		return nil, fmt.Errorf("supplier discovery needs an AI provider")
	}
	found, err := d.ai.DiscoverSuppliers(ctx, r, region)
	if err != nil {
		return nil, err
	}
	out := make([]Supplier, 0, len(found))
	for _, f := range found {
		s := &Supplier{
			Name:         f.Name,
			Email:        f.Email,
			Website:      f.Website,
			Region:       f.Region,
			Capabilities: f.Capabilities,
			Source:       SourceAIDiscovery,
		}
		if err := d.Save(ctx, s); err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Match ranks directory suppliers against the RFQ's line items.
func (d *Directory) Match(ctx context.Context, r *rfq.Rfq, n int) ([]Match, error) {
	if n <= 0 {
		n = 10
	}
	if d.index != nil && d.index.Count() > 0 {
		return d.semanticMatch(ctx, r, n)
	}
	all, err := d.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return keywordMatch(all, r, n), nil
}

func (d *Directory) semanticMatch(ctx context.Context, r *rfq.Rfq, n int) ([]Match, error) {
	hits, err := d.index.Query(ctx, rfqText(r), n)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		s, err := d.store.Get(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		// Index entries can outlive deleted suppliers.
		if s == nil {
			continue
		}
		out = append(out, Match{Supplier: *s, Score: h.Score})
	}
	return out, nil
}

func rfqText(r *rfq.Rfq) string {
	var parts []string
	for _, it := range r.LineItems {
		parts = append(parts, strings.TrimSpace(strings.Join([]string{it.ProductType, it.Grade, it.Description}, " ")))
	}
	if r.CommercialTerms.DeliveryLocation != "" {
		parts = append(parts, "delivered to "+r.CommercialTerms.DeliveryLocation)
	}
	return strings.Join(parts, "; ")
}

// keywordMatch scores each supplier by the share of RFQ keywords found in
// its capabilities and name.
func keywordMatch(all []Supplier, r *rfq.Rfq, n int) []Match {
	want := tokens(rfqText(r))
	if len(want) == 0 {
		return nil
	}
	var out []Match
	for _, s := range all {
		have := tokens(s.Name + " " + strings.Join(s.Capabilities, " "))
		hit := 0
		for w := range want {
			if have[w] {
				hit++
			}
		}
		if hit == 0 {
			continue
		}
		out = append(out, Match{Supplier: s, Score: float32(hit) / float32(len(want))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Supplier.Name < out[j].Supplier.Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var stopWords = map[string]bool{"and": true, "for": true, "the": true, "with": true, "delivered": true, "to": true}

func tokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		out[strings.TrimSuffix(f, "s")] = true
	}
	return out
}
