package sharelink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// Lookup finds the original RFQ a returned quote answers. Returning nil, nil
// means it is not available to this receiver.
type Lookup interface {
	Get(ctx context.Context, id string) (*rfq.Rfq, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (*rfq.Rfq, error)

// Get calls f.
func (f LookupFunc) Get(ctx context.Context, id string) (*rfq.Rfq, error) { return f(ctx, id) }

// Result is what a receiver hydrates from a share link.
type Result struct {
	OK    bool         `json:"ok"`
	Mode  Mode         `json:"mode,omitempty"`
	Rfq   *rfq.Rfq     `json:"rfq,omitempty"`
	Quote *quote.Quote `json:"quote,omitempty"`
	// StripQuery tells the client to replace the address bar URL with one
	// without the share parameters, so a refresh does not import again.
	StripQuery bool `json:"strip_query"`
}

// Present reports whether the query carries a share link at all.
func Present(query url.Values) bool {
	return query.Get(ParamMode) != "" || query.Get(ParamData) != ""
}

// Decode hydrates the object carried by query. Every failure is soft: it is
// logged and reported as a Result with OK false, and the caller falls back
// to its default view. lookup may be nil.
func Decode(ctx context.Context, query url.Values, lookup Lookup, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	mode := Mode(query.Get(ParamMode))
	data := query.Get(ParamData)
	if mode == "" && data == "" {
		return Result{}
	}

	res, err := decode(ctx, mode, data, lookup)
	if err != nil {
		logger.Warn("ignoring share link", "mode", mode, "error", err)
		return Result{}
	}
	return res
}

// DecodeURL is Decode for a full link.
func DecodeURL(ctx context.Context, raw string, lookup Lookup) (Result, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	q := u.Query()
	return decode(ctx, Mode(q.Get(ParamMode)), q.Get(ParamData), lookup)
}

func decode(ctx context.Context, mode Mode, data string, lookup Lookup) (Result, error) {
	if data == "" {
		return Result{}, fmt.Errorf("%w: missing data", ErrMalformed)
	}

	switch mode {
	case ModeSupplier:
		var s SupplierRFQ
		if err := unpack(data, &s); err != nil {
			return Result{}, err
		}
		return Result{OK: true, Mode: mode, Rfq: s.Rfq(), StripQuery: true}, nil

	case ModeQuoteResponse:
		var q quote.Quote
		if err := unpack(data, &q); err != nil {
			return Result{}, err
		}
		var original *rfq.Rfq
		if lookup != nil && q.RfqID != "" {
			found, err := lookup.Get(ctx, q.RfqID)
			if err != nil {
				return Result{}, fmt.Errorf("looking up rfq %s: %w", q.RfqID, err)
			}
			original = found
		}
		if original == nil {
			original = ShadowRFQ(&q)
		}
		return Result{OK: true, Mode: mode, Rfq: original, Quote: &q, StripQuery: true}, nil

	default:
		return Result{}, fmt.Errorf("%w: unknown mode %q", ErrMalformed, mode)
	}
}

func unpack(data string, v any) error {
	raw, err := DecompressFromEncodedURIComponent(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ShadowRFQ builds a stand-in RFQ from a quote whose original RFQ is not
// available. It is flagged as reconstructed so it is never mistaken for the
// buyer's own record.
func ShadowRFQ(q *quote.Quote) *rfq.Rfq {
	items := make([]rfq.LineItem, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, rfq.LineItem{
			ItemID:      fmt.Sprintf("line-%d", it.Line),
			Line:        it.Line,
			Description: fmt.Sprintf("Line %d", it.Line),
			Quantity:    it.Quantity,
		})
	}
	name := "Reconstructed RFQ"
	if q.SupplierName != "" {
		name = fmt.Sprintf("Reconstructed RFQ (quote from %s)", q.SupplierName)
	}
	return &rfq.Rfq{
		ID:            q.RfqID,
		ProjectName:   name,
		LineItems:     items,
		Reconstructed: true,
		CreatedAt:     q.CreatedAt,
	}
}
