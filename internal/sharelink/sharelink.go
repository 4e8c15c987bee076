// Package sharelink moves RFQs and quotes between otherwise disconnected
// buyer and supplier sessions. The whole object travels inside the URL as
// compressed JSON, so the receiving side needs neither an account nor access
// to the sender's storage.
package sharelink

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// Mode tells the receiver what the payload holds.
type Mode string

const (
	// ModeSupplier carries an RFQ from a buyer to a supplier.
	ModeSupplier Mode = "supplier"
	// ModeQuoteResponse carries a quote from a supplier back to the buyer.
	ModeQuoteResponse Mode = "quote_response"
)

// Query parameter names.
const (
	ParamMode = "mode"
	ParamData = "data"
)

// SupplierRFQ is the part of an RFQ a supplier gets to see. Internal notes,
// risk findings, owner and status stay with the buyer.
type SupplierRFQ struct {
	ID                 string              `json:"id"`
	ProjectName        string              `json:"project_name"`
	ProjectDescription string              `json:"project_description"`
	LineItems          []rfq.LineItem      `json:"line_items"`
	CommercialTerms    rfq.CommercialTerms `json:"commercial_terms"`
	CreatedAt          time.Time           `json:"created_at"`
}

// SupplierView returns the supplier subset of r.
func SupplierView(r *rfq.Rfq) SupplierRFQ {
	items := r.Clone().LineItems
	if items == nil {
		items = []rfq.LineItem{}
	}
	return SupplierRFQ{
		ID:                 r.ID,
		ProjectName:        r.ProjectName,
		ProjectDescription: r.ProjectDescription,
		LineItems:          items,
		CommercialTerms:    r.CommercialTerms,
		CreatedAt:          r.CreatedAt,
	}
}

// Rfq converts the subset back into an RFQ.
func (s SupplierRFQ) Rfq() *rfq.Rfq {
	return &rfq.Rfq{
		ID:                 s.ID,
		ProjectName:        s.ProjectName,
		ProjectDescription: s.ProjectDescription,
		LineItems:          s.LineItems,
		CommercialTerms:    s.CommercialTerms,
		CreatedAt:          s.CreatedAt,
	}
}

// EncodeRFQ returns the compressed supplier payload for r.
func EncodeRFQ(r *rfq.Rfq) (string, error) {
	return encode(SupplierView(r))
}

// EncodeQuote returns the compressed quote payload for q.
func EncodeQuote(q *quote.Quote) (string, error) {
	return encode(q)
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshalling share payload: %w", err)
	}
	return CompressToEncodedURIComponent(string(data)), nil
}

// BuildURL returns base with its query replaced by exactly mode and data.
// Any fragment is dropped along with other parameters.
func BuildURL(base string, mode Mode, data string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	u.RawQuery = ParamMode + "=" + url.QueryEscape(string(mode)) + "&" + ParamData + "=" + url.QueryEscape(data)
	u.Fragment = ""
	return u.String(), nil
}

// RFQLink builds the supplier link for r.
func RFQLink(base string, r *rfq.Rfq) (string, error) {
	data, err := EncodeRFQ(r)
	if err != nil {
		return "", err
	}
	return BuildURL(base, ModeSupplier, data)
}

// QuoteLink builds the quote_response link for q.
func QuoteLink(base string, q *quote.Quote) (string, error) {
	data, err := EncodeQuote(q)
	if err != nil {
		return "", err
	}
	return BuildURL(base, ModeQuoteResponse, data)
}
