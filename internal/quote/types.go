package quote

import (
	"math"
	"time"
)

// Item is the supplier's price for one RFQ line. Line refers to the RFQ line
// number by value; nothing checks that it exists.
type Item struct {
	Line      int     `json:"line"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// Quote is a supplier's response to an RFQ.
type Quote struct {
	ID            string    `json:"id"`
	RfqID         string    `json:"rfq_id"`
	SupplierName  string    `json:"supplier_name"`
	SupplierEmail string    `json:"supplier_email,omitempty"`
	Currency      string    `json:"currency"`
	Items         []Item    `json:"items"`
	Total         float64   `json:"total"`
	LeadTime      string    `json:"lead_time"`
	PaymentTerms  string    `json:"payment_terms"`
	Validity      string    `json:"validity"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recalculate sets every line total to unit price times quantity and the
// quote total to their sum, rounded to cents. A lump-sum quote without items
// keeps its total.
func (q *Quote) Recalculate() {
	if len(q.Items) == 0 {
		return
	}
	var total float64
	for i := range q.Items {
		q.Items[i].LineTotal = roundCents(q.Items[i].UnitPrice * q.Items[i].Quantity)
		total += q.Items[i].LineTotal
	}
	q.Total = roundCents(total)
}

// Item returns the priced item for an RFQ line, if the quote has one.
func (q *Quote) Item(line int) (Item, bool) {
	for _, it := range q.Items {
		if it.Line == line {
			return it, true
		}
	}
	return Item{}, false
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
