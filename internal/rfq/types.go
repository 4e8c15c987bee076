package rfq

import "time"

// Status is the lifecycle state of an RFQ. RFQs are never removed
// automatically; archiving is a soft status change.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusArchived Status = "archived"
)

// Severity grades a risk annotation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Dimension is a single measured value with its unit, e.g. {12.7, "mm"}.
type Dimension struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Size holds the three dimensions of a product. Thickness doubles as wall
// thickness or diameter depending on product type.
type Size struct {
	Length    Dimension `json:"length"`
	Width     Dimension `json:"width"`
	Thickness Dimension `json:"thickness"`
}

// LineItem is one requested material or product.
type LineItem struct {
	ItemID       string   `json:"item_id"`
	Line         int      `json:"line"`
	Description  string   `json:"description"`
	ProductType  string   `json:"product_type"`
	Grade        string   `json:"grade"`
	Tolerance    string   `json:"tolerance"`
	Size         Size     `json:"size"`
	Quantity     float64  `json:"quantity"`
	UOM          string   `json:"uom"`
	Requirements []string `json:"requirements"`
}

// CommercialTerms are the non-technical conditions of the request.
type CommercialTerms struct {
	Incoterm         string `json:"incoterm"`
	DeliveryLocation string `json:"delivery_location"`
	RequiredDate     string `json:"required_date"`
	PaymentTerms     string `json:"payment_terms"`
	Currency         string `json:"currency"`
	Notes            string `json:"notes"`
}

// IsZero reports whether no term has been set.
func (t CommercialTerms) IsZero() bool {
	return t == CommercialTerms{}
}

// RiskAnnotation is a finding from the technical audit. Line 0 refers to the RFQ
// as a whole.
type RiskAnnotation struct {
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// Rfq is a buyer's request for quotation.
type Rfq struct {
	ID                 string           `json:"id"`
	OwnerID            string           `json:"owner_id,omitempty"`
	ProjectName        string           `json:"project_name"`
	ProjectDescription string           `json:"project_description"`
	Status             Status           `json:"status,omitempty"`
	LineItems          []LineItem       `json:"line_items"`
	CommercialTerms    CommercialTerms  `json:"commercial_terms"`
	InternalNotes      string           `json:"internal_notes,omitempty"`
	Risks              []RiskAnnotation `json:"risks,omitempty"`
	// Reconstructed marks a shadow RFQ rebuilt from a quote because the
	// original was not available locally.
	Reconstructed bool      `json:"reconstructed,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy.
func (r *Rfq) Clone() *Rfq {
	if r == nil {
		return nil
	}
	c := *r
	c.LineItems = cloneItems(r.LineItems)
	if r.Risks != nil {
		c.Risks = append([]RiskAnnotation(nil), r.Risks...)
	}
	return &c
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.Requirements != nil {
			out[i].Requirements = append([]string(nil), it.Requirements...)
		}
	}
	return out
}

// ListFilter narrows List results.
type ListFilter struct {
	OwnerID string
	Status  Status
	Limit   int
	Offset  int
}
