package rfq

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrLineNotFound is returned when a line number does not exist on the RFQ.
var ErrLineNotFound = errors.New("line not found")

// Renumber returns a copy of items with lines re-sequenced 1..n in their
// current order.
func Renumber(items []LineItem) []LineItem {
	out := cloneItems(items)
	for i := range out {
		out[i].Line = i + 1
	}
	return out
}

// DeleteLine removes the given line and re-sequences the rest, preserving
// their relative order.
func DeleteLine(items []LineItem, line int) ([]LineItem, error) {
	idx := indexOf(items, line)
	if idx < 0 {
		return nil, ErrLineNotFound
	}
	kept := make([]LineItem, 0, len(items)-1)
	kept = append(kept, items[:idx]...)
	kept = append(kept, items[idx+1:]...)
	return Renumber(kept), nil
}

// AddLine appends item as the last line. A missing item id is generated.
func AddLine(items []LineItem, item LineItem) []LineItem {
	if item.ItemID == "" {
		item.ItemID = uuid.New().String()
	}
	out := append(cloneItems(items), item)
	return Renumber(out)
}

// UpdateLine replaces the item at item.Line, keeping its item id when the
// replacement does not carry one.
func UpdateLine(items []LineItem, item LineItem) ([]LineItem, error) {
	idx := indexOf(items, item.Line)
	if idx < 0 {
		return nil, ErrLineNotFound
	}
	out := cloneItems(items)
	if item.ItemID == "" {
		item.ItemID = out[idx].ItemID
	}
	out[idx] = item
	return out, nil
}

func indexOf(items []LineItem, line int) int {
	for i, it := range items {
		if it.Line == line {
			return i
		}
	}
	return -1
}

// MergeParsed folds an AI-parsed fragment into r. Parsed line items are
// appended after the existing ones; parsed project fields and terms only
// fill values the buyer has not set yet.
func MergeParsed(r *Rfq, parsed *Rfq) {
	if parsed == nil {
		return
	}
	if strings.TrimSpace(r.ProjectName) == "" {
		r.ProjectName = parsed.ProjectName
	}
	if strings.TrimSpace(r.ProjectDescription) == "" {
		r.ProjectDescription = parsed.ProjectDescription
	}

	items := cloneItems(r.LineItems)
	for _, it := range parsed.LineItems {
		if it.ItemID == "" {
			it.ItemID = uuid.New().String()
		}
		items = append(items, it)
	}
	r.LineItems = Renumber(items)

	mergeTerms(&r.CommercialTerms, parsed.CommercialTerms)
}

func mergeTerms(dst *CommercialTerms, src CommercialTerms) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Incoterm, src.Incoterm)
	fill(&dst.DeliveryLocation, src.DeliveryLocation)
	fill(&dst.RequiredDate, src.RequiredDate)
	fill(&dst.PaymentTerms, src.PaymentTerms)
	fill(&dst.Currency, src.Currency)
	fill(&dst.Notes, src.Notes)
}
