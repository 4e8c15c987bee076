// Package workspace holds the application state a page works against and
// the pure transitions between states. Handlers build a State per request,
// apply reducers and return the result; nothing here is shared or mutated
// in place.
package workspace

import (
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// View names a page of the application.
type View string

const (
	ViewHome              View = "home"
	ViewLogin             View = "login"
	ViewBuyerWorkspace    View = "buyer_workspace"
	ViewSupplierWorkspace View = "supplier_workspace"
	ViewCompare           View = "compare"
	ViewPricing           View = "pricing"
	ViewBlog              View = "blog"
	ViewCapabilities      View = "capabilities"
)

var knownViews = map[View]bool{
	ViewHome: true, ViewLogin: true, ViewBuyerWorkspace: true, ViewSupplierWorkspace: true,
	ViewCompare: true, ViewPricing: true, ViewBlog: true, ViewCapabilities: true,
}

// ParseView returns the view named s, if it is one.
func ParseView(s string) (View, bool) {
	v := View(s)
	return v, knownViews[v]
}

// RequiresUser reports whether the view is only for signed-in buyers.
func (v View) RequiresUser() bool {
	return v == ViewBuyerWorkspace || v == ViewCompare
}

// State is everything a page renders from.
type State struct {
	User   *user.Identity `json:"user,omitempty"`
	View   View           `json:"view"`
	Rfq    *rfq.Rfq       `json:"rfq,omitempty"`
	Quotes []quote.Quote  `json:"quotes"`
	Lang   string         `json:"lang"`
}

// New returns the state of a fresh visit.
func New() State {
	return State{View: ViewHome, Quotes: []quote.Quote{}, Lang: DefaultLang}
}

// SwitchView moves to v. Buyer views without a user land on login instead;
// unknown views leave the state unchanged.
func SwitchView(s State, v View) State {
	if !knownViews[v] {
		return s
	}
	if v.RequiresUser() && s.User == nil {
		v = ViewLogin
	}
	s.View = v
	return s
}

// SetRfq replaces the current RFQ. Quotes belong to the RFQ they answer, so
// switching to a different RFQ clears them.
func SetRfq(s State, r *rfq.Rfq) State {
	if s.Rfq == nil || r == nil || s.Rfq.ID != r.ID {
		s.Quotes = []quote.Quote{}
	}
	s.Rfq = r.Clone()
	return s
}

// UpdateRfq applies fn to a copy of the current RFQ. Without an RFQ the
// state is returned unchanged.
func UpdateRfq(s State, fn func(*rfq.Rfq)) State {
	if s.Rfq == nil {
		return s
	}
	next := s.Rfq.Clone()
	fn(next)
	s.Rfq = next
	return s
}

// ReceiveQuote adds q to the quotes. A quote with an id already present
// replaces the earlier copy in place.
func ReceiveQuote(s State, q quote.Quote) State {
	quotes := make([]quote.Quote, 0, len(s.Quotes)+1)
	replaced := false
	for _, existing := range s.Quotes {
		if q.ID != "" && existing.ID == q.ID {
			quotes = append(quotes, q)
			replaced = true
			continue
		}
		quotes = append(quotes, existing)
	}
	if !replaced {
		quotes = append(quotes, q)
	}
	s.Quotes = quotes
	return s
}

// Login attaches a user. A visitor waiting on the login page continues to
// the buyer workspace.
func Login(s State, id user.Identity) State {
	s.User = &id
	if s.View == ViewLogin {
		s.View = ViewBuyerWorkspace
	}
	return s
}

// Logout drops the user and everything private to them.
func Logout(s State) State {
	s.User = nil
	s.Rfq = nil
	s.Quotes = []quote.Quote{}
	s.View = ViewHome
	return s
}

// SetLang switches the interface language to the closest supported one.
func SetLang(s State, lang string) State {
	s.Lang = MatchLang(lang)
	return s
}
