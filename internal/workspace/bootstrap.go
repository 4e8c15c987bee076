package workspace

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
)

// ParamView overrides the initial view; ParamLang the interface language.
const (
	ParamView = "view"
	ParamLang = "lang"
)

// Boot is the outcome of a page load.
type Boot struct {
	State State            `json:"state"`
	Share sharelink.Result `json:"share"`
	// Imported is set when a returned quote was stored for its buyer.
	Imported bool `json:"imported,omitempty"`
}

// Bootstrap derives the initial state of a page from its query string.
// A share link is applied first: a supplier link opens the supplier
// workspace with no sign-in, a quote response opens the comparison with the
// quote received. A bad link is ignored and the page opens normally. The
// view parameter is applied last. lookup may be nil.
func Bootstrap(ctx context.Context, s State, query url.Values, lookup sharelink.Lookup, logger *slog.Logger) Boot {
	res := sharelink.Decode(ctx, query, lookup, logger)
	if res.OK {
		switch res.Mode {
		case sharelink.ModeSupplier:
			s = SetRfq(s, res.Rfq)
			s.View = ViewSupplierWorkspace
		case sharelink.ModeQuoteResponse:
			s = SetRfq(s, res.Rfq)
			s = ReceiveQuote(s, *res.Quote)
			// The link carries everything the comparison shows.
			s.View = ViewCompare
		}
	} else if sharelink.Present(query) {
		// A link that failed to decode still gets its parameters stripped.
		res.StripQuery = true
	}

	if v, ok := ParseView(query.Get(ParamView)); ok {
		s = SwitchView(s, v)
		res.StripQuery = true
	}
	if lang := query.Get(ParamLang); lang != "" {
		s = SetLang(s, lang)
	}
	return Boot{State: s, Share: res}
}
