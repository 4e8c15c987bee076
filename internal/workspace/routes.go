package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/metrics"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// Routes serves page bootstrap and drafting chat.
type Routes struct {
	Chatter  *Chatter
	Rfqs     *rfq.Store
	Quotes   *quote.Store
	Activity *activity.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// Received is called after a quote from a share link is stored.
	Received func(r *http.Request, q *quote.Quote)
}

func (rt *Routes) logger() *slog.Logger {
	if rt.Logger == nil {
		return slog.Default()
	}
	return rt.Logger
}

// RegisterRoutes mounts the chat endpoints. Callers wrap r with
// user.RequireAuth.
func RegisterRoutes(r chi.Router, rt *Routes) {
	r.Post("/api/chat", rt.handleChat)
	r.Post("/api/rfqs/{id}/chat", rt.handleChat)
}

// RegisterWebSocketRoutes mounts the streaming chat. It must not sit behind
// a request timeout. Callers wrap r with user.RequireAuth.
func RegisterWebSocketRoutes(r chi.Router, rt *Routes) {
	r.Get("/api/chat/ws", rt.Chatter.handleWebSocket)
}

// RegisterPublicRoutes mounts the page bootstrap. Callers wrap r with
// user.OptionalAuth so signed-in buyers get their own RFQs looked up.
func RegisterPublicRoutes(r chi.Router, rt *Routes) {
	r.Get("/api/share/open", rt.handleOpen)
}

func (rt *Routes) handleOpen(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	s := SetLang(New(), r.Header.Get("Accept-Language"))
	var lookup sharelink.Lookup
	id, signedIn := user.FromContext(ctx)
	if signedIn {
		s = Login(s, id)
		lookup = sharelink.LookupFunc(func(ctx context.Context, rfqID string) (*rfq.Rfq, error) {
			return rt.Rfqs.GetOwned(ctx, rfqID, id.ID)
		})
	}

	query := r.URL.Query()
	boot := Bootstrap(ctx, s, query, lookup, rt.logger())
	if sharelink.Present(query) {
		rt.Metrics.Observe(ctx, "share_open", boot.Share.OK, time.Since(start))
	}

	// A quote answering one of the buyer's own RFQs is kept. Against a
	// shadow RFQ it is only shown.
	if boot.Share.OK && boot.Share.Mode == sharelink.ModeQuoteResponse && signedIn && !boot.Share.Rfq.Reconstructed {
		q := boot.Share.Quote
		err := rt.Quotes.Save(ctx, q)
		if errors.Is(err, quote.ErrConflict) {
			// Shown, not kept: the id is already taken by another RFQ's quote.
			rt.logger().Warn("ignoring shared quote with foreign id", "quote", q.ID, "rfq", q.RfqID)
			writeJSON(w, http.StatusOK, boot)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if all, err := rt.Quotes.ListByRFQ(ctx, q.RfqID); err == nil {
			st := boot.State
			st.Quotes = []quote.Quote{}
			for _, existing := range all {
				st = ReceiveQuote(st, existing)
			}
			boot.State = st
		}
		rt.Activity.Record(ctx, id.ID, activity.ActionQuoteReceived, q.RfqID,
			fmt.Sprintf("%s quoted %s %.2f via share link", q.SupplierName, q.Currency, q.Total))
		if rt.Received != nil {
			rt.Received(r, q)
		}
		boot.Imported = true
	}
	writeJSON(w, http.StatusOK, boot)
}

func (rt *Routes) handleChat(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	var t Turn
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rfqID := chi.URLParam(r, "id"); rfqID != "" {
		t.RfqID = rfqID
	}

	res, err := rt.Chatter.Run(r.Context(), id.ID, t)
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "message is required")
		return
	case errors.Is(err, ErrRFQNotFound):
		writeError(w, http.StatusNotFound, "rfq not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
