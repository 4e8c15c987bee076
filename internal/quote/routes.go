package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// Routes serves the buyer quote API. Access to a quote goes through the RFQ
// it answers, so a buyer only sees quotes for their own RFQs.
type Routes struct {
	Quotes   *Store
	Rfqs     *rfq.Store
	Activity *activity.Store
	FX       Options
	// Received is called after a quote is stored, e.g. to record the
	// supplier in the directory.
	Received func(r *http.Request, q *Quote)
}

// RegisterRoutes mounts the quote endpoints on r.
func RegisterRoutes(r chi.Router, rt *Routes) {
	r.Get("/api/rfqs/{id}/quotes", rt.handleList)
	r.Post("/api/rfqs/{id}/quotes", rt.handleCreate)
	r.Get("/api/rfqs/{id}/compare", rt.handleCompare)
	r.Get("/api/rfqs/{id}/compare.xlsx", rt.handleExport)
	r.Get("/api/quotes/{quoteID}", rt.handleGet)
	r.Delete("/api/quotes/{quoteID}", rt.handleDelete)
}

func (rt *Routes) ownedRFQ(w http.ResponseWriter, r *http.Request, rfqID string) (*rfq.Rfq, bool) {
	id, _ := user.FromContext(r.Context())
	found, err := rt.Rfqs.GetOwned(r.Context(), rfqID, id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "rfq not found")
		return nil, false
	}
	return found, true
}

func (rt *Routes) ownedQuote(w http.ResponseWriter, r *http.Request) (*Quote, bool) {
	q, err := rt.Quotes.Get(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "quote not found")
		return nil, false
	}
	if _, ok := rt.ownedRFQ(w, r, q.RfqID); !ok {
		return nil, false
	}
	return q, true
}

func (rt *Routes) handleList(w http.ResponseWriter, r *http.Request) {
	owned, ok := rt.ownedRFQ(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	quotes, err := rt.Quotes.ListByRFQ(r.Context(), owned.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if quotes == nil {
		quotes = []Quote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

// handleCreate records a quote the buyer received outside a share link,
// e.g. by email.
func (rt *Routes) handleCreate(w http.ResponseWriter, r *http.Request) {
	owned, ok := rt.ownedRFQ(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var q Quote
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if q.SupplierName == "" {
		writeError(w, http.StatusBadRequest, "supplier_name is required")
		return
	}
	if q.Currency != "" && !ValidCurrency(q.Currency) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown currency %q", q.Currency))
		return
	}
	q.ID = ""
	q.RfqID = owned.ID
	q.Recalculate()
	if err := rt.Quotes.Save(r.Context(), &q); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rt.Activity.Record(r.Context(), owned.OwnerID, activity.ActionQuoteReceived, owned.ID,
		fmt.Sprintf("quote from %s", q.SupplierName))
	if rt.Received != nil {
		rt.Received(r, &q)
	}
	writeJSON(w, http.StatusCreated, q)
}

func (rt *Routes) handleGet(w http.ResponseWriter, r *http.Request) {
	q, ok := rt.ownedQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Routes) handleDelete(w http.ResponseWriter, r *http.Request) {
	q, ok := rt.ownedQuote(w, r)
	if !ok {
		return
	}
	if err := rt.Quotes.Delete(r.Context(), q.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Routes) compare(w http.ResponseWriter, r *http.Request) (*rfq.Rfq, []Quote, *Comparison, bool) {
	owned, ok := rt.ownedRFQ(w, r, chi.URLParam(r, "id"))
	if !ok {
		return nil, nil, nil, false
	}
	quotes, err := rt.Quotes.ListByRFQ(r.Context(), owned.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, nil, false
	}
	c, err := Compare(quotes, rt.FX)
	if errors.Is(err, ErrNoQuotes) {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, nil, nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, nil, false
	}
	return owned, quotes, c, true
}

func (rt *Routes) handleCompare(w http.ResponseWriter, r *http.Request) {
	_, _, c, ok := rt.compare(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Routes) handleExport(w http.ResponseWriter, r *http.Request) {
	owned, quotes, c, ok := rt.compare(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison-%s.xlsx"`, owned.ID))
	if err := ExportXLSX(w, owned, quotes, c); err != nil {
		slog.Error("exporting comparison", "rfq", owned.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
