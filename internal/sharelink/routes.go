package sharelink

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// Routes serves share link creation.
type Routes struct {
	Rfqs     *rfq.Store
	Activity *activity.Store
	// BaseURL is the page suppliers and buyers open links on.
	BaseURL string
}

// LinkResponse is returned by the link endpoints.
type LinkResponse struct {
	URL  string `json:"url"`
	Mode Mode   `json:"mode"`
	Data string `json:"data"`
}

// RegisterRoutes mounts the buyer side, which requires authentication.
func RegisterRoutes(r chi.Router, rt *Routes) {
	r.Get("/api/rfqs/{id}/share", rt.handleShareRFQ)
}

// RegisterPublicRoutes mounts the supplier side, which needs no account.
func RegisterPublicRoutes(r chi.Router, rt *Routes) {
	r.Post("/api/share/quote", rt.handleShareQuote)
}

func (rt *Routes) handleShareRFQ(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	found, err := rt.Rfqs.GetOwned(r.Context(), chi.URLParam(r, "id"), id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "rfq not found")
		return
	}

	data, err := EncodeRFQ(found)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	link, err := BuildURL(rt.BaseURL, ModeSupplier, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if found.Status == rfq.StatusDraft {
		found.Status = rfq.StatusSent
		if err := rt.Rfqs.Save(r.Context(), found); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	rt.Activity.Record(r.Context(), id.ID, activity.ActionRFQShared, found.ID, "supplier link created")

	if r.URL.Query().Get("format") == "qr" {
		png, err := QRCode(link, found.ProjectName)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{URL: link, Mode: ModeSupplier, Data: data})
}

// handleShareQuote turns a supplier's priced quote into a link for the
// buyer. Nothing is stored; the quote lives only in the link.
func (rt *Routes) handleShareQuote(w http.ResponseWriter, r *http.Request) {
	var q quote.Quote
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if q.RfqID == "" || q.SupplierName == "" {
		writeError(w, http.StatusBadRequest, "rfq_id and supplier_name are required")
		return
	}
	if q.Currency != "" && !quote.ValidCurrency(q.Currency) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown currency %q", q.Currency))
		return
	}
	q.Recalculate()
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	data, err := EncodeQuote(&q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	link, err := BuildURL(rt.BaseURL, ModeQuoteResponse, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{URL: link, Mode: ModeQuoteResponse, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
