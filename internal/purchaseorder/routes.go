package purchaseorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// Routes serves purchase order downloads. Blobs and Activity may be nil.
type Routes struct {
	Quotes   *quote.Store
	Rfqs     *rfq.Store
	Users    *user.Store
	Activity *activity.Store
	Blobs    blob.Store
	Logger   *slog.Logger
	Now      func() time.Time
}

// RegisterRoutes mounts the purchase order endpoint on r.
func RegisterRoutes(r chi.Router, rt *Routes) {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	if rt.Now == nil {
		rt.Now = time.Now
	}
	r.Get("/api/quotes/{quoteID}/po.pdf", rt.handlePDF)
}

func (rt *Routes) handlePDF(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	q, err := rt.Quotes.Get(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "quote not found")
		return
	}
	owned, err := rt.Rfqs.GetOwned(r.Context(), q.RfqID, id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if owned == nil {
		writeError(w, http.StatusNotFound, "quote not found")
		return
	}

	var profile *user.BuyerProfile
	if rt.Users != nil {
		profile, err = rt.Users.GetProfile(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	po := Build(q, owned, profile, rt.Now().UTC())
	var buf bytes.Buffer
	if err := Render(po, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if rt.Blobs != nil {
		if _, err := rt.Blobs.Put(r.Context(), blob.PurchaseOrderKey(q.ID), bytes.NewReader(buf.Bytes()), "application/pdf"); err != nil {
			rt.Logger.Warn("archiving purchase order failed", "quote_id", q.ID, "error", err)
		}
	}
	rt.Activity.Record(r.Context(), id.ID, activity.ActionPOGenerated, owned.ID,
		fmt.Sprintf("%s for %s", po.Number, q.SupplierName))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, po.Number))
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
