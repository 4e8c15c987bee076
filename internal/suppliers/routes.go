package suppliers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// RegisterRoutes mounts the supplier directory API. Callers wrap r with
// user.RequireAuth.
func RegisterRoutes(r chi.Router, dir *Directory, rfqs *rfq.Store) {
	r.Get("/api/suppliers", handleList(dir))
	r.Post("/api/suppliers", handleCreate(dir))
	r.Delete("/api/suppliers/{supplierID}", handleDelete(dir))
	r.Get("/api/rfqs/{id}/suppliers", handleMatch(dir, rfqs))
	r.Post("/api/rfqs/{id}/suppliers/discover", handleDiscover(dir, rfqs))
}

func handleList(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := dir.Store().List(r.Context(), r.URL.Query().Get("region"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []Supplier{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreate(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Supplier
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if in.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		in.ID = ""
		in.Source = SourceManual
		if err := dir.Save(r.Context(), &in); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, in)
	}
}

func handleDelete(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := dir.Delete(r.Context(), chi.URLParam(r, "supplierID")); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ownedRFQ(rfqs *rfq.Store, w http.ResponseWriter, r *http.Request) (*rfq.Rfq, bool) {
	id, _ := user.FromContext(r.Context())
	found, err := rfqs.GetOwned(r.Context(), chi.URLParam(r, "id"), id.ID)
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

func handleMatch(dir *Directory, rfqs *rfq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, ok := ownedRFQ(rfqs, w, r)
		if !ok {
			return
		}
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		matches, err := dir.Match(r.Context(), found, n)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if matches == nil {
			matches = []Match{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func handleDiscover(dir *Directory, rfqs *rfq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, ok := ownedRFQ(rfqs, w, r)
		if !ok {
			return
		}
		var in struct {
			Region string `json:"region"`
		}
		// An empty body means any region.
		json.NewDecoder(r.Body).Decode(&in)

		list, err := dir.Discover(r.Context(), found, in.Region)
		if err != nil {
			dir.logger.Error("supplier discovery failed", "rfq_id", found.ID, "error", err)
			// Discovery failures show as an empty result, not an error page.
			writeJSON(w, http.StatusOK, []Supplier{})
			return
		}
		writeJSON(w, http.StatusOK, list)
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

