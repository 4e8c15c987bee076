package rfq

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// RegisterRoutes mounts the buyer RFQ API. Callers wrap r with
// user.RequireAuth; every handler scopes access to the caller's own RFQs.
func RegisterRoutes(r chi.Router, store *Store, log *activity.Store) {
	r.Get("/api/rfqs", handleList(store))
	r.Post("/api/rfqs", handleCreate(store, log))
	r.Get("/api/rfqs/{id}", handleGet(store))
	r.Put("/api/rfqs/{id}", handleUpdate(store, log))
	r.Delete("/api/rfqs/{id}", handleDelete(store))
	r.Post("/api/rfqs/{id}/archive", handleArchive(store, log))
	r.Post("/api/rfqs/{id}/lines", handleAddLine(store, log))
	r.Put("/api/rfqs/{id}/lines/{line}", handleUpdateLine(store, log))
	r.Delete("/api/rfqs/{id}/lines/{line}", handleDeleteLine(store, log))
	r.Get("/api/rfqs/{id}/activity", handleActivity(store, log))
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := user.FromContext(r.Context())
		filter := ListFilter{OwnerID: id.ID}
		if v := r.URL.Query().Get("status"); v != "" {
			filter.Status = Status(v)
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		rfqs, err := store.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if rfqs == nil {
			rfqs = []Rfq{}
		}
		writeJSON(w, http.StatusOK, rfqs)
	}
}

func handleCreate(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := user.FromContext(r.Context())
		var in Rfq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created := &Rfq{
			OwnerID:            id.ID,
			ProjectName:        in.ProjectName,
			ProjectDescription: in.ProjectDescription,
			Status:             StatusDraft,
			LineItems:          Renumber(in.LineItems),
			CommercialTerms:    in.CommercialTerms,
			InternalNotes:      in.InternalNotes,
		}
		for i := range created.LineItems {
			if created.LineItems[i].ItemID == "" {
				created.LineItems[i].ItemID = uuid.New().String()
			}
		}
		if err := store.Save(r.Context(), created); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), id.ID, activity.ActionRFQCreated, created.ID, created.ProjectName)
		writeJSON(w, http.StatusCreated, created)
	}
}

// loadOwned fetches the RFQ in the URL and writes a 404 unless it belongs to
// the caller.
func loadOwned(store *Store, w http.ResponseWriter, r *http.Request) (*Rfq, bool) {
	id, _ := user.FromContext(r.Context())
	found, err := store.GetOwned(r.Context(), chi.URLParam(r, "id"), id.ID)
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

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, found)
	}
}

func handleUpdate(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		var in Rfq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		existing.ProjectName = in.ProjectName
		existing.ProjectDescription = in.ProjectDescription
		existing.CommercialTerms = in.CommercialTerms
		existing.InternalNotes = in.InternalNotes
		if in.LineItems != nil {
			existing.LineItems = Renumber(in.LineItems)
		}
		if in.Status == StatusDraft || in.Status == StatusSent {
			existing.Status = in.Status
		}
		if err := store.Save(r.Context(), existing); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), existing.OwnerID, activity.ActionRFQUpdated, existing.ID, "")
		writeJSON(w, http.StatusOK, existing)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), existing.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleArchive(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		if err := store.Archive(r.Context(), existing.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), existing.OwnerID, activity.ActionRFQArchived, existing.ID, "")
		writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusArchived)})
	}
}

func handleAddLine(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		var item LineItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		existing.LineItems = AddLine(existing.LineItems, item)
		if err := store.Save(r.Context(), existing); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), existing.OwnerID, activity.ActionRFQUpdated, existing.ID,
			fmt.Sprintf("added line %d", len(existing.LineItems)))
		writeJSON(w, http.StatusCreated, existing)
	}
}

func handleUpdateLine(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		line, err := strconv.Atoi(chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "line must be a number")
			return
		}
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		var item LineItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item.Line = line

		items, err := UpdateLine(existing.LineItems, item)
		if errors.Is(err, ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		existing.LineItems = items
		if err := store.Save(r.Context(), existing); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), existing.OwnerID, activity.ActionRFQUpdated, existing.ID,
			fmt.Sprintf("updated line %d", line))
		writeJSON(w, http.StatusOK, existing)
	}
}

func handleDeleteLine(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		line, err := strconv.Atoi(chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "line must be a number")
			return
		}
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}

		items, err := DeleteLine(existing.LineItems, line)
		if errors.Is(err, ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		existing.LineItems = items
		if err := store.Save(r.Context(), existing); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Record(r.Context(), existing.OwnerID, activity.ActionLineDeleted, existing.ID,
			fmt.Sprintf("deleted line %d", line))
		writeJSON(w, http.StatusOK, existing)
	}
}

func handleActivity(store *Store, log *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := loadOwned(store, w, r)
		if !ok {
			return
		}
		entries, err := log.ListByRFQ(r.Context(), existing.ID, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if entries == nil {
			entries = []activity.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
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
