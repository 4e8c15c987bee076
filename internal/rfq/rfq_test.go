package rfq

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

func newTestStore(t *testing.T) (*Store, *activity.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database), activity.NewStore(database)
}

func threeItems() []LineItem {
	return []LineItem{
		{ItemID: "a", Line: 1, Description: "Plate 10mm", Quantity: 4, UOM: "pcs"},
		{ItemID: "b", Line: 2, Description: "Round bar 40mm", Quantity: 12, UOM: "m"},
		{ItemID: "c", Line: 3, Description: "Sheet 2mm", Quantity: 30, UOM: "pcs"},
	}
}

func TestDeleteLineRenumbers(t *testing.T) {
	items := threeItems()

	out, err := DeleteLine(items, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ItemID)
	assert.Equal(t, 1, out[0].Line)
	assert.Equal(t, "c", out[1].ItemID)
	assert.Equal(t, 2, out[1].Line)

	// input is untouched
	assert.Equal(t, 3, items[2].Line)
}

func TestDeleteLineMissing(t *testing.T) {
	_, err := DeleteLine(threeItems(), 7)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestAddLineAssignsIDAndNumber(t *testing.T) {
	out := AddLine(threeItems(), LineItem{Description: "Angle 50x50"})
	require.Len(t, out, 4)
	assert.Equal(t, 4, out[3].Line)
	assert.NotEmpty(t, out[3].ItemID)
}

func TestUpdateLineKeepsItemID(t *testing.T) {
	out, err := UpdateLine(threeItems(), LineItem{Line: 2, Description: "Round bar 50mm", Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, "b", out[1].ItemID)
	assert.Equal(t, "Round bar 50mm", out[1].Description)

	_, err = UpdateLine(threeItems(), LineItem{Line: 9})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestMergeParsed(t *testing.T) {
	r := &Rfq{
		ProjectName:     "Bridge deck",
		LineItems:       threeItems()[:1],
		CommercialTerms: CommercialTerms{Incoterm: "DAP"},
	}
	parsed := &Rfq{
		ProjectName:        "ignored",
		ProjectDescription: "Steel for the north span",
		LineItems: []LineItem{
			{Description: "Beam HEA200", Quantity: 8},
			{Description: "Beam HEB300", Quantity: 2},
		},
		CommercialTerms: CommercialTerms{Incoterm: "EXW", Currency: "EUR"},
	}

	MergeParsed(r, parsed)

	assert.Equal(t, "Bridge deck", r.ProjectName)
	assert.Equal(t, "Steel for the north span", r.ProjectDescription)
	require.Len(t, r.LineItems, 3)
	for i, it := range r.LineItems {
		assert.Equal(t, i+1, it.Line)
		assert.NotEmpty(t, it.ItemID)
	}
	assert.Equal(t, "Beam HEB300", r.LineItems[2].Description)
	assert.Equal(t, "DAP", r.CommercialTerms.Incoterm)
	assert.Equal(t, "EUR", r.CommercialTerms.Currency)
}

func TestCloneIsDeep(t *testing.T) {
	r := &Rfq{LineItems: []LineItem{{Requirements: []string{"EN 10204 3.1"}}}}
	c := r.Clone()
	c.LineItems[0].Requirements[0] = "changed"
	assert.Equal(t, "EN 10204 3.1", r.LineItems[0].Requirements[0])
}

func TestStoreCRUD(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	r := &Rfq{
		OwnerID:     "u1",
		ProjectName: "Tank repair",
		LineItems:   threeItems(),
		Risks:       []RiskAnnotation{{Severity: SeverityHigh, Line: 2, Message: "No grade given"}},
	}
	require.NoError(t, store.Save(ctx, r))
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusDraft, r.Status)

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Tank repair", got.ProjectName)
	assert.Len(t, got.LineItems, 3)
	require.Len(t, got.Risks, 1)
	assert.Equal(t, SeverityHigh, got.Risks[0].Severity)

	got.ProjectName = "Tank repair phase 2"
	require.NoError(t, store.Save(ctx, got))
	again, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tank repair phase 2", again.ProjectName)

	require.NoError(t, store.Archive(ctx, r.ID))
	archived, err := store.List(ctx, ListFilter{OwnerID: "u1", Status: StatusArchived})
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	require.NoError(t, store.Delete(ctx, r.ID))
	missing, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Error(t, store.Delete(ctx, r.ID))
}

func TestStoreListScopesByOwner(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Rfq{OwnerID: "u1", ProjectName: "one"}))
	require.NoError(t, store.Save(ctx, &Rfq{OwnerID: "u1", ProjectName: "two"}))
	require.NoError(t, store.Save(ctx, &Rfq{OwnerID: "u2", ProjectName: "other"}))

	list, err := store.List(ctx, ListFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	page, err := store.List(ctx, ListFilter{OwnerID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func newTestRouter(store *Store, log *activity.Store, ownerID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := user.WithIdentity(req.Context(), user.Identity{ID: ownerID, Role: user.RoleBuyer})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	RegisterRoutes(r, store, log)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutesLifecycle(t *testing.T) {
	store, log := newTestStore(t)
	h := newTestRouter(store, log, "buyer-1")

	w := doJSON(t, h, http.MethodPost, "/api/rfqs", Rfq{
		ProjectName: "Pipe rack",
		LineItems:   []LineItem{{Description: "Pipe DN50"}, {Description: "Pipe DN80"}, {Description: "Flange DN80"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created Rfq
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	require.Len(t, created.LineItems, 3)
	assert.Equal(t, "buyer-1", created.OwnerID)
	for _, it := range created.LineItems {
		assert.NotEmpty(t, it.ItemID)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/rfqs/"+created.ID+"/lines/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var updated Rfq
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	require.Len(t, updated.LineItems, 2)
	assert.Equal(t, "Pipe DN50", updated.LineItems[0].Description)
	assert.Equal(t, "Flange DN80", updated.LineItems[1].Description)
	assert.Equal(t, 2, updated.LineItems[1].Line)

	w = doJSON(t, h, http.MethodPost, "/api/rfqs/"+created.ID+"/archive", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/rfqs/"+created.ID+"/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []activity.Entry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
	require.Len(t, entries, 3)
	assert.Equal(t, activity.ActionRFQCreated, entries[0].Action)
}

func TestRoutesHideOtherOwners(t *testing.T) {
	store, log := newTestStore(t)
	r := &Rfq{OwnerID: "someone-else", ProjectName: "Private"}
	require.NoError(t, store.Save(context.Background(), r))

	h := newTestRouter(store, log, "buyer-1")
	w := doJSON(t, h, http.MethodGet, "/api/rfqs/"+r.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/rfqs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRoutesDeleteMissingLine(t *testing.T) {
	store, log := newTestStore(t)
	r := &Rfq{OwnerID: "buyer-1", LineItems: threeItems()}
	require.NoError(t, store.Save(context.Background(), r))

	h := newTestRouter(store, log, "buyer-1")
	w := doJSON(t, h, http.MethodDelete, "/api/rfqs/"+r.ID+"/lines/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/rfqs/"+r.ID+"/lines/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
