package purchaseorder

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

var issued = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func sampleRFQ() *rfq.Rfq {
	return &rfq.Rfq{
		ProjectName: "Bridge deck",
		LineItems: []rfq.LineItem{
			{Line: 1, ProductType: "plate", Grade: "S355J2", Description: "20mm", UOM: "t"},
			{Line: 2, ProductType: "flange", Grade: "P250GH", UOM: "pcs"},
		},
		CommercialTerms: rfq.CommercialTerms{Incoterm: "DAP", DeliveryLocation: "Hamburg", PaymentTerms: "60 days"},
	}
}

func sampleQuote() *quote.Quote {
	q := &quote.Quote{
		ID:           "3f2a9c1e-77aa-4b1d-9e55-0c1d2e3f4a5b",
		SupplierName: "Baltic Metals",
		Items: []quote.Item{
			{Line: 1, UnitPrice: 850, Quantity: 12},
			{Line: 3, UnitPrice: 10, Quantity: 4},
		},
		LeadTime: "3 weeks",
	}
	q.Recalculate()
	return q
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "PO-20260314-3F2A9C1E", Number("3f2a9c1e-77aa-4b1d", issued))
	assert.Equal(t, "PO-20260314-AB", Number("ab", issued))
}

func TestBuild(t *testing.T) {
	buyer := &user.BuyerProfile{Company: "Steelworks GmbH", DefaultCurrency: "eur", DefaultIncoterm: "EXW"}
	po := Build(sampleQuote(), sampleRFQ(), buyer, issued)

	assert.Equal(t, "Baltic Metals", po.VendorName)
	assert.Equal(t, "Steelworks GmbH", po.Buyer.Company)
	assert.Equal(t, "EUR", po.Currency)
	assert.Equal(t, "DAP", po.Incoterm)
	assert.Equal(t, "60 days", po.PaymentTerms)
	assert.Equal(t, "Hamburg", po.DeliveryLocation)
	assert.Equal(t, 10240.0, po.Total)

	require.Len(t, po.Lines, 2)
	assert.Equal(t, "plate S355J2 20mm", po.Lines[0].Description)
	assert.Equal(t, "t", po.Lines[0].UOM)
	assert.Equal(t, 10200.0, po.Lines[0].Total)
	// Quote lines are not checked against the RFQ.
	assert.Equal(t, "Line 3", po.Lines[1].Description)
}

func TestBuildWithoutRFQOrProfile(t *testing.T) {
	q := sampleQuote()
	q.Currency = "usd"
	q.PaymentTerms = "prepaid"
	po := Build(q, nil, nil, issued)
	assert.Equal(t, "USD", po.Currency)
	assert.Equal(t, "prepaid", po.PaymentTerms)
	assert.Empty(t, po.Incoterm)
	assert.Equal(t, "Line 1", po.Lines[0].Description)
}

func TestRender(t *testing.T) {
	po := Build(sampleQuote(), sampleRFQ(), &user.BuyerProfile{Company: "Stahlbau Müller"}, issued)
	po.Notes = "Mill certificates 3.1 required."

	var buf bytes.Buffer
	require.NoError(t, Render(po, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,234,567.50", money(1234567.5))
	assert.Equal(t, "0.00", money(0))
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	rfqs := rfq.NewStore(database)
	quotes := quote.NewStore(database)
	users := user.NewStore(database)
	acts := activity.NewStore(database)
	blobs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)

	r := sampleRFQ()
	r.OwnerID = "buyer-1"
	require.NoError(t, rfqs.Save(ctx, r))
	q := sampleQuote()
	q.ID = ""
	q.RfqID = r.ID
	require.NoError(t, quotes.Save(ctx, q))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			owner := req.Header.Get("X-Test-User")
			next.ServeHTTP(w, req.WithContext(user.WithIdentity(req.Context(), user.Identity{ID: owner, Role: user.RoleBuyer})))
		})
	})
	RegisterRoutes(router, &Routes{
		Quotes: quotes, Rfqs: rfqs, Users: users, Activity: acts, Blobs: blobs,
		Now: func() time.Time { return issued },
	})

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+q.ID+"/po.pdf", nil)
	req.Header.Set("X-Test-User", "buyer-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), Number(q.ID, issued))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	archived, info, err := blob.ReadAll(ctx, blobs, blob.PurchaseOrderKey(q.ID))
	require.NoError(t, err)
	assert.Equal(t, w.Body.Bytes(), archived)
	assert.Equal(t, "application/pdf", info.ContentType)

	entries, err := acts.ListByRFQ(ctx, r.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ActionPOGenerated, entries[0].Action)

	req = httptest.NewRequest(http.MethodGet, "/api/quotes/"+q.ID+"/po.pdf", nil)
	req.Header.Set("X-Test-User", "someone-else")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/quotes/missing/po.pdf", nil)
	req.Header.Set("X-Test-User", "buyer-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
