package sharelink

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

func TestCompressKnownVector(t *testing.T) {
	assert.Equal(t, "IZA", CompressToEncodedURIComponent("a"))

	out, err := DecompressFromEncodedURIComponent("IZA")
	require.NoError(t, err)
	assert.Equal(t, "a", out)
}

func TestCompressRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"hello world",
		strings.Repeat("abcabcabd", 200),
		`{"project_name":"Brücke Nord","line_items":[{"description":"Blech 10 mm, S355J2+N"}]}`,
		"pipes 🚧 and flanges ∅50",
		"ĀāĂ mixed with ascii",
	}
	for _, in := range inputs {
		enc := CompressToEncodedURIComponent(in)
		for _, ch := range enc {
			assert.True(t, strings.ContainsRune(uriAlphabet, ch), "unexpected %q in %q", ch, enc)
		}
		out, err := DecompressFromEncodedURIComponent(enc)
		require.NoError(t, err, in)
		assert.Equal(t, in, out)
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	in := `{"id":"r1","line_items":[]}`
	assert.Equal(t, CompressToEncodedURIComponent(in), CompressToEncodedURIComponent(in))
}

func TestDecompressAcceptsSpaceForPlus(t *testing.T) {
	in := strings.Repeat("steel plate 12mm; ", 40)
	enc := CompressToEncodedURIComponent(in)
	out, err := DecompressFromEncodedURIComponent(strings.ReplaceAll(enc, "+", " "))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecompressMalformed(t *testing.T) {
	for _, in := range []string{"", "!!!!", "IZ*", "%%%"} {
		_, err := DecompressFromEncodedURIComponent(in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestDecompressTruncatedNeverPanics(t *testing.T) {
	enc := CompressToEncodedURIComponent(strings.Repeat(`{"line":1,"description":"Round bar"}`, 30))
	for i := 0; i < len(enc); i++ {
		assert.NotPanics(t, func() {
			DecompressFromEncodedURIComponent(enc[:i])
		})
	}
}

func sampleRFQ() *rfq.Rfq {
	return &rfq.Rfq{
		ID:                 "rfq-1",
		OwnerID:            "buyer-1",
		ProjectName:        "North bridge",
		ProjectDescription: "Deck plates and stiffeners",
		Status:             rfq.StatusSent,
		InternalNotes:      "target price 40k",
		Risks:              []rfq.RiskAnnotation{{Severity: rfq.SeverityHigh, Message: "no grade"}},
		LineItems: []rfq.LineItem{
			{ItemID: "i1", Line: 1, Description: "Plate", Grade: "S355J2", Quantity: 12, UOM: "pcs",
				Size: rfq.Size{Thickness: rfq.Dimension{Value: 10, Unit: "mm"}}, Requirements: []string{"EN 10204 3.1"}},
			{ItemID: "i2", Line: 2, Description: "Flat bar", Quantity: 40, UOM: "m"},
		},
		CommercialTerms: rfq.CommercialTerms{Incoterm: "DAP", Currency: "EUR"},
		CreatedAt:       time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestSupplierLinkRoundTrip(t *testing.T) {
	r := sampleRFQ()
	link, err := RFQLink("https://app.example.com/?view=home&utm=x#top", r)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "", u.Fragment)
	assert.ElementsMatch(t, []string{ParamMode, ParamData}, keys(u.Query()))
	assert.Equal(t, string(ModeSupplier), u.Query().Get(ParamMode))

	res := Decode(context.Background(), u.Query(), nil, nil)
	require.True(t, res.OK)
	assert.True(t, res.StripQuery)
	assert.Equal(t, ModeSupplier, res.Mode)
	assert.Equal(t, SupplierView(r), SupplierView(res.Rfq))

	assert.Empty(t, res.Rfq.InternalNotes)
	assert.Empty(t, res.Rfq.OwnerID)
	assert.Nil(t, res.Rfq.Risks)
	assert.Empty(t, res.Rfq.Status)
}

func TestSupplierPayloadOmitsBuyerFields(t *testing.T) {
	data, err := EncodeRFQ(sampleRFQ())
	require.NoError(t, err)
	raw, err := DecompressFromEncodedURIComponent(data)
	require.NoError(t, err)
	assert.NotContains(t, raw, "target price")
	assert.NotContains(t, raw, "owner_id")
	assert.NotContains(t, raw, "risks")
}

func TestDecodeIsIdempotent(t *testing.T) {
	link, err := RFQLink("https://app.example.com/", sampleRFQ())
	require.NoError(t, err)
	u, _ := url.Parse(link)

	first := Decode(context.Background(), u.Query(), nil, nil)
	second := Decode(context.Background(), u.Query(), nil, nil)
	assert.Equal(t, first, second)
}

func TestDecodeSoftFailures(t *testing.T) {
	good, err := EncodeRFQ(sampleRFQ())
	require.NoError(t, err)

	cases := map[string]url.Values{
		"truncated":     {ParamMode: {"supplier"}, ParamData: {good[:len(good)/2]}},
		"not lz":        {ParamMode: {"supplier"}, ParamData: {"%%%%"}},
		"invalid json":  {ParamMode: {"supplier"}, ParamData: {CompressToEncodedURIComponent("{not json")}},
		"unknown mode":  {ParamMode: {"admin"}, ParamData: {good}},
		"missing data":  {ParamMode: {"supplier"}},
		"empty payload": {ParamMode: {"quote_response"}, ParamData: {CompressToEncodedURIComponent("")}},
	}
	for name, q := range cases {
		assert.NotPanics(t, func() {
			res := Decode(context.Background(), q, nil, nil)
			assert.False(t, res.OK, name)
			assert.Nil(t, res.Rfq, name)
		}, name)
	}

	assert.Equal(t, Result{}, Decode(context.Background(), url.Values{}, nil, nil))
}

func sampleQuote() *quote.Quote {
	return &quote.Quote{
		ID:           "q-1",
		RfqID:        "rfq-1",
		SupplierName: "Baltic Metals",
		Currency:     "EUR",
		Items: []quote.Item{
			{Line: 1, UnitPrice: 80, Quantity: 12, LineTotal: 960},
			{Line: 2, UnitPrice: 5, Quantity: 40, LineTotal: 200},
		},
		Total:     1160,
		LeadTime:  "3 weeks",
		CreatedAt: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func TestQuoteLinkFindsOriginal(t *testing.T) {
	original := sampleRFQ()
	lookup := LookupFunc(func(_ context.Context, id string) (*rfq.Rfq, error) {
		if id == original.ID {
			return original, nil
		}
		return nil, nil
	})

	link, err := QuoteLink("https://app.example.com/", sampleQuote())
	require.NoError(t, err)
	res, err := DecodeURL(context.Background(), link, lookup)
	require.NoError(t, err)

	assert.Equal(t, ModeQuoteResponse, res.Mode)
	assert.Equal(t, sampleQuote(), res.Quote)
	assert.Same(t, original, res.Rfq)
	assert.False(t, res.Rfq.Reconstructed)
}

func TestQuoteLinkBuildsShadowRFQ(t *testing.T) {
	link, err := QuoteLink("https://app.example.com/", sampleQuote())
	require.NoError(t, err)
	res, err := DecodeURL(context.Background(), link, nil)
	require.NoError(t, err)

	shadow := res.Rfq
	require.NotNil(t, shadow)
	assert.True(t, shadow.Reconstructed)
	assert.Equal(t, "rfq-1", shadow.ID)
	assert.Contains(t, shadow.ProjectName, "Baltic Metals")
	require.Len(t, shadow.LineItems, 2)
	assert.Equal(t, "Line 2", shadow.LineItems[1].Description)
	assert.Equal(t, 40.0, shadow.LineItems[1].Quantity)
}

func TestQRCode(t *testing.T) {
	for _, caption := range []string{"", "North bridge"} {
		data, err := QRCode("https://app.example.com/?mode=supplier&data=IZA", caption)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		if caption != "" {
			assert.Greater(t, img.Bounds().Dy(), img.Bounds().Dx())
		}
	}
}

func TestRoutes(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	rfqs := rfq.NewStore(database)
	r := sampleRFQ()
	r.Status = rfq.StatusDraft
	require.NoError(t, rfqs.Save(context.Background(), r))

	rt := &Routes{Rfqs: rfqs, Activity: activity.NewStore(database), BaseURL: "https://app.example.com/"}
	router := chi.NewRouter()
	RegisterPublicRoutes(router, rt)
	router.Group(func(g chi.Router) {
		g.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(user.WithIdentity(req.Context(), user.Identity{ID: "buyer-1"})))
			})
		})
		RegisterRoutes(g, rt)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rfqs/rfq-1/share", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var link LinkResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&link))
	res, err := DecodeURL(context.Background(), link.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "North bridge", res.Rfq.ProjectName)

	shared, err := rfqs.Get(context.Background(), "rfq-1")
	require.NoError(t, err)
	assert.Equal(t, rfq.StatusSent, shared.Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rfqs/rfq-1/share?format=qr", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	body := `{"rfq_id":"rfq-1","supplier_name":"Baltic Metals","currency":"EUR",
		"items":[{"line":1,"unit_price":80,"quantity":12}],"lead_time":"3 weeks"}`
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/share/quote", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&link))
	assert.Equal(t, ModeQuoteResponse, link.Mode)
	res, err = DecodeURL(context.Background(), link.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 960.0, res.Quote.Total)
	assert.NotEmpty(t, res.Quote.ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/share/quote", strings.NewReader(`{"rfq_id":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func keys(v url.Values) []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	return out
}
