package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/metrics"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	tokens, err := user.NewTokens("test-secret-0123456789", 0)
	require.NoError(t, err)

	srv, err := New(cfg, Deps{DB: database, Tokens: tokens, Metrics: metrics.New()})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestNewRequiresDatabaseAndTokens(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	w := do(t, srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuyerAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, target := range []string{"/api/rfqs", "/api/suppliers", "/api/profile/"} {
		w := do(t, srv, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestSiteAndMetricsArePublic(t *testing.T) {
	srv := newTestServer(t, Config{})

	w := do(t, srv, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = do(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rfqpilot_http_requests_total")
}

func TestShareRoundTrip(t *testing.T) {
	srv := newTestServer(t, Config{BaseURL: "https://app.example.com/"})
	ctx := context.Background()

	w := do(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "buyer@example.com", "name": "Bea", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w = do(t, srv, http.MethodPost, "/api/rfqs", session.Token, map[string]any{
		"project_name": "Tank farm",
		"line_items":   []map[string]any{{"product_type": "plate", "quantity": 4, "uom": "pcs"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Buyer creates the supplier link.
	w = do(t, srv, http.MethodGet, "/api/rfqs/"+created.ID+"/share", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var link struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.True(t, strings.HasPrefix(link.URL, "https://app.example.com/?mode=supplier&data="))

	// Supplier prices it without an account.
	w = do(t, srv, http.MethodPost, "/api/share/quote", "", map[string]any{
		"rfq_id":        created.ID,
		"supplier_name": "Acme Steel",
		"currency":      "USD",
		"items":         []map[string]any{{"line": 1, "unit_price": 25, "quantity": 4}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	u, err := url.Parse(reply.URL)
	require.NoError(t, err)

	// Buyer opens the returned link.
	w = do(t, srv, http.MethodGet, "/api/share/open?"+u.RawQuery, session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var boot struct {
		Imported bool `json:"imported"`
		State    struct {
			View   string `json:"view"`
			Quotes []struct {
				SupplierName string  `json:"supplier_name"`
				Total        float64 `json:"total"`
			} `json:"quotes"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boot))
	assert.True(t, boot.Imported)
	assert.Equal(t, "compare", boot.State.View)
	require.Len(t, boot.State.Quotes, 1)
	assert.Equal(t, 100.0, boot.State.Quotes[0].Total)

	sup, err := srv.Directory().Store().GetByName(ctx, "Acme Steel")
	require.NoError(t, err)
	require.NotNil(t, sup)
	assert.Contains(t, sup.Capabilities, "plate")

	w = do(t, srv, http.MethodGet, "/api/rfqs/"+created.ID+"/quotes", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Steel")
}
