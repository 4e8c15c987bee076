package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// fakeProvider replies with a fixed response and records requests.
type fakeProvider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	resp  llm.CompletionResponse
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.resp
	return &resp, nil
}

func (f *fakeProvider) last() llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func replying(content string) (*Gateway, *fakeProvider) {
	p := &fakeProvider{resp: llm.CompletionResponse{Content: content, Model: "fake-1"}}
	return New(p, "fake-1", nil), p
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without tag", "```\n[1,2]\n```", `[1,2]`},
		{"prose around", "Sure! Here it is: {\"a\":{\"b\":2}} hope that helps", `{"a":{"b":2}}`},
		{"array first", "result: [{\"x\":1}] done", `[{"x":1}]`},
		{"fence with trailing text", "```json\n{\"a\":1}\n```\nLet me know.", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "no json here", "} backwards {"} {
		_, err := ExtractJSON(bad)
		assert.ErrorIs(t, err, ErrNoJSON, bad)
	}
}

func TestParseRFQ(t *testing.T) {
	g, p := replying("```json\n" + `{
		"id": "model-made-this-up",
		"project_name": "Tank farm",
		"line_items": [
			{"description": " Plate S355 10mm ", "quantity": 4, "uom": "pcs", "line": 7},
			{"description": ""},
			{"description": "Pipe DN100", "quantity": 30, "uom": "m"}
		],
		"commercial_terms": {"incoterm": "DAP", "currency": "eur"}
	}` + "\n```")

	files := []llm.Attachment{{Name: "d.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")}}
	parsed, err := g.ParseRFQ(context.Background(), "", files)
	require.NoError(t, err)

	assert.Empty(t, parsed.ID)
	assert.Equal(t, "Tank farm", parsed.ProjectName)
	require.Len(t, parsed.LineItems, 2)
	assert.Equal(t, 1, parsed.LineItems[0].Line)
	assert.Equal(t, "Plate S355 10mm", parsed.LineItems[0].Description)
	assert.Equal(t, 2, parsed.LineItems[1].Line)
	assert.Equal(t, "EUR", parsed.CommercialTerms.Currency)

	req := p.last()
	assert.True(t, req.JSONMode)
	assert.Equal(t, "fake-1", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, files, req.Messages[1].Attachments)
}

func TestParseRFQEmptyAndFailures(t *testing.T) {
	g, p := replying("no idea")
	_, err := g.ParseRFQ(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, p.calls)

	_, err = g.ParseRFQ(context.Background(), "4 plates", nil)
	assert.ErrorIs(t, err, ErrNoJSON)

	p.err = errors.New("boom")
	_, err = g.ParseRFQ(context.Background(), "4 plates", nil)
	assert.ErrorContains(t, err, "boom")

	_, err = New(nil, "", nil).ParseRFQ(context.Background(), "4 plates", nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestChat(t *testing.T) {
	g, p := replying(`{"reply": "Added the flanges.", "rfq": {"line_items": [{"description": "Flange DN50 PN16", "quantity": 8}]}}`)
	current := &rfq.Rfq{ID: "r1", ProjectName: "Skid"}

	history := make([]llm.Message, 30)
	for i := range history {
		history[i] = llm.Message{Role: llm.RoleUser, Content: "x"}
	}
	history[29] = llm.Message{Role: llm.RoleSystem, Content: "dropped"}

	reply, err := g.Chat(context.Background(), current, history, "add 8 flanges DN50", nil)
	require.NoError(t, err)
	assert.Equal(t, "Added the flanges.", reply.Reply)
	require.NotNil(t, reply.Parsed)
	require.Len(t, reply.Parsed.LineItems, 1)
	assert.Equal(t, 1, reply.Parsed.LineItems[0].Line)

	req := p.last()
	// two system messages, 19 kept user turns, the new message
	assert.Len(t, req.Messages, 2+19+1)
	assert.Contains(t, req.Messages[1].Content, `"project_name":"Skid"`)
	assert.Equal(t, "add 8 flanges DN50", req.Messages[len(req.Messages)-1].Content)
}

func TestChatPlainTextReply(t *testing.T) {
	g, _ := replying("Could you tell me the grade?")
	reply, err := g.Chat(context.Background(), &rfq.Rfq{}, nil, "plates please", nil)
	require.NoError(t, err)
	assert.Equal(t, "Could you tell me the grade?", reply.Reply)
	assert.Nil(t, reply.Parsed)
}

func TestAuditRisk(t *testing.T) {
	r := &rfq.Rfq{LineItems: []rfq.LineItem{{Line: 1}, {Line: 2}}}

	g, _ := replying(`{"risks": [
		{"severity": "HIGH", "line": 2, "message": "No grade given"},
		{"severity": "critical", "line": 9, "message": "Unknown line"},
		{"severity": "low", "line": 0, "message": "  "}
	]}`)
	risks, err := g.AuditRisk(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []rfq.RiskAnnotation{
		{Severity: rfq.SeverityHigh, Line: 2, Message: "No grade given"},
		{Severity: rfq.SeverityMedium, Line: 0, Message: "Unknown line"},
	}, risks)

	g, _ = replying(`[{"severity": "low", "line": 1, "message": "Tolerance missing"}]`)
	risks, err = g.AuditRisk(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, rfq.SeverityLow, risks[0].Severity)
}

func TestDiscoverSuppliers(t *testing.T) {
	g, p := replying(`Found these: {"suppliers": [
		{"name": "Nordic Steel", "website": "https://nordic.example", "capabilities": ["plate"]},
		{"name": "nordic steel ", "website": "dup"},
		{"name": "", "website": "nameless"},
		{"name": "Baltic Pipes", "region": "Baltics"}
	]}`)
	r := &rfq.Rfq{LineItems: []rfq.LineItem{{ProductType: "plate", Grade: "S355", Description: "10mm"}}}

	got, err := g.DiscoverSuppliers(context.Background(), r, "Nordics")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Nordic Steel", got[0].Name)
	assert.Equal(t, "Nordics", got[0].Region)
	assert.Equal(t, "Baltics", got[1].Region)

	req := p.last()
	assert.True(t, req.Grounding)
	assert.Contains(t, req.Messages[1].Content, "plate S355 10mm")
}

func TestMarketData(t *testing.T) {
	g, p := replying(`{"summary": "HRC prices eased in Q3.", "price_trend": "falling"}`)
	p.resp.Sources = []llm.Source{{Title: "Index", URL: "https://idx.example"}}

	got, err := g.MarketData(context.Background(), "HRC price Europe")
	require.NoError(t, err)
	assert.Equal(t, "HRC prices eased in Q3.", got.Summary)
	assert.Equal(t, "falling", got.PriceTrend)
	assert.Len(t, got.Sources, 1)

	g, _ = replying("Prices are flat.")
	got, err = g.MarketData(context.Background(), "rebar")
	require.NoError(t, err)
	assert.Equal(t, "Prices are flat.", got.Summary)
	assert.Equal(t, "unknown", got.PriceTrend)

	_, err = g.MarketData(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEditImage(t *testing.T) {
	img := llm.Attachment{Name: "d.png", MIMEType: "image/png", Data: []byte{1}}

	g, p := replying("done")
	g.ImageModel = "image-model"
	_, err := g.EditImage(context.Background(), img, "circle the weld")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, "image-model", p.last().Model)
	assert.True(t, p.last().ImageOutput)

	p.resp.Images = []llm.Attachment{{MIMEType: "image/png", Data: []byte{2}}}
	out, err := g.EditImage(context.Background(), img, "circle the weld")
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, out.Data)

	_, err = g.EditImage(context.Background(), llm.Attachment{MIMEType: "application/pdf"}, "x")
	assert.Error(t, err)
}

type routeEnv struct {
	router   http.Handler
	rfqs     *rfq.Store
	activity *activity.Store
	blobs    blob.Store
	provider *fakeProvider
}

func newRouteEnv(t *testing.T, content string) *routeEnv {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	blobs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)

	g, p := replying(content)
	env := &routeEnv{rfqs: rfq.NewStore(database), activity: activity.NewStore(database), blobs: blobs, provider: p}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := user.WithIdentity(req.Context(), user.Identity{ID: "buyer-1", Role: user.RoleBuyer})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	RegisterRoutes(r, &Routes{AI: g, Rfqs: env.rfqs, Activity: env.activity, Blobs: blobs})
	env.router = r
	return env
}

func TestParseRouteMergesIntoRFQ(t *testing.T) {
	env := newRouteEnv(t, `{"line_items": [{"description": "Bolt M16", "quantity": 100}]}`)
	ctx := context.Background()
	existing := &rfq.Rfq{OwnerID: "buyer-1", ProjectName: "Pump skid", LineItems: []rfq.LineItem{{ItemID: "a", Line: 1, Description: "Nut M16"}}}
	require.NoError(t, env.rfqs.Save(ctx, existing))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "add the bolts"))
	require.NoError(t, mw.WriteField("rfq_id", existing.ID))
	fw, err := mw.CreateFormFile("files", "bom.csv")
	require.NoError(t, err)
	fw.Write([]byte("item,qty\nBolt M16,100\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Rfq)
	require.Len(t, resp.Rfq.LineItems, 2)
	assert.Equal(t, "Bolt M16", resp.Rfq.LineItems[1].Description)
	assert.Equal(t, 2, resp.Rfq.LineItems[1].Line)
	assert.Equal(t, []string{"uploads/" + existing.ID + "/bom.csv"}, resp.Uploads)

	sent := env.provider.last().Messages[1].Content
	assert.Contains(t, sent, "add the bolts")
	assert.Contains(t, sent, "| Bolt M16 | 100 |")

	stored, err := env.rfqs.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 2)

	entries, err := env.activity.ListByRFQ(ctx, existing.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ActionRFQUpdated, entries[0].Action)
}

func TestParseRouteJSONWithoutRFQ(t *testing.T) {
	env := newRouteEnv(t, `{"project_name": "Quick"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", bytes.NewBufferString(`{"text": "need plates"}`))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Quick", resp.Parsed.ProjectName)
	assert.Nil(t, resp.Rfq)
}

func TestParseRouteAIFailure(t *testing.T) {
	env := newRouteEnv(t, "")
	env.provider.err = errors.New("upstream 500")
	req := httptest.NewRequest(http.MethodPost, "/api/ai/parse", bytes.NewBufferString(`{"text": "need plates"}`))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestAuditRouteStoresRisks(t *testing.T) {
	env := newRouteEnv(t, `{"risks": [{"severity": "high", "line": 1, "message": "No MTR requirement"}]}`)
	ctx := context.Background()
	r := &rfq.Rfq{OwnerID: "buyer-1", LineItems: []rfq.LineItem{{Line: 1, Description: "Plate"}}}
	require.NoError(t, env.rfqs.Save(ctx, r))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rfqs/"+r.ID+"/audit", nil))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := env.rfqs.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, stored.Risks, 1)
	assert.Equal(t, "No MTR requirement", stored.Risks[0].Message)

	other := &rfq.Rfq{OwnerID: "someone-else"}
	require.NoError(t, env.rfqs.Save(ctx, other))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rfqs/"+other.ID+"/audit", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
