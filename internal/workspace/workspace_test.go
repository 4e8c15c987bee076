package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/db"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/sharelink"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

var buyer = user.Identity{ID: "buyer-1", Email: "b@example.com", Role: user.RoleBuyer}

func TestSwitchView(t *testing.T) {
	s := New()
	assert.Equal(t, ViewHome, s.View)
	assert.Equal(t, "en", s.Lang)

	assert.Equal(t, ViewPricing, SwitchView(s, ViewPricing).View)
	assert.Equal(t, ViewLogin, SwitchView(s, ViewBuyerWorkspace).View)
	assert.Equal(t, ViewLogin, SwitchView(s, ViewCompare).View)
	assert.Equal(t, ViewHome, SwitchView(s, View("admin")).View)

	in := Login(s, buyer)
	assert.Equal(t, ViewCompare, SwitchView(in, ViewCompare).View)
	// The original state is untouched.
	assert.Nil(t, s.User)
}

func TestLoginContinuesFromLoginPage(t *testing.T) {
	s := SwitchView(New(), ViewBuyerWorkspace)
	require.Equal(t, ViewLogin, s.View)
	s = Login(s, buyer)
	assert.Equal(t, ViewBuyerWorkspace, s.View)

	s = SetRfq(s, &rfq.Rfq{ID: "r1"})
	s = ReceiveQuote(s, quote.Quote{ID: "q1"})
	s = Logout(s)
	assert.Nil(t, s.User)
	assert.Nil(t, s.Rfq)
	assert.Empty(t, s.Quotes)
	assert.Equal(t, ViewHome, s.View)
}

func TestSetAndUpdateRfq(t *testing.T) {
	original := &rfq.Rfq{ID: "r1", ProjectName: "Deck", LineItems: []rfq.LineItem{{Line: 1, Grade: "S355"}}}
	s := SetRfq(New(), original)
	s = ReceiveQuote(s, quote.Quote{ID: "q1"})

	next := UpdateRfq(s, func(r *rfq.Rfq) {
		r.ProjectName = "Bridge"
		r.LineItems[0].Grade = "S460"
	})
	assert.Equal(t, "Bridge", next.Rfq.ProjectName)
	assert.Equal(t, "Deck", s.Rfq.ProjectName)
	assert.Equal(t, "S355", original.LineItems[0].Grade)
	assert.Equal(t, "S355", s.Rfq.LineItems[0].Grade)

	// Same RFQ keeps its quotes; another one drops them.
	assert.Len(t, SetRfq(s, &rfq.Rfq{ID: "r1"}).Quotes, 1)
	assert.Empty(t, SetRfq(s, &rfq.Rfq{ID: "r2"}).Quotes)

	assert.Nil(t, UpdateRfq(New(), func(r *rfq.Rfq) { r.ProjectName = "x" }).Rfq)
}

func TestReceiveQuoteDedupes(t *testing.T) {
	s := New()
	s = ReceiveQuote(s, quote.Quote{ID: "q1", Total: 100})
	s = ReceiveQuote(s, quote.Quote{ID: "q2", Total: 90})
	updated := ReceiveQuote(s, quote.Quote{ID: "q1", Total: 80})

	require.Len(t, updated.Quotes, 2)
	assert.Equal(t, 80.0, updated.Quotes[0].Total)
	assert.Equal(t, 100.0, s.Quotes[0].Total)

	// Quotes without an id are always new.
	assert.Len(t, ReceiveQuote(ReceiveQuote(s, quote.Quote{}), quote.Quote{}).Quotes, 4)
}

func TestMatchLang(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"de", "de"},
		{"de-AT", "de"},
		{"es-MX,es;q=0.9,en;q=0.5", "es"},
		{"fr-FR,fr;q=0.9", "en"},
		{"", "en"},
		{"en-GB", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchLang(tt.in), tt.in)
	}
	assert.Equal(t, "de", SetLang(New(), "de-CH").Lang)
}

func sampleRFQ() *rfq.Rfq {
	return &rfq.Rfq{
		ID:            "rfq-1",
		ProjectName:   "Bridge deck",
		InternalNotes: "budget 40k",
		LineItems:     []rfq.LineItem{{Line: 1, ProductType: "plate", Quantity: 12}},
	}
}

func TestBootstrapSupplierLink(t *testing.T) {
	data, err := sharelink.EncodeRFQ(sampleRFQ())
	require.NoError(t, err)
	query := url.Values{"mode": {"supplier"}, "data": {data}}

	boot := Bootstrap(context.Background(), New(), query, nil, nil)
	assert.True(t, boot.Share.OK)
	assert.True(t, boot.Share.StripQuery)
	assert.Equal(t, ViewSupplierWorkspace, boot.State.View)
	require.NotNil(t, boot.State.Rfq)
	assert.Equal(t, "Bridge deck", boot.State.Rfq.ProjectName)
	assert.Empty(t, boot.State.Rfq.InternalNotes)
}

func TestBootstrapQuoteResponse(t *testing.T) {
	q := &quote.Quote{ID: "q1", RfqID: "rfq-1", SupplierName: "Acme", Items: []quote.Item{{Line: 1, UnitPrice: 5, Quantity: 12}}}
	data, err := sharelink.EncodeQuote(q)
	require.NoError(t, err)
	query := url.Values{"mode": {"quote_response"}, "data": {data}}

	// Without the original the RFQ is reconstructed.
	boot := Bootstrap(context.Background(), New(), query, nil, nil)
	require.True(t, boot.Share.OK)
	assert.Equal(t, ViewCompare, boot.State.View)
	assert.True(t, boot.State.Rfq.Reconstructed)
	require.Len(t, boot.State.Quotes, 1)
	assert.Equal(t, "Acme", boot.State.Quotes[0].SupplierName)

	lookup := sharelink.LookupFunc(func(ctx context.Context, id string) (*rfq.Rfq, error) {
		return sampleRFQ(), nil
	})
	boot = Bootstrap(context.Background(), New(), query, lookup, nil)
	assert.False(t, boot.State.Rfq.Reconstructed)
	assert.Equal(t, "budget 40k", boot.State.Rfq.InternalNotes)

	again := Bootstrap(context.Background(), New(), query, lookup, nil)
	assert.Equal(t, boot, again)
}

func TestBootstrapBadLinkFallsBack(t *testing.T) {
	notJSON := sharelink.CompressToEncodedURIComponent("not json")
	emptyObject := sharelink.CompressToEncodedURIComponent("{}")
	for _, query := range []url.Values{
		{"mode": {"supplier"}, "data": {"!!!!"}},
		{"mode": {"supplier"}, "data": {notJSON}},
		{"mode": {"teleport"}, "data": {emptyObject}},
		{"mode": {"supplier"}},
	} {
		boot := Bootstrap(context.Background(), New(), query, nil, nil)
		assert.False(t, boot.Share.OK, query.Encode())
		assert.True(t, boot.Share.StripQuery, query.Encode())
		assert.Equal(t, ViewHome, boot.State.View, query.Encode())
		assert.Nil(t, boot.State.Rfq)
	}
}

func TestBootstrapViewOverride(t *testing.T) {
	boot := Bootstrap(context.Background(), New(), url.Values{"view": {"pricing"}, "lang": {"es"}}, nil, nil)
	assert.Equal(t, ViewPricing, boot.State.View)
	assert.Equal(t, "es", boot.State.Lang)
	assert.True(t, boot.Share.StripQuery)

	boot = Bootstrap(context.Background(), New(), url.Values{"view": {"buyer_workspace"}}, nil, nil)
	assert.Equal(t, ViewLogin, boot.State.View)

	boot = Bootstrap(context.Background(), New(), url.Values{"view": {"nonsense"}}, nil, nil)
	assert.Equal(t, ViewHome, boot.State.View)
	assert.False(t, boot.Share.StripQuery)
}

// scriptedProvider answers chat turns from a function of the last message.
type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	reply func(ctx context.Context, last string) (string, error)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	last := req.Messages[len(req.Messages)-1].Content
	content, err := p.reply(ctx, last)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: content}, nil
}

type fixture struct {
	router http.Handler
	rfqs   *rfq.Store
	quotes *quote.Store
	acts   *activity.Store
}

func newFixture(t *testing.T, p llm.Provider, identity *user.Identity) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	f := &fixture{
		rfqs:   rfq.NewStore(database),
		quotes: quote.NewStore(database),
		acts:   activity.NewStore(database),
	}
	var ai *assistant.Gateway
	if p != nil {
		ai = assistant.New(p, "test-model", nil)
	}
	rt := &Routes{
		Chatter:  &Chatter{AI: ai, Rfqs: f.rfqs, Activity: f.acts},
		Rfqs:     f.rfqs,
		Quotes:   f.quotes,
		Activity: f.acts,
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identity != nil {
				req = req.WithContext(user.WithIdentity(req.Context(), *identity))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, rt)
	RegisterWebSocketRoutes(r, rt)
	RegisterPublicRoutes(r, rt)
	f.router = r
	return f
}

func TestShareOpenStoresQuoteForOwner(t *testing.T) {
	f := newFixture(t, nil, &buyer)
	ctx := context.Background()
	original := sampleRFQ()
	original.ID = ""
	original.OwnerID = buyer.ID
	require.NoError(t, f.rfqs.Save(ctx, original))
	require.NoError(t, f.quotes.Save(ctx, &quote.Quote{RfqID: original.ID, SupplierName: "Earlier", Total: 70}))

	link, err := sharelink.QuoteLink("https://rfqpilot.example/app", &quote.Quote{
		ID: "q-new", RfqID: original.ID, SupplierName: "Acme", Currency: "EUR", Total: 60,
	})
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/share/open?"+u.RawQuery, nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var boot Boot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boot))
	assert.True(t, boot.Imported)
	assert.Equal(t, "de", boot.State.Lang)
	assert.Equal(t, ViewCompare, boot.State.View)
	assert.Len(t, boot.State.Quotes, 2)

	stored, err := f.quotes.Get(ctx, "q-new")
	require.NoError(t, err)
	require.NotNil(t, stored)
	entries, err := f.acts.ListByRFQ(ctx, original.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ActionQuoteReceived, entries[0].Action)
}

func TestShareOpenKeepsOtherRFQsQuote(t *testing.T) {
	f := newFixture(t, nil, &buyer)
	ctx := context.Background()
	mine := sampleRFQ()
	mine.ID = ""
	mine.OwnerID = buyer.ID
	require.NoError(t, f.rfqs.Save(ctx, mine))
	require.NoError(t, f.quotes.Save(ctx, &quote.Quote{ID: "q-taken", RfqID: "someone-elses-rfq", SupplierName: "Baltic", Total: 900}))

	link, err := sharelink.QuoteLink("https://rfqpilot.example/", &quote.Quote{
		ID: "q-taken", RfqID: mine.ID, SupplierName: "Acme", Total: 1,
	})
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/share/open?"+u.RawQuery, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var boot Boot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boot))
	assert.False(t, boot.Imported)
	assert.Equal(t, ViewCompare, boot.State.View)

	kept, err := f.quotes.Get(ctx, "q-taken")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "someone-elses-rfq", kept.RfqID)
	assert.Equal(t, "Baltic", kept.SupplierName)
	mineQuotes, err := f.quotes.ListByRFQ(ctx, mine.ID)
	require.NoError(t, err)
	assert.Empty(t, mineQuotes)
}

func TestShareOpenAnonymousShadow(t *testing.T) {
	f := newFixture(t, nil, nil)
	link, err := sharelink.QuoteLink("https://rfqpilot.example/", &quote.Quote{
		ID: "q-9", RfqID: "elsewhere", SupplierName: "Acme", Items: []quote.Item{{Line: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/share/open?"+u.RawQuery, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var boot Boot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boot))
	assert.False(t, boot.Imported)
	assert.True(t, boot.State.Rfq.Reconstructed)
	missing, err := f.quotes.Get(context.Background(), "q-9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestShareOpenMalformed(t *testing.T) {
	f := newFixture(t, nil, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/share/open?mode=supplier&data=garbage!!", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var boot Boot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &boot))
	assert.False(t, boot.Share.OK)
	assert.Equal(t, ViewHome, boot.State.View)
}

const draftReply = `{"reply": "Added the plates.", "rfq": {"project_name": "Deck", "line_items": [{"product_type": "plate", "grade": "S355", "quantity": 5}]}}`

func TestChatCreatesAndUpdatesDraft(t *testing.T) {
	p := &scriptedProvider{reply: func(ctx context.Context, last string) (string, error) {
		return draftReply, nil
	}}
	f := newFixture(t, p, &buyer)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "5 plates S355"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var res TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Changed)
	assert.Equal(t, "Added the plates.", res.Reply)
	require.NotNil(t, res.Rfq)
	require.NotEmpty(t, res.Rfq.ID)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rfqs/"+res.Rfq.ID+"/chat", strings.NewReader(`{"message": "5 more"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.rfqs.Get(context.Background(), res.Rfq.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, 2, stored.LineItems[1].Line)
	assert.Equal(t, buyer.ID, stored.OwnerID)

	entries, err := f.acts.ListByRFQ(context.Background(), res.Rfq.ID, 0)
	require.NoError(t, err)
	var actions []activity.Action
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(t, []activity.Action{activity.ActionRFQCreated, activity.ActionRFQUpdated}, actions)
}

func TestChatFallbackAndErrors(t *testing.T) {
	p := &scriptedProvider{reply: func(ctx context.Context, last string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	f := newFixture(t, p, &buyer)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "hello"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var res TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Failed)
	assert.Equal(t, FallbackReply, res.Reply)
	assert.False(t, res.Changed)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "  "}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rfqs/nope/chat", strings.NewReader(`{"message": "hi"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObserveSeq(t *testing.T) {
	c := &chatConn{}
	assert.True(t, c.observe(1))
	assert.True(t, c.observe(3))
	assert.False(t, c.observe(2))
	assert.True(t, c.stale(2))
	assert.False(t, c.stale(3))
}

func TestChatSkipsSaveWhenSuperseded(t *testing.T) {
	p := &scriptedProvider{reply: func(ctx context.Context, last string) (string, error) {
		return draftReply, nil
	}}
	f := newFixture(t, p, &buyer)
	ctx := context.Background()
	existing := sampleRFQ()
	existing.OwnerID = buyer.ID
	require.NoError(t, f.rfqs.Save(ctx, existing))

	superseded := func(save func() error) (bool, error) { return false, nil }
	out, err := (&Chatter{AI: assistant.New(p, "m", nil), Rfqs: f.rfqs, Activity: f.acts}).Run(ctx, buyer.ID, Turn{
		RfqID: existing.ID, Message: "5 plates", Commit: superseded,
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, "Added the plates.", out.Reply)

	stored, err := f.rfqs.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 1)
	entries, err := f.acts.ListByRFQ(ctx, existing.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWebSocketDropsStaleReplies(t *testing.T) {
	release := make(chan struct{})
	p := &scriptedProvider{reply: func(ctx context.Context, last string) (string, error) {
		if last == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return `{"reply": "slow answer", "rfq": {"line_items": [{"product_type": "slow-plate", "quantity": 1}]}}`, nil
		}
		return `{"reply": "fast answer", "rfq": {"line_items": [{"product_type": "fast-bar", "quantity": 2}]}}`, nil
	}}
	f := newFixture(t, p, &buyer)
	ctx := context.Background()
	existing := sampleRFQ()
	existing.OwnerID = buyer.ID
	require.NoError(t, f.rfqs.Save(ctx, existing))

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsRequest{Type: "message", Seq: 1, RfqID: existing.ID, Content: "slow"}))
	require.NoError(t, conn.WriteJSON(wsRequest{Type: "message", Seq: 2, RfqID: existing.ID, Content: "fast"}))

	var resp wsResponse
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, int64(2), resp.Seq)
	assert.Equal(t, "fast answer", resp.Reply)
	require.NotNil(t, resp.Rfq)

	close(release)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	err = conn.ReadJSON(&resp)
	assert.Error(t, err, "stale reply must not be delivered")

	productTypes := func() []string {
		stored, err := f.rfqs.Get(ctx, existing.ID)
		if err != nil || stored == nil {
			return nil
		}
		var out []string
		for _, li := range stored.LineItems {
			out = append(out, li.ProductType)
		}
		return out
	}
	assert.Never(t, func() bool {
		for _, pt := range productTypes() {
			if pt == "slow-plate" {
				return true
			}
		}
		return false
	}, 200*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, []string{"plate", "fast-bar"}, productTypes())
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	f := newFixture(t, &scriptedProvider{reply: func(ctx context.Context, last string) (string, error) {
		return `{"reply": "ok"}`, nil
	}}, &buyer)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var resp wsResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "invalid message format", resp.Error)

	require.NoError(t, conn.WriteJSON(wsRequest{Type: "ask", Seq: 1, Content: "x"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "unknown message type")

	require.NoError(t, conn.WriteJSON(wsRequest{Type: "message", Seq: 2, Content: "hi"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, "ok", resp.Reply)
}
