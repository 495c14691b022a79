package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"StockLens/internal/auth"
	"StockLens/internal/handler"
	"StockLens/internal/model"
	"StockLens/internal/profile"
	"StockLens/internal/provider"
	"StockLens/internal/screener"
	"StockLens/internal/session"
	"StockLens/internal/watchlist"
)

func init() { gin.SetMode(gin.TestMode) }

type stack struct {
	engine *gin.Engine
	store  *session.Store
}

func newStack(t *testing.T, primary provider.Provider) *stack {
	t.Helper()
	svc := provider.NewService(primary, provider.NewSynthesizer(7, provider.FallbackSimulate), nil)
	store := session.NewStore(svc, session.Options{Watchlist: []string{"AAPL", "MSFT"}}, nil)
	accounts := auth.NewAccounts(auth.NewMemoryProvider(auth.WithHashCost(bcrypt.MinCost)), profile.NewNoopStore(), nil)
	t.Cleanup(accounts.Close)

	engine := NewRouter(&Config{
		MarketHandler:    handler.NewMarketHandler(svc),
		DashboardHandler: handler.NewDashboardHandler(store),
		ScreenerHandler:  handler.NewScreenerHandler(screener.NewEngine(svc, nil, nil)),
		WatchlistHandler: handler.NewWatchlistHandler(watchlist.NewManager(svc, nil)),
		AuthHandler:      handler.NewAuthHandler(accounts),
	})
	return &stack{engine: engine, store: store}
}

func (s *stack) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doAs(t, "", method, path, body)
}

// doAs sends the request with token as its bearer credential, if set.
func (s *stack) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// downProvider fails every call.
type downProvider struct{}

func (downProvider) Name() string { return "down" }
func (downProvider) Quote(context.Context, string) (model.Quote, error) {
	return model.Quote{}, errDown
}
func (downProvider) Quotes(context.Context, []string) ([]model.Quote, error) { return nil, errDown }
func (downProvider) History(context.Context, string, time.Time, time.Time, model.Interval) ([]model.HistoricalPoint, error) {
	return nil, errDown
}
func (downProvider) Indices(context.Context) (map[string]model.IndexSnapshot, error) {
	return nil, errDown
}
func (downProvider) Search(context.Context, string, int) ([]model.SearchResult, error) {
	return nil, errDown
}

var errDown = &provider.StatusError{Code: http.StatusBadGateway, Body: "down"}

func TestHealthAndRequestID(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))
	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestQuoteEndpoints(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))

	var one struct {
		Data   model.Quote     `json:"data"`
		Source provider.Source `json:"source"`
	}
	w := s.do(t, http.MethodGet, "/v1/quotes/aapl", nil)
	decode(t, w, &one)
	if w.Code != http.StatusOK || one.Data.Symbol != "AAPL" || one.Source != provider.SourceLive {
		t.Errorf("unexpected quote response %d %+v", w.Code, one)
	}

	var batch struct {
		Quotes []struct {
			Data model.Quote `json:"data"`
		} `json:"quotes"`
	}
	w = s.do(t, http.MethodGet, "/v1/quotes?symbols=MSFT,,aapl", nil)
	decode(t, w, &batch)
	if len(batch.Quotes) != 2 || batch.Quotes[0].Data.Symbol != "MSFT" || batch.Quotes[1].Data.Symbol != "AAPL" {
		t.Errorf("unexpected batch %+v", batch)
	}

	if w := s.do(t, http.MethodGet, "/v1/quotes", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without symbols, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s := newStack(t, downProvider{})

	var resp struct {
		Data   []model.HistoricalPoint `json:"data"`
		Source provider.Source         `json:"source"`
		Reason provider.Reason         `json:"reason"`
	}
	w := s.do(t, http.MethodGet, "/v1/history/SPY?period1=2024-01-01&period2=2024-01-02&interval=15m", nil)
	decode(t, w, &resp)
	if len(resp.Data) != 97 {
		t.Errorf("expected 97 synthesized points, got %d", len(resp.Data))
	}
	if resp.Source != provider.SourceFallback || resp.Reason != provider.ReasonStatus {
		t.Errorf("expected status fallback, got %s/%s", resp.Source, resp.Reason)
	}

	if w := s.do(t, http.MethodGet, "/v1/history/SPY?interval=2h", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad interval, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/v1/history/SPY?period1=yesterday", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad period, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/v1/history/SPY?period1=1900-01-01&period2=2024-01-01&interval=15m", nil)
	if w.Code != http.StatusBadRequest || w.Body.Len() > 1024 {
		t.Errorf("expected a short 400 for an oversized range, got %d (%d bytes)", w.Code, w.Body.Len())
	}
	if w := s.do(t, http.MethodGet, "/v1/history/SPY?period1=1900-01-01&period2=2024-01-01&interval=1mo", nil); w.Code != http.StatusOK {
		t.Errorf("a long monthly range is within the limit, got %d", w.Code)
	}
}

func TestIndicesAndSearchFallback(t *testing.T) {
	s := newStack(t, downProvider{})

	var idx struct {
		Data   map[string]model.IndexSnapshot `json:"data"`
		Source provider.Source                `json:"source"`
	}
	decode(t, s.do(t, http.MethodGet, "/v1/indices", nil), &idx)
	if len(idx.Data) != 4 || idx.Source != provider.SourceFallback {
		t.Errorf("unexpected indices %+v", idx)
	}

	var res struct {
		Data []model.SearchResult `json:"data"`
	}
	w := s.do(t, http.MethodGet, "/v1/search?query=apple", nil)
	decode(t, w, &res)
	if w.Code != http.StatusOK || res.Data == nil || len(res.Data) != 0 {
		t.Errorf("expected empty result list, got %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/v1/search?query=a&limit=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero limit, got %d", w.Code)
	}
}

func TestDashboardRefresh(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))

	var snap session.Snapshot
	decode(t, s.do(t, http.MethodGet, "/v1/dashboard", nil), &snap)
	if !snap.Loading {
		t.Error("dashboard should be loading before the first refresh")
	}

	w := s.do(t, http.MethodPost, "/v1/dashboard/refresh", nil)
	decode(t, w, &snap)
	if snap.Loading || len(snap.History[session.Yearly]) == 0 || snap.Watchlist[0].Price == 0 {
		t.Errorf("refresh did not populate the dashboard: %+v", snap)
	}
}

func TestScreenerEndpoint(t *testing.T) {
	s := newStack(t, downProvider{})

	var resp struct {
		Stocks []model.ScreenerStock `json:"stocks"`
		Count  int                   `json:"count"`
	}
	decode(t, s.do(t, http.MethodGet, "/v1/screener?sector=Technology&sort=price&order=desc", nil), &resp)
	if resp.Count != 3 || resp.Stocks[0].Symbol != "NVDA" {
		t.Errorf("unexpected screener result %+v", resp)
	}
	if w := s.do(t, http.MethodGet, "/v1/screener?minPrice=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/v1/screener?performance=moon", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWatchlistEndpoints(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))

	if w := s.do(t, http.MethodPost, "/v1/watchlists", map[string]string{"name": "Crypto"}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/v1/watchlists", map[string]string{"name": "Crypto"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate create: expected 409, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/v1/watchlists/Crypto/stocks", map[string]string{"symbol": "nvda"}); w.Code != http.StatusCreated {
		t.Fatalf("add stock: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/v1/watchlists/Crypto/stocks/NVDA/favorite", nil); w.Code != http.StatusOK {
		t.Errorf("favorite: %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/v1/watchlists/Crypto", map[string]string{"name": "Chips"}); w.Code != http.StatusOK {
		t.Errorf("rename: %d", w.Code)
	}

	var view struct {
		Entries []model.WatchlistEntry `json:"entries"`
	}
	decode(t, s.do(t, http.MethodGet, "/v1/watchlists/Chips", nil), &view)
	if len(view.Entries) != 1 || !view.Entries[0].Favorite || view.Entries[0].Price <= 0 {
		t.Errorf("unexpected entries %+v", view.Entries)
	}

	if w := s.do(t, http.MethodDelete, "/v1/watchlists/Chips/stocks/NVDA", nil); w.Code != http.StatusNoContent {
		t.Errorf("remove: %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/v1/watchlists/Chips", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/v1/watchlists/Chips", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

type sessionResp struct {
	Authenticated bool          `json:"authenticated"`
	Session       *auth.Session `json:"session"`
}

func TestAuthEndpoints(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))

	signup := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1", "confirm_password": "secret1"}
	w := s.do(t, http.MethodPost, "/v1/auth/signup", signup)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Session auth.Session `json:"session"`
	}
	decode(t, w, &created)

	var errResp struct {
		Error string `json:"error"`
	}
	w = s.do(t, http.MethodPost, "/v1/auth/signup", signup)
	decode(t, w, &errResp)
	if w.Code != http.StatusBadRequest || errResp.Error != "An account with this email already exists." {
		t.Errorf("duplicate signup: %d %q", w.Code, errResp.Error)
	}

	w = s.do(t, http.MethodPost, "/v1/auth/signin", map[string]string{"email": "ada@example.com", "password": "wrong1"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", w.Code)
	}
	w = s.do(t, http.MethodPost, "/v1/auth/signin", map[string]string{"email": "ada@example.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in: %d", w.Code)
	}
	var signedIn struct {
		Session auth.Session `json:"session"`
	}
	decode(t, w, &signedIn)
	token := signedIn.Session.Token

	var sess sessionResp
	decode(t, s.doAs(t, token, http.MethodGet, "/v1/auth/session", nil), &sess)
	if !sess.Authenticated || sess.Session == nil || sess.Session.UID != created.Session.UID {
		t.Errorf("expected the caller's own session, got %+v", sess)
	}

	if w := s.do(t, http.MethodPost, "/v1/auth/reset", map[string]string{"email": "ada@example.com"}); w.Code != http.StatusOK {
		t.Errorf("reset: %d", w.Code)
	}

	if w := s.doAs(t, token, http.MethodGet, "/v1/profiles/"+created.Session.UID, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unsaved profile, got %d", w.Code)
	}
	if w := s.doAs(t, token, http.MethodGet, "/v1/profiles/someone-else", nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another user's profile, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/v1/profiles/"+created.Session.UID, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous profile read, got %d", w.Code)
	}

	if w := s.do(t, http.MethodPost, "/v1/auth/signout", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous sign-out: expected 401, got %d", w.Code)
	}
	var out struct {
		SignedOut bool `json:"signed_out"`
	}
	decode(t, s.doAs(t, token, http.MethodPost, "/v1/auth/signout", nil), &out)
	if !out.SignedOut {
		t.Error("expected sign-out to succeed")
	}
	sess = sessionResp{}
	decode(t, s.doAs(t, token, http.MethodGet, "/v1/auth/session", nil), &sess)
	if sess.Authenticated {
		t.Error("session should be cleared after sign-out")
	}
	// The sign-up session is separate and still valid.
	sess = sessionResp{}
	decode(t, s.doAs(t, created.Session.Token, http.MethodGet, "/v1/auth/session", nil), &sess)
	if !sess.Authenticated {
		t.Error("signing out one session must not end another")
	}
}

func TestAuthSession_AnonymousSeesNothing(t *testing.T) {
	s := newStack(t, provider.NewSimulatedProvider(1))
	signup := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret1", "confirm_password": "secret1"}
	if w := s.do(t, http.MethodPost, "/v1/auth/signup", signup); w.Code != http.StatusCreated {
		t.Fatalf("signup: %d", w.Code)
	}

	for _, token := range []string{"", "not-a-token"} {
		w := s.doAs(t, token, http.MethodGet, "/v1/auth/session", nil)
		var sess sessionResp
		decode(t, w, &sess)
		if w.Code != http.StatusOK || sess.Authenticated || sess.Session != nil {
			t.Errorf("token %q: expected anonymous response, got %d %s", token, w.Code, w.Body.String())
		}
		if bytes.Contains(w.Body.Bytes(), []byte("alice@example.com")) {
			t.Errorf("token %q: response leaked another user's session", token)
		}
	}
}
