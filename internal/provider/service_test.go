package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockLens/internal/model"
)

// unreachableProxy returns a proxy client whose server is already closed.
func unreachableProxy(t *testing.T) *ProxyProvider {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return NewProxyProvider(ProxyOptions{BaseURL: url, Timeout: time.Second})
}

// failingProvider fails every call with err.
type failingProvider struct{ err error }

func (f failingProvider) Name() string { return "failing" }
func (f failingProvider) Quote(context.Context, string) (model.Quote, error) {
	return model.Quote{}, f.err
}
func (f failingProvider) Quotes(context.Context, []string) ([]model.Quote, error) {
	return nil, f.err
}
func (f failingProvider) History(context.Context, string, time.Time, time.Time, model.Interval) ([]model.HistoricalPoint, error) {
	return nil, f.err
}
func (f failingProvider) Indices(context.Context) (map[string]model.IndexSnapshot, error) {
	return nil, f.err
}
func (f failingProvider) Search(context.Context, string, int) ([]model.SearchResult, error) {
	return nil, f.err
}

func TestService_QuoteNeverNegative(t *testing.T) {
	causes := []error{
		errors.New("connection refused"),
		&StatusError{Code: 503},
		&PayloadError{Msg: "bad json"},
	}
	for _, mode := range []FallbackMode{FallbackZero, FallbackSimulate} {
		for _, cause := range causes {
			svc := NewService(failingProvider{cause}, NewSynthesizer(7, mode), nil)
			q, o := svc.Quote(context.Background(), "AAPL")
			if q.Price < 0 || q.PreviousClose < 0 {
				t.Errorf("%s/%v: negative price %+v", mode, cause, q)
			}
			if !o.Fallback() || o.Reason != Classify(cause) {
				t.Errorf("%s/%v: unexpected outcome %+v", mode, cause, o)
			}
			if q.Symbol != "AAPL" {
				t.Errorf("expected symbol AAPL, got %q", q.Symbol)
			}
		}
	}
}

func TestService_QuoteZeroFallback(t *testing.T) {
	svc := NewService(unreachableProxy(t), NewSynthesizer(1, FallbackZero), nil)
	q, o := svc.Quote(context.Background(), "MSFT")
	if q.Price != 0 || q.PreviousClose != 0 {
		t.Errorf("expected zero fallback, got %+v", q)
	}
	if o.Reason != ReasonTransport {
		t.Errorf("expected transport reason, got %q", o.Reason)
	}
}

func TestService_QuotesOrderAndIndependence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// B is missing, C comes back first.
		w.Write([]byte(`[{"symbol":"C","regularMarketPrice":30,"regularMarketPreviousClose":31},
			{"symbol":"A","regularMarketPrice":10,"regularMarketPreviousClose":9}]`))
	}))
	defer srv.Close()

	svc := NewService(NewProxyProvider(ProxyOptions{BaseURL: srv.URL}), NewSynthesizer(1, FallbackZero), nil)
	quotes, outcomes := svc.Quotes(context.Background(), []string{"A", "B", "C"})
	if len(quotes) != 3 || len(outcomes) != 3 {
		t.Fatalf("expected 3 results, got %d/%d", len(quotes), len(outcomes))
	}
	for i, want := range []string{"A", "B", "C"} {
		if quotes[i].Symbol != want {
			t.Errorf("position %d: expected %s, got %s", i, want, quotes[i].Symbol)
		}
	}
	if outcomes[0].Fallback() || !outcomes[1].Fallback() || outcomes[2].Fallback() {
		t.Errorf("unexpected outcomes %+v", outcomes)
	}
	if quotes[0].Price != 10 || quotes[2].Price != 30 {
		t.Errorf("live prices not kept: %+v", quotes)
	}
	if quotes[2].Direction != model.Down {
		t.Errorf("expected C down, got %s", quotes[2].Direction)
	}
}

func TestService_QuotesAllFailKeepsLength(t *testing.T) {
	svc := NewService(unreachableProxy(t), NewSynthesizer(1, FallbackSimulate), nil)
	quotes, outcomes := svc.Quotes(context.Background(), []string{"X", "Y", "Z"})
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	for i, q := range quotes {
		if q.Price < 0 {
			t.Errorf("negative price at %d", i)
		}
		if !outcomes[i].Fallback() {
			t.Errorf("expected fallback at %d", i)
		}
	}
}

func TestService_HistoryFallbackScenario(t *testing.T) {
	svc := NewService(unreachableProxy(t), NewSynthesizer(3, FallbackZero), nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	pts, o := svc.History(context.Background(), "SPY", start, end, model.Interval15m)
	if !o.Fallback() {
		t.Fatal("expected fallback outcome")
	}
	if len(pts) != 97 {
		t.Fatalf("expected 97 points covering the day, got %d", len(pts))
	}
	if !pts[0].Time.Equal(start) || !pts[len(pts)-1].Time.Equal(end) {
		t.Errorf("series does not span range: %v .. %v", pts[0].Time, pts[len(pts)-1].Time)
	}
	for i := 1; i < len(pts); i++ {
		if d := pts[i].Time.Sub(pts[i-1].Time); d != 15*time.Minute {
			t.Fatalf("gap at %d: %v", i, d)
		}
	}
}

func TestService_HistoryAllGranularities(t *testing.T) {
	svc := NewService(failingProvider{errors.New("down")}, NewSynthesizer(5, FallbackZero), nil)
	start := time.Date(2023, 3, 15, 9, 30, 0, 0, time.UTC)
	ranges := []struct {
		iv  model.Interval
		end time.Time
	}{
		{model.Interval15m, start.Add(6 * time.Hour)},
		{model.Interval1d, start.AddDate(0, 0, 30)},
		{model.Interval1wk, start.AddDate(0, 6, 0)},
		{model.Interval1mo, start.AddDate(2, 0, 0)},
		{model.Interval1d, start},
	}
	for _, r := range ranges {
		pts, _ := svc.History(context.Background(), "IBM", start, r.end, r.iv)
		want := r.iv.Boundaries(start, r.end)
		if len(pts) == 0 || len(pts) != len(want) {
			t.Fatalf("%s: expected %d points, got %d", r.iv, len(want), len(pts))
		}
		for i := range pts {
			if !pts[i].Time.Equal(want[i]) {
				t.Fatalf("%s: point %d at %v, want %v", r.iv, i, pts[i].Time, want[i])
			}
		}
	}
}

func TestService_HistorySwapsReversedRange(t *testing.T) {
	svc := NewService(failingProvider{errors.New("down")}, NewSynthesizer(5, FallbackZero), nil)
	a := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 0, -3)
	pts, _ := svc.History(context.Background(), "SPY", a, b, model.Interval1d)
	if len(pts) != 4 || !pts[0].Time.Equal(b) {
		t.Errorf("expected 4 ascending points from %v, got %d", b, len(pts))
	}
}

func TestService_HistorySeededFromLastLivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/quote/ACME" {
			w.Write([]byte(`{"symbol":"ACME","regularMarketPrice":1000,"regularMarketPreviousClose":990}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(NewProxyProvider(ProxyOptions{BaseURL: srv.URL}), NewSynthesizer(9, FallbackZero), nil)
	if _, o := svc.Quote(context.Background(), "ACME"); o.Fallback() {
		t.Fatal("expected live quote")
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts, o := svc.History(context.Background(), "ACME", start, start.AddDate(0, 0, 2), model.Interval1d)
	if o.Reason != ReasonStatus {
		t.Errorf("expected status reason, got %q", o.Reason)
	}
	if pts[0].Close < 950 || pts[0].Close > 1050 {
		t.Errorf("expected walk to start near 1000, got %v", pts[0].Close)
	}
}

func TestService_IndicesFallback(t *testing.T) {
	svc := NewService(unreachableProxy(t), nil, nil)
	idx, o := svc.Indices(context.Background())
	if !o.Fallback() {
		t.Error("expected fallback")
	}
	if len(idx) != 4 || idx["dow"].Value != 39872.14 || idx["nasdaq"].Direction != model.Down {
		t.Errorf("unexpected fallback indices %+v", idx)
	}
	idx["dow"] = model.IndexSnapshot{}
	again, _ := svc.Indices(context.Background())
	if again["dow"].Value != 39872.14 {
		t.Error("fallback mapping must not be shared with callers")
	}
}

func TestService_SearchFallbackEmpty(t *testing.T) {
	svc := NewService(unreachableProxy(t), nil, nil)
	res, o := svc.Search(context.Background(), "AAP", 10)
	if res == nil || len(res) != 0 {
		t.Errorf("expected empty non-nil list, got %v", res)
	}
	if !o.Fallback() {
		t.Error("expected fallback")
	}
}

func TestService_SearchSimulated(t *testing.T) {
	svc := NewService(NewSimulatedProvider(1), nil, nil)
	res, _ := svc.Search(context.Background(), "AAP", 10)
	found := false
	for _, r := range res {
		if r.Symbol == "AAPL" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected AAPL in %v", res)
	}
	if res, _ := svc.Search(context.Background(), "ZZZZZ", 10); len(res) != 0 {
		t.Errorf("expected no results, got %v", res)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{nil, ReasonNone},
		{errors.New("dial tcp"), ReasonTransport},
		{context.DeadlineExceeded, ReasonTransport},
		{&StatusError{Code: 404}, ReasonStatus},
		{ErrEmptyPayload, ReasonPayload},
		{&PayloadError{Msg: "x"}, ReasonPayload},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
