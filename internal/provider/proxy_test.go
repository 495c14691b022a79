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

func TestProxyProvider_Endpoints(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		switch r.URL.Path {
		case "/api/quote/AAPL":
			w.Write([]byte(`{"symbol":"AAPL","regularMarketPrice":110,"regularMarketPreviousClose":100,"shortName":"Apple"}`))
		case "/api/quotes":
			w.Write([]byte(`[{"symbol":"AAPL","regularMarketPrice":110,"regularMarketPreviousClose":100}]`))
		case "/api/historical/SPY":
			w.Write([]byte(`[
				{"date":"2024-01-02T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.5,"volume":10},
				{"date":"2024-01-01T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.2,"volume":10}]`))
		case "/api/market-indices":
			w.Write([]byte(`{"dow":{"value":100,"change":-1.5},"nasdaq":{"value":50,"change":0.4,"isUp":false}}`))
		case "/api/search":
			w.Write([]byte(`[{"symbol":"AAPL","shortname":"Apple Inc.","typeDisp":"Equity","exchDisp":"NASDAQ"},
				{"symbol":"AAPB","longname":"Apple ETF"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewProxyProvider(ProxyOptions{BaseURL: srv.URL + "/api/", RatePerSecond: 100, Burst: 10})
	ctx := context.Background()

	q, err := p.Quote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.ChangePercent != 10 || q.Direction != model.Up || q.ShortName != "Apple" {
		t.Errorf("unexpected quote %+v", q)
	}

	qs, err := p.Quotes(ctx, []string{"AAPL", "MSFT"})
	if err != nil || len(qs) != 1 {
		t.Fatalf("quotes: %v %v", qs, err)
	}
	if gotQuery["symbols"] != "AAPL,MSFT" {
		t.Errorf("expected comma-joined symbols, got %q", gotQuery["symbols"])
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts, err := p.History(ctx, "SPY", start, start.AddDate(0, 0, 1), model.Interval1d)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if gotQuery["period1"] != "2024-01-01" || gotQuery["period2"] != "2024-01-02" || gotQuery["interval"] != "1d" {
		t.Errorf("unexpected history query %v", gotQuery)
	}
	if len(pts) != 2 || !pts[0].Time.Before(pts[1].Time) {
		t.Errorf("expected ascending series, got %+v", pts)
	}

	idx, err := p.Indices(ctx)
	if err != nil {
		t.Fatalf("indices: %v", err)
	}
	if idx["dow"].ChangePercent != 1.5 || idx["dow"].Direction != model.Down {
		t.Errorf("signed change not normalised: %+v", idx["dow"])
	}
	if idx["nasdaq"].Direction != model.Down || idx["nasdaq"].ChangePercent != 0.4 {
		t.Errorf("isUp flag not honoured: %+v", idx["nasdaq"])
	}

	res, err := p.Search(ctx, "AAP", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery["query"] != "AAP" || gotQuery["limit"] != "1" {
		t.Errorf("unexpected search query %v", gotQuery)
	}
	if len(res) != 1 || res[0].Name != "Apple Inc." {
		t.Errorf("unexpected search results %+v", res)
	}
}

func TestProxyProvider_ErrorKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/BAD":
			w.WriteHeader(http.StatusBadGateway)
		case "/quote/NEG":
			w.Write([]byte(`{"symbol":"NEG","regularMarketPrice":-1}`))
		case "/quote/GARBAGE":
			w.Write([]byte(`<html>`))
		case "/quote/EMPTY":
		case "/historical/SPY":
			w.Write([]byte(`[]`))
		case "/historical/NEG":
			w.Write([]byte(`[{"date":"2024-01-02T00:00:00Z","open":10,"high":11,"low":-1,"close":10.5,"volume":100}]`))
		case "/historical/NEGVOL":
			w.Write([]byte(`[{"date":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10.5,"volume":-5}]`))
		}
	}))
	defer srv.Close()
	p := NewProxyProvider(ProxyOptions{BaseURL: srv.URL})
	ctx := context.Background()

	tests := []struct {
		symbol string
		want   Reason
	}{
		{"BAD", ReasonStatus},
		{"NEG", ReasonPayload},
		{"GARBAGE", ReasonPayload},
		{"EMPTY", ReasonPayload},
	}
	for _, tt := range tests {
		_, err := p.Quote(ctx, tt.symbol)
		if got := Classify(err); got != tt.want {
			t.Errorf("%s: expected %q, got %q (%v)", tt.symbol, tt.want, got, err)
		}
	}

	_, err := p.History(ctx, "SPY", time.Now().AddDate(0, 0, -1), time.Now(), model.Interval15m)
	if !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("expected empty payload error, got %v", err)
	}
	for _, sym := range []string{"NEG", "NEGVOL"} {
		_, err := p.History(ctx, sym, time.Now().AddDate(0, 0, -1), time.Now(), model.Interval1d)
		if Classify(err) != ReasonPayload {
			t.Errorf("%s: expected payload reason for negative bar, got %v", sym, err)
		}
	}
}

func TestProxyProvider_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	p := NewProxyProvider(ProxyOptions{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Indices(ctx)
	if Classify(err) != ReasonTransport {
		t.Errorf("expected transport failure, got %v", err)
	}
}
