package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockLens/internal/model"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"SPY","shortName":"SPDR","regularMarketPrice":520,"chartPreviousClose":500},
	"timestamp":[1704153600,1704067200,1704240000],
	"indicators":{"quote":[{
		"open":[2,1,null],"high":[3,2,null],"low":[1,0.5,null],"close":[2.5,1.5,null],"volume":[10,20,null]}]}}],
	"error":null}}`

func TestYahooProvider_QuoteAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/finance/chart/") {
			w.Write([]byte(chartBody))
			return
		}
		if r.URL.Path == "/v1/finance/search" {
			w.Write([]byte(`{"quotes":[{"symbol":"AAPL","shortname":"Apple Inc.","quoteType":"EQUITY"},{"symbol":"APLE"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewYahooProvider(ProxyOptions{BaseURL: srv.URL})
	ctx := context.Background()

	q, err := p.Quote(ctx, "SPY")
	if err != nil {
		t.Fatal(err)
	}
	if q.Price != 520 || q.ChangePercent != 4 || q.Direction != model.Up {
		t.Errorf("unexpected quote %+v", q)
	}

	pts, err := p.History(ctx, "SPY", time.Unix(1704067200, 0), time.Unix(1704240000, 0), model.Interval1d)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected null bar skipped, got %d points", len(pts))
	}
	if !pts[0].Time.Before(pts[1].Time) || pts[0].Close != 1.5 {
		t.Errorf("expected ascending order, got %+v", pts)
	}

	idx, err := p.Indices(ctx)
	if err != nil || len(idx) != 4 {
		t.Fatalf("indices: %v %v", idx, err)
	}

	res, err := p.Search(ctx, "AAP", 1)
	if err != nil || len(res) != 1 || res[0].Symbol != "AAPL" {
		t.Errorf("unexpected search %v %v", res, err)
	}
}

func TestYahooProvider_NegativeBarRejected(t *testing.T) {
	body := strings.Replace(chartBody, `"high":[3,2,null]`, `"high":[3,-2,null]`, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewYahooProvider(ProxyOptions{BaseURL: srv.URL})
	_, err := p.History(context.Background(), "SPY", time.Unix(1704067200, 0), time.Unix(1704240000, 0), model.Interval1d)
	if Classify(err) != ReasonPayload {
		t.Errorf("expected payload reason, got %v", err)
	}
}

func TestYahooProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	p := NewYahooProvider(ProxyOptions{BaseURL: srv.URL})
	_, err := p.Quote(context.Background(), "NOPE")
	if Classify(err) != ReasonPayload {
		t.Errorf("expected payload reason, got %v", err)
	}
}
