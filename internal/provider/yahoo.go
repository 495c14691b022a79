package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// YahooProvider implements Provider using the Yahoo Finance public API
// directly, for deployments without the local proxy.
type YahooProvider struct {
	BaseURL   string // chart/search API host, overridable in tests
	Client    *http.Client
	Limiter   *rate.Limiter
	IndexMap  map[string]string // index name to Yahoo ticker
	SymbolMap map[string]string // internal symbol to Yahoo ticker
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(opts ProxyOptions) *YahooProvider {
	base := opts.BaseURL
	if base == "" {
		base = "https://query1.finance.yahoo.com"
	}
	return &YahooProvider{
		BaseURL: strings.TrimRight(base, "/"),
		Client:  newHTTPClient(opts.Timeout, opts.OutboundProxy),
		Limiter: newLimiter(opts.RatePerSecond, opts.Burst),
		IndexMap: map[string]string{
			"dow":     "^DJI",
			"sp500":   "^GSPC",
			"nasdaq":  "^IXIC",
			"bitcoin": "BTC-USD",
		},
		SymbolMap: map[string]string{
			"BRK.B": "BRK-B",
		},
	}
}

func (f *YahooProvider) Name() string { return "yahoo" }

func (f *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				ShortName          string   `json:"shortName"`
				LongName           string   `json:"longName"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64  `json:"chartPreviousClose"`
				PreviousClose      float64  `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		ExchDisp  string `json:"exchDisp"`
	} `json:"quotes"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooProvider) fetchChart(ctx context.Context, symbol string, q url.Values) (*yahooChart, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())
	var chart yahooChart
	if err := f.get(ctx, endpoint, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, &PayloadError{Msg: "yahoo api error: " + chart.Chart.Error.Description}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, ErrEmptyPayload
	}
	return &chart, nil
}

func (f *YahooProvider) get(ctx context.Context, endpoint string, out any) error {
	if err := f.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > 512 {
			body = body[:512]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &PayloadError{Msg: "yahoo decode", Err: err}
	}
	return nil
}

func (f *YahooProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	chart, err := f.fetchChart(ctx, symbol, url.Values{"interval": {"1d"}, "range": {"1d"}})
	if err != nil {
		return model.Quote{}, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil || *meta.RegularMarketPrice < 0 {
		return model.Quote{}, &PayloadError{Msg: "yahoo: no price for " + symbol}
	}
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	price := *meta.RegularMarketPrice
	change, dir := calculator.PercentChange(price, prev)
	short, long := meta.ShortName, meta.LongName
	if short == "" {
		short = symbol
	}
	if long == "" {
		long = short
	}
	return model.Quote{
		Symbol:        strings.ToUpper(symbol),
		ShortName:     short,
		LongName:      long,
		Price:         price,
		PreviousClose: prev,
		ChangePercent: change,
		Direction:     dir,
		FetchedAt:     time.Now(),
	}, nil
}

// Quotes fetches symbols one by one; the chart API has no batch form.
// Failed symbols are omitted so the caller can substitute them individually.
func (f *YahooProvider) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	out := make([]model.Quote, 0, len(symbols))
	var lastErr error
	for _, s := range symbols {
		q, err := f.Quote(ctx, s)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (f *YahooProvider) History(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.HistoricalPoint, error) {
	q := url.Values{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {string(interval.OrDefault())},
	}
	chart, err := f.fetchChart(ctx, symbol, q)
	if err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, ErrEmptyPayload)
	}
	quote := result.Indicators.Quote[0]
	points := make([]model.HistoricalPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		pt := model.HistoricalPoint{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		}
		if !pt.Valid() {
			return nil, &PayloadError{Msg: fmt.Sprintf("yahoo: invalid bar for %s at %v", symbol, pt.Time)}
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, ErrEmptyPayload)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (f *YahooProvider) Indices(ctx context.Context) (map[string]model.IndexSnapshot, error) {
	out := make(map[string]model.IndexSnapshot, len(f.IndexMap))
	for name, ticker := range f.IndexMap {
		q, err := f.Quote(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("yahoo index %s: %w", name, err)
		}
		out[name] = model.IndexSnapshot{
			Name:          name,
			Value:         q.Price,
			ChangePercent: q.ChangePercent,
			Direction:     q.Direction,
		}
	}
	return out, nil
}

func (f *YahooProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	q := url.Values{"q": {query}, "quotesCount": {strconv.Itoa(limit)}, "newsCount": {"0"}}
	var res yahooSearch
	if err := f.get(ctx, f.BaseURL+"/v1/finance/search?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", query, err)
	}
	out := make([]model.SearchResult, 0, len(res.Quotes))
	for _, h := range res.Quotes {
		name := h.ShortName
		if name == "" {
			name = h.LongName
		}
		out = append(out, model.SearchResult{Symbol: h.Symbol, Name: name, Type: h.QuoteType, Exchange: h.ExchDisp})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
