package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
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

// ProxyProvider implements Provider against the local market-data proxy.
type ProxyProvider struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// ProxyOptions configures a ProxyProvider.
type ProxyOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64 // zero disables pacing
	Burst         int
	OutboundProxy string
}

// NewProxyProvider creates a proxy client with optional outbound proxy support.
func NewProxyProvider(opts ProxyOptions) *ProxyProvider {
	return &ProxyProvider{
		BaseURL: strings.TrimRight(opts.BaseURL, "/"),
		Client:  newHTTPClient(opts.Timeout, opts.OutboundProxy),
		Limiter: newLimiter(opts.RatePerSecond, opts.Burst),
	}
}

func newHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (p *ProxyProvider) Name() string { return "proxy" }

// proxyQuote is the quote shape served by the proxy.
type proxyQuote struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
}

type proxyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// proxyIndex carries a change that may be signed or unsigned depending on the
// upstream; IsUp wins when present.
type proxyIndex struct {
	Value  *float64 `json:"value"`
	Change float64  `json:"change"`
	IsUp   *bool    `json:"isUp"`
}

type proxySearchHit struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	TypeDisp  string `json:"typeDisp"`
	ExchDisp  string `json:"exchDisp"`
}

func (p *ProxyProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	var pq proxyQuote
	if err := p.getJSON(ctx, "/quote/"+url.PathEscape(symbol), nil, &pq); err != nil {
		return model.Quote{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	if pq.Symbol == "" {
		pq.Symbol = symbol
	}
	return toQuote(pq)
}

func (p *ProxyProvider) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	q := url.Values{"symbols": {strings.Join(symbols, ",")}}
	var pqs []proxyQuote
	if err := p.getJSON(ctx, "/quotes", q, &pqs); err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	out := make([]model.Quote, 0, len(pqs))
	for i, pq := range pqs {
		if pq.Symbol == "" && i < len(symbols) {
			pq.Symbol = symbols[i]
		}
		quote, err := toQuote(pq)
		if err != nil {
			// Service falls back for symbols missing from the result.
			continue
		}
		out = append(out, quote)
	}
	return out, nil
}

func (p *ProxyProvider) History(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.HistoricalPoint, error) {
	q := url.Values{
		"period1":  {start.UTC().Format("2006-01-02")},
		"period2":  {end.UTC().Format("2006-01-02")},
		"interval": {string(interval.OrDefault())},
	}
	var bars []proxyBar
	if err := p.getJSON(ctx, "/historical/"+url.PathEscape(symbol), q, &bars); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, ErrEmptyPayload)
	}
	points := make([]model.HistoricalPoint, 0, len(bars))
	for _, b := range bars {
		pt := model.HistoricalPoint{
			Time: b.Date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
		if b.Date.IsZero() || !pt.Valid() {
			return nil, &PayloadError{Msg: fmt.Sprintf("invalid bar for %s at %v", symbol, b.Date)}
		}
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (p *ProxyProvider) Indices(ctx context.Context) (map[string]model.IndexSnapshot, error) {
	var raw map[string]proxyIndex
	if err := p.getJSON(ctx, "/market-indices", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch indices: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch indices: %w", ErrEmptyPayload)
	}
	out := make(map[string]model.IndexSnapshot, len(raw))
	for name, ix := range raw {
		if ix.Value == nil || *ix.Value < 0 {
			return nil, &PayloadError{Msg: fmt.Sprintf("invalid value for index %s", name)}
		}
		dir := model.DirectionOf(ix.Change)
		if ix.IsUp != nil {
			dir = model.Down
			if *ix.IsUp {
				dir = model.Up
			}
		}
		out[name] = model.IndexSnapshot{
			Name:          name,
			Value:         *ix.Value,
			ChangePercent: calculator.RoundCents(math.Abs(ix.Change)),
			Direction:     dir,
		}
	}
	return out, nil
}

func (p *ProxyProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	q := url.Values{"query": {query}, "limit": {strconv.Itoa(limit)}}
	var hits []proxySearchHit
	if err := p.getJSON(ctx, "/search", q, &hits); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	out := make([]model.SearchResult, 0, len(hits))
	for _, h := range hits {
		name := h.ShortName
		if name == "" {
			name = h.LongName
		}
		out = append(out, model.SearchResult{Symbol: h.Symbol, Name: name, Type: h.TypeDisp, Exchange: h.ExchDisp})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p *ProxyProvider) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := p.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	endpoint := p.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return ErrEmptyPayload
		}
		return &PayloadError{Msg: "decode response", Err: err}
	}
	return nil
}

func toQuote(pq proxyQuote) (model.Quote, error) {
	if pq.RegularMarketPrice == nil {
		return model.Quote{}, &PayloadError{Msg: fmt.Sprintf("missing price for %s", pq.Symbol)}
	}
	price := *pq.RegularMarketPrice
	var prev float64
	if pq.RegularMarketPreviousClose != nil {
		prev = *pq.RegularMarketPreviousClose
	}
	if price < 0 || prev < 0 {
		return model.Quote{}, &PayloadError{Msg: fmt.Sprintf("negative price for %s", pq.Symbol)}
	}
	change, dir := calculator.PercentChange(price, prev)
	short, long := pq.ShortName, pq.LongName
	if short == "" {
		short = pq.Symbol
	}
	if long == "" {
		long = short
	}
	return model.Quote{
		Symbol:        pq.Symbol,
		ShortName:     short,
		LongName:      long,
		Price:         price,
		PreviousClose: prev,
		ChangePercent: change,
		Direction:     dir,
		FetchedAt:     time.Now(),
	}, nil
}
