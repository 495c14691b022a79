package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// Source tells whether a value came from the primary provider.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Outcome describes how a Service value was obtained.
type Outcome struct {
	Source Source `json:"source"`
	Reason Reason `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// Fallback reports whether the value is synthetic.
func (o Outcome) Fallback() bool { return o.Source == SourceFallback }

var live = Outcome{Source: SourceLive}

// Service wraps a Provider so that every call succeeds. Failures are logged,
// counted and replaced with Synthesizer data.
type Service struct {
	primary Provider
	synth   *Synthesizer
	log     *zap.SugaredLogger

	mu        sync.RWMutex
	lastPrice map[string]float64
}

// NewService creates a Service around primary.
func NewService(primary Provider, synth *Synthesizer, log *zap.SugaredLogger) *Service {
	if synth == nil {
		synth = NewSynthesizer(time.Now().UnixNano(), FallbackZero)
	}
	return &Service{
		primary:   primary,
		synth:     synth,
		log:       logger.OrNop(log),
		lastPrice: make(map[string]float64),
	}
}

// Name returns the primary provider name.
func (s *Service) Name() string { return s.primary.Name() }

func (s *Service) fallback(op, symbol string, err error) Outcome {
	reason := Classify(err)
	s.log.Warnw("market data fallback",
		"op", op, "symbol", symbol, "provider", s.primary.Name(), "reason", reason, "error", err)
	metrics.IncFallback(op, string(reason))
	return Outcome{Source: SourceFallback, Reason: reason, Err: err}
}

func (s *Service) observe(op string, start time.Time, o Outcome) {
	metrics.ObserveProvider(op, string(o.Source), time.Since(start))
}

func (s *Service) remember(q model.Quote) {
	if q.Price <= 0 {
		return
	}
	s.mu.Lock()
	s.lastPrice[strings.ToUpper(q.Symbol)] = q.Price
	s.mu.Unlock()
}

// basePrice is the last live price seen for symbol, else the primary's hint.
func (s *Service) basePrice(symbol string) float64 {
	s.mu.RLock()
	p, ok := s.lastPrice[strings.ToUpper(symbol)]
	s.mu.RUnlock()
	if ok {
		return p
	}
	if h, ok := s.primary.(PriceHinter); ok {
		if p, ok := h.LastPrice(symbol); ok {
			return p
		}
	}
	return 0
}

// Quote returns a quote for symbol, substituting fallback data on failure.
func (s *Service) Quote(ctx context.Context, symbol string) (model.Quote, Outcome) {
	start := time.Now()
	q, err := s.primary.Quote(ctx, symbol)
	if err == nil && q.Price < 0 {
		err = &PayloadError{Msg: "negative price for " + symbol}
	}
	if err != nil {
		o := s.fallback("quote", symbol, err)
		s.observe("quote", start, o)
		return s.synth.Quote(symbol, s.basePrice(symbol)), o
	}
	s.remember(q)
	s.observe("quote", start, live)
	return q, live
}

// Quotes returns one quote per input symbol in input order. Symbols the
// primary did not return fall back individually.
func (s *Service) Quotes(ctx context.Context, symbols []string) ([]model.Quote, []Outcome) {
	start := time.Now()
	quotes := make([]model.Quote, len(symbols))
	outcomes := make([]Outcome, len(symbols))
	if len(symbols) == 0 {
		return quotes, outcomes
	}

	got, err := s.primary.Quotes(ctx, symbols)
	bySymbol := make(map[string]model.Quote, len(got))
	for _, q := range got {
		if q.Price >= 0 {
			bySymbol[strings.ToUpper(q.Symbol)] = q
		}
	}

	anyFallback := false
	for i, sym := range symbols {
		if q, ok := bySymbol[strings.ToUpper(sym)]; ok && err == nil {
			quotes[i] = q
			outcomes[i] = live
			s.remember(q)
			continue
		}
		cause := err
		if cause == nil {
			cause = &PayloadError{Msg: "symbol missing from batch response"}
		}
		outcomes[i] = s.fallback("quotes", sym, cause)
		quotes[i] = s.synth.Quote(sym, s.basePrice(sym))
		anyFallback = true
	}

	batch := live
	if anyFallback {
		batch = Outcome{Source: SourceFallback}
	}
	s.observe("quotes", start, batch)
	return quotes, outcomes
}

// History returns a time-ascending series covering [startDate, endDate]. On
// failure it synthesises a random walk seeded from the last known price.
func (s *Service) History(ctx context.Context, symbol string, startDate, endDate time.Time, interval model.Interval) ([]model.HistoricalPoint, Outcome) {
	start := time.Now()
	if startDate.After(endDate) {
		startDate, endDate = endDate, startDate
	}
	interval = interval.OrDefault()

	points, err := s.primary.History(ctx, symbol, startDate, endDate, interval)
	if err == nil && len(points) == 0 {
		err = ErrEmptyPayload
	}
	if err != nil {
		o := s.fallback("history", symbol, err)
		s.observe("history", start, o)
		return s.synth.History(startDate, endDate, interval, s.basePrice(symbol)), o
	}
	s.observe("history", start, live)
	return points, live
}

// Indices returns the market index mapping or the fixed fallback mapping.
func (s *Service) Indices(ctx context.Context) (map[string]model.IndexSnapshot, Outcome) {
	start := time.Now()
	idx, err := s.primary.Indices(ctx)
	if err == nil && len(idx) == 0 {
		err = ErrEmptyPayload
	}
	if err != nil {
		o := s.fallback("indices", "", err)
		s.observe("indices", start, o)
		return s.synth.Indices(), o
	}
	s.observe("indices", start, live)
	return idx, live
}

// Search returns up to limit matches, or an empty list on failure.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, Outcome) {
	start := time.Now()
	res, err := s.primary.Search(ctx, query, limit)
	if err != nil {
		o := s.fallback("search", query, err)
		s.observe("search", start, o)
		return []model.SearchResult{}, o
	}
	if res == nil {
		res = []model.SearchResult{}
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	s.observe("search", start, live)
	return res, live
}
