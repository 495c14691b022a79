package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockLens/internal/calculator"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/provider"
)

// Resolution keys one of the cached historical series.
type Resolution string

const (
	Intraday Resolution = "intraday"
	Weekly   Resolution = "weekly"
	Yearly   Resolution = "yearly"
)

// window describes how a resolution is fetched relative to now.
type window struct {
	res      Resolution
	from     func(now time.Time) time.Time
	interval model.Interval
}

var windows = []window{
	{Intraday, func(now time.Time) time.Time { return now.AddDate(0, 0, -1) }, model.Interval15m},
	{Weekly, func(now time.Time) time.Time { return now.AddDate(0, 0, -7) }, model.Interval1d},
	{Yearly, func(now time.Time) time.Time { return now.AddDate(-1, 0, 0) }, model.Interval1mo},
}

// MarketData is the subset of provider.Service the store needs.
type MarketData interface {
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, []provider.Outcome)
	History(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.HistoricalPoint, provider.Outcome)
	Indices(ctx context.Context) (map[string]model.IndexSnapshot, provider.Outcome)
}

// Options configures a Store.
type Options struct {
	Watchlist     []string
	HistorySymbol string
	Now           func() time.Time
}

// Snapshot is a read-only copy of the cache.
type Snapshot struct {
	Loading       bool                                   `json:"loading"`
	Indices       map[string]model.IndexSnapshot         `json:"indices"`
	Watchlist     []model.WatchlistEntry                 `json:"watchlist"`
	History       map[Resolution][]model.HistoricalPoint `json:"history"`
	HistorySymbol string                                 `json:"history_symbol"`
	IntradayHigh  float64                                `json:"intraday_high,omitempty"`
	IntradayLow   float64                                `json:"intraday_low,omitempty"`
	// IntradayPosition is where the last intraday close sits in [low, high].
	IntradayPosition float64                    `json:"intraday_position,omitempty"`
	Sources          map[string]provider.Source `json:"sources"`
	UpdatedAt        map[string]time.Time       `json:"updated_at"`
}

// Store owns the last-known market data for one dashboard session. Every
// field is replaced wholesale under mu, so readers never see a mix of two
// refreshes for the same field.
type Store struct {
	data          MarketData
	symbols       []string
	historySymbol string
	now           func() time.Time
	log           *zap.SugaredLogger

	mu        sync.RWMutex
	ready     bool
	inFlight  int
	indices   map[string]model.IndexSnapshot
	watchlist []model.WatchlistEntry
	history   map[Resolution][]model.HistoricalPoint
	sources   map[string]provider.Source
	updated   map[string]time.Time
}

// NewStore creates a Store in the loading state, pre-filled with
// placeholder values so consumers can render before the first refresh.
func NewStore(data MarketData, opts Options, log *zap.SugaredLogger) *Store {
	if opts.HistorySymbol == "" {
		opts.HistorySymbol = "SPY"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		data:          data,
		symbols:       append([]string(nil), opts.Watchlist...),
		historySymbol: opts.HistorySymbol,
		now:           opts.Now,
		log:           logger.OrNop(log),
		indices:       provider.FallbackIndices(),
		watchlist:     placeholderWatchlist(opts.Watchlist),
		history:       make(map[Resolution][]model.HistoricalPoint),
		sources:       make(map[string]provider.Source),
		updated:       make(map[string]time.Time),
	}
	metrics.SetLoading(true)
	return s
}

// placeholders are shown for the default symbols until the first refresh.
var placeholders = map[string]model.WatchlistEntry{
	"AAPL":  {Price: 175.28, ChangePercent: 2.3, Direction: model.Up},
	"MSFT":  {Price: 327.64, ChangePercent: 3.2, Direction: model.Up},
	"GOOGL": {Price: 156.37, ChangePercent: 1.2, Direction: model.Down},
	"AMZN":  {Price: 182.49, ChangePercent: 0.8, Direction: model.Up},
	"TSLA":  {Price: 892.45, ChangePercent: 4.8, Direction: model.Up},
}

func placeholderWatchlist(symbols []string) []model.WatchlistEntry {
	out := make([]model.WatchlistEntry, len(symbols))
	for i, sym := range symbols {
		e, ok := placeholders[sym]
		if !ok {
			e.Direction = model.Up
		}
		e.Symbol, e.Name, e.Glyph = sym, sym, model.GlyphFor(sym)
		out[i] = e
	}
	return out
}

// Loading reports whether a full refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingLocked()
}

func (s *Store) loadingLocked() bool { return !s.ready || s.inFlight > 0 }

// Snapshot returns a deep copy of the cache.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Loading:       s.loadingLocked(),
		Indices:       model.CloneIndices(s.indices),
		Watchlist:     append([]model.WatchlistEntry(nil), s.watchlist...),
		History:       make(map[Resolution][]model.HistoricalPoint, len(s.history)),
		HistorySymbol: s.historySymbol,
		Sources:       make(map[string]provider.Source, len(s.sources)),
		UpdatedAt:     make(map[string]time.Time, len(s.updated)),
	}
	for r, pts := range s.history {
		snap.History[r] = append([]model.HistoricalPoint(nil), pts...)
	}
	for k, v := range s.sources {
		snap.Sources[k] = v
	}
	for k, v := range s.updated {
		snap.UpdatedAt[k] = v
	}
	if pts := s.history[Intraday]; len(pts) > 0 {
		if high, low, err := calculator.SeriesRange(pts); err == nil {
			snap.IntradayHigh, snap.IntradayLow = high, low
			if pos, err := calculator.RangePosition(pts[len(pts)-1].Close, high, low); err == nil {
				snap.IntradayPosition = pos
			}
		}
	}
	return snap
}

// RefreshAll reloads indices, watchlist quotes and every history series
// concurrently. The store reports loading until all overlapping full
// refreshes have finished.
func (s *Store) RefreshAll(ctx context.Context) {
	s.setLoading(+1)
	defer s.setLoading(-1)
	metrics.IncRefresh("full")

	var wg sync.WaitGroup
	wg.Add(2 + len(windows))
	go func() {
		defer wg.Done()
		s.refreshIndices(ctx)
	}()
	go func() {
		defer wg.Done()
		s.refreshWatchlist(ctx)
	}()
	now := s.now()
	for _, w := range windows {
		go func(w window) {
			defer wg.Done()
			s.refreshHistory(ctx, w, now)
		}(w)
	}
	wg.Wait()
	s.log.Infow("session refreshed", "symbols", len(s.symbols), "history_symbol", s.historySymbol)
}

// RefreshQuotes reloads indices and watchlist quotes only. It leaves the
// loading flag alone so background polling stays silent.
func (s *Store) RefreshQuotes(ctx context.Context) {
	metrics.IncRefresh("quotes")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.refreshIndices(ctx)
	}()
	go func() {
		defer wg.Done()
		s.refreshWatchlist(ctx)
	}()
	wg.Wait()
}

// setLoading adjusts the in-flight counter of full refreshes. The store
// becomes ready once the first full refresh has settled.
func (s *Store) setLoading(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight += delta
	if delta < 0 {
		s.ready = true
	}
	metrics.SetLoading(s.loadingLocked())
}

func (s *Store) refreshIndices(ctx context.Context) {
	idx, o := s.data.Indices(ctx)
	if len(idx) == 0 {
		return
	}
	s.mu.Lock()
	s.indices = idx
	s.mark("indices", o)
	s.mu.Unlock()
}

func (s *Store) refreshWatchlist(ctx context.Context) {
	if len(s.symbols) == 0 {
		return
	}
	quotes, outcomes := s.data.Quotes(ctx, s.symbols)
	if len(quotes) == 0 {
		return
	}
	entries := make([]model.WatchlistEntry, len(quotes))
	source := provider.SourceLive
	for i, q := range quotes {
		sym := s.symbols[i]
		entries[i] = model.WatchlistEntry{
			Symbol:        sym,
			Name:          q.ShortName,
			Price:         q.Price,
			ChangePercent: q.ChangePercent,
			Direction:     q.Direction,
			Glyph:         model.GlyphFor(sym),
		}
		if outcomes[i].Fallback() {
			source = provider.SourceFallback
		}
	}
	s.mu.Lock()
	s.watchlist = entries
	s.mark("watchlist", provider.Outcome{Source: source})
	s.mu.Unlock()
}

func (s *Store) refreshHistory(ctx context.Context, w window, now time.Time) {
	pts, o := s.data.History(ctx, s.historySymbol, w.from(now), now, w.interval)
	if len(pts) == 0 {
		return
	}
	key := "history." + string(w.res)
	s.mu.Lock()
	s.history[w.res] = pts
	s.mark(key, o)
	s.mu.Unlock()
}

// mark records the source and time of a field update. Callers must hold mu.
func (s *Store) mark(field string, o provider.Outcome) {
	s.sources[field] = o.Source
	s.updated[field] = s.now()
}

// Symbols returns the tracked watchlist symbols.
func (s *Store) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// HasSymbol reports whether symbol is on the session watchlist.
func (s *Store) HasSymbol(symbol string) bool {
	for _, sym := range s.symbols {
		if strings.EqualFold(sym, symbol) {
			return true
		}
	}
	return false
}
