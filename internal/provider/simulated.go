package provider

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// SimulatedProvider is an in-memory market that drifts a little on every
// read. It never fails and is used for offline demos and tests.
type SimulatedProvider struct {
	mu      sync.Mutex
	rng     *rand.Rand
	stocks  map[string]*simPrice
	indices map[string]*simPrice
	synth   *Synthesizer
	dir     Directory
}

type simPrice struct {
	Value     float64
	PrevClose float64
}

const (
	stockDriftPct = 0.5 // per read, uniform in [-0.5%, +0.5%]
	indexDriftPct = 0.3
)

// NewSimulatedProvider creates a simulated market seeded with plausible prices.
func NewSimulatedProvider(seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1)),
		stocks: map[string]*simPrice{
			"AAPL":  {175.28, 171.34},
			"MSFT":  {327.64, 317.48},
			"GOOGL": {156.37, 158.27},
			"AMZN":  {182.49, 181.04},
			"TSLA":  {892.45, 851.58},
			"META":  {432.18, 425.79},
			"NFLX":  {628.75, 633.17},
			"NVDA":  {1024.36, 973.73},
			"AMD":   {156.82, 153.59},
			"INTC":  {32.45, 33.04},
			"BRK.B": {406.27, 404.97},
			"SPY":   {520.47, 519.24},
			"QQQ":   {437.92, 435.77},
		},
		indices: map[string]*simPrice{
			"dow":     {39872.14, 39601.47},
			"sp500":   {5321.42, 5291.22},
			"nasdaq":  {17584.95, 17625.45},
			"bitcoin": {68345.78, 66705.82},
		},
		synth: NewSynthesizer(seed, FallbackSimulate),
		dir:   DefaultDirectory,
	}
}

func (p *SimulatedProvider) Name() string { return "simulated" }

// drift moves every cached value by a uniform step of at most pct percent.
// Callers must hold p.mu.
func (p *SimulatedProvider) drift(set map[string]*simPrice, pct float64) {
	// Sorted keys keep seeded runs reproducible.
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sp := set[k]
		sp.Value = calculator.Drift(sp.Value, (p.rng.Float64()*2-1)*pct)
	}
}

// stock returns the cached price of symbol. Unknown symbols get a one-off
// price that is not cached, so the drifted set stays fixed.
// Callers must hold p.mu.
func (p *SimulatedProvider) stock(symbol string) *simPrice {
	if sp, ok := p.stocks[strings.ToUpper(symbol)]; ok {
		return sp
	}
	return &simPrice{
		Value:     calculator.RoundCents(100 + p.rng.Float64()*50),
		PrevClose: calculator.RoundCents(100 + p.rng.Float64()*50),
	}
}

func (p *SimulatedProvider) quote(symbol string) model.Quote {
	sp := p.stock(symbol)
	change, dir := calculator.PercentChange(sp.Value, sp.PrevClose)
	short, long := symbol+" Inc.", symbol+" Corporation"
	if e, ok := p.dir.Lookup(symbol); ok {
		short, long = e.Name, e.Name
	}
	return model.Quote{
		Symbol:        strings.ToUpper(symbol),
		ShortName:     short,
		LongName:      long,
		Price:         sp.Value,
		PreviousClose: sp.PrevClose,
		ChangePercent: change,
		Direction:     dir,
		FetchedAt:     time.Now(),
	}
}

func (p *SimulatedProvider) Quote(_ context.Context, symbol string) (model.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drift(p.stocks, stockDriftPct)
	return p.quote(symbol), nil
}

func (p *SimulatedProvider) Quotes(_ context.Context, symbols []string) ([]model.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drift(p.stocks, stockDriftPct)
	out := make([]model.Quote, len(symbols))
	for i, s := range symbols {
		out[i] = p.quote(s)
	}
	return out, nil
}

func (p *SimulatedProvider) History(_ context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.HistoricalPoint, error) {
	base, _ := p.LastPrice(symbol)
	return p.synth.History(start, end, interval, base), nil
}

func (p *SimulatedProvider) Indices(_ context.Context) (map[string]model.IndexSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drift(p.indices, indexDriftPct)
	out := make(map[string]model.IndexSnapshot, len(p.indices))
	for name, sp := range p.indices {
		change, dir := calculator.PercentChange(sp.Value, sp.PrevClose)
		out[name] = model.IndexSnapshot{Name: name, Value: sp.Value, ChangePercent: change, Direction: dir}
	}
	return out, nil
}

func (p *SimulatedProvider) Search(_ context.Context, query string, limit int) ([]model.SearchResult, error) {
	return p.dir.Search(query, limit), nil
}

// LastPrice reports the current simulated price of a known symbol.
func (p *SimulatedProvider) LastPrice(symbol string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.stocks[strings.ToUpper(symbol)]
	if !ok {
		return 0, false
	}
	return sp.Value, true
}
