package provider

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// FallbackMode selects how failed quote fetches are substituted.
type FallbackMode string

const (
	FallbackZero     FallbackMode = "zero"
	FallbackSimulate FallbackMode = "simulate"
)

const (
	defaultBasePrice = 100.0

	// driftPerMs is the constant random-walk trend per elapsed millisecond.
	driftPerMs = 1e-11
	// volatility is the width of the symmetric per-step noise band.
	volatility = 0.02
)

// fallbackIndices are served whenever live index data is unavailable.
var fallbackIndices = map[string]model.IndexSnapshot{
	"dow":     {Name: "dow", Value: 39872.14, ChangePercent: 0.68, Direction: model.Up},
	"sp500":   {Name: "sp500", Value: 5321.42, ChangePercent: 0.57, Direction: model.Up},
	"nasdaq":  {Name: "nasdaq", Value: 17584.95, ChangePercent: 0.23, Direction: model.Down},
	"bitcoin": {Name: "bitcoin", Value: 68345.78, ChangePercent: 2.46, Direction: model.Up},
}

// FallbackIndices returns a copy of the fixed fallback index mapping.
func FallbackIndices() map[string]model.IndexSnapshot {
	return model.CloneIndices(fallbackIndices)
}

// Synthesizer produces substitute data. It is safe for concurrent use.
type Synthesizer struct {
	mu   sync.Mutex
	rng  *rand.Rand
	mode FallbackMode
}

// NewSynthesizer creates a Synthesizer with a deterministic seed.
func NewSynthesizer(seed int64, mode FallbackMode) *Synthesizer {
	if mode == "" {
		mode = FallbackZero
	}
	return &Synthesizer{
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		mode: mode,
	}
}

// Mode returns the configured fallback mode.
func (s *Synthesizer) Mode() FallbackMode { return s.mode }

// uniform returns a value in [lo, hi). Callers must hold s.mu.
func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Quote returns a fallback quote. In zero mode prices are zero; in simulate
// mode the price is base (or random in [100, 150) when base is unknown) with
// a random previous close up to 5% away.
func (s *Synthesizer) Quote(symbol string, base float64) model.Quote {
	q := model.Quote{
		Symbol:    symbol,
		ShortName: symbol,
		LongName:  symbol,
		Direction: model.Up,
		FetchedAt: time.Now(),
	}
	if s.mode != FallbackSimulate {
		return q
	}

	s.mu.Lock()
	price := base
	if price <= 0 {
		price = s.uniform(100, 150)
	}
	change := s.uniform(0, 5)
	up := s.rng.Float64() > 0.4
	s.mu.Unlock()

	signed := change
	if !up {
		signed = -change
	}
	q.Price = calculator.RoundCents(price)
	q.PreviousClose = calculator.RoundCents(price / (1 + signed/100))
	q.ChangePercent, q.Direction = calculator.PercentChange(q.Price, q.PreviousClose)
	q.ShortName = symbol + " Inc."
	q.LongName = symbol + " Corporation"
	return q
}

// History generates a random-walk series with one point per interval
// boundary from start through end inclusive, truncated to model.MaxPoints.
// It never returns an empty series: start after end is swapped.
func (s *Synthesizer) History(start, end time.Time, interval model.Interval, base float64) []model.HistoricalPoint {
	if start.After(end) {
		start, end = end, start
	}
	if base <= 0 {
		base = defaultBasePrice
	}
	times := interval.OrDefault().Boundaries(start, end)

	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]model.HistoricalPoint, 0, len(times))
	prev := start
	for _, t := range times {
		elapsedMs := float64(t.Sub(prev).Milliseconds())
		trend := driftPerMs * elapsedMs
		noise := (s.rng.Float64() - 0.5) * volatility

		c := base * (1 + trend + noise)
		o := base * (1 + (s.rng.Float64()-0.5)*0.01)
		high := math.Max(o, c) * (1 + s.rng.Float64()*0.01)
		low := math.Min(o, c) * (1 - s.rng.Float64()*0.01)
		volume := math.Floor(1_000_000 + s.rng.Float64()*9_000_000)

		points = append(points, model.HistoricalPoint{
			Time:   t,
			Open:   calculator.RoundCents(o),
			High:   calculator.RoundCents(high),
			Low:    calculator.RoundCents(low),
			Close:  calculator.RoundCents(c),
			Volume: volume,
		})
		base = c
		prev = t
	}
	return points
}

// Indices returns the fixed fallback index mapping.
func (s *Synthesizer) Indices() map[string]model.IndexSnapshot {
	return FallbackIndices()
}
