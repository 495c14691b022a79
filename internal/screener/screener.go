package screener

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/provider"
)

// Performance filters.
const (
	PerfAll        = "all"
	PerfPositive   = "positive"
	PerfNegative   = "negative"
	PerfTopGainers = "top_gainers"
	PerfTopLosers  = "top_losers"
)

// topN is how many rows the top_gainers and top_losers filters keep.
const topN = 3

// Criteria narrows the universe. Zero values disable a filter, except
// MaxPrice where zero means no upper bound.
type Criteria struct {
	Query       string
	MinPrice    float64
	MaxPrice    float64
	Sector      string
	MarketCap   CapBucket
	Performance string
}

// SortKey names a sortable column.
type SortKey string

const (
	SortSymbol    SortKey = "symbol"
	SortName      SortKey = "name"
	SortPrice     SortKey = "price"
	SortChange    SortKey = "change"
	SortMarketCap SortKey = "marketCap"
	SortVolume    SortKey = "volume"
)

// Order is an ordering request.
type Order struct {
	Key  SortKey
	Desc bool
}

// Validate rejects unknown filter and sort values.
func (c Criteria) Validate() error {
	switch c.MarketCap {
	case "", CapAll, CapMega, CapLarge, CapMid, CapSmall, CapMicro:
	default:
		return fmt.Errorf("unknown market cap bucket %q", c.MarketCap)
	}
	switch c.Performance {
	case "", PerfAll, PerfPositive, PerfNegative, PerfTopGainers, PerfTopLosers:
	default:
		return fmt.Errorf("unknown performance filter %q", c.Performance)
	}
	if c.MinPrice < 0 || c.MaxPrice < 0 {
		return fmt.Errorf("price bounds must not be negative")
	}
	if c.MaxPrice > 0 && c.MinPrice > c.MaxPrice {
		return fmt.Errorf("min price %.2f above max price %.2f", c.MinPrice, c.MaxPrice)
	}
	return nil
}

// Validate rejects unknown sort keys.
func (o Order) Validate() error {
	switch o.Key {
	case "", SortSymbol, SortName, SortPrice, SortChange, SortMarketCap, SortVolume:
		return nil
	default:
		return fmt.Errorf("unknown sort key %q", o.Key)
	}
}

// Quoter prices a batch of symbols.
type Quoter interface {
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, []provider.Outcome)
}

// Engine screens a fixed universe, repriced on every call.
type Engine struct {
	quoter   Quoter
	universe []model.ScreenerStock
	log      *zap.SugaredLogger
}

// NewEngine creates an Engine over universe, or the default Universe when nil.
func NewEngine(q Quoter, universe []model.ScreenerStock, log *zap.SugaredLogger) *Engine {
	if universe == nil {
		universe = Universe
	}
	return &Engine{quoter: q, universe: universe, log: logger.OrNop(log)}
}

// Screen reprices the universe, filters it and sorts the result.
func (e *Engine) Screen(ctx context.Context, c Criteria, o Order) ([]model.ScreenerStock, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	rows := Filter(e.reprice(ctx), c)
	Sort(rows, o)
	return rows, nil
}

// reprice overlays live quotes on the static universe. Fallback quotes
// leave the static row untouched.
func (e *Engine) reprice(ctx context.Context) []model.ScreenerStock {
	rows := append([]model.ScreenerStock(nil), e.universe...)
	if e.quoter == nil {
		return rows
	}
	symbols := make([]string, len(rows))
	for i, r := range rows {
		symbols[i] = r.Symbol
	}
	quotes, outcomes := e.quoter.Quotes(ctx, symbols)
	repriced := 0
	for i := range rows {
		if i >= len(quotes) || outcomes[i].Fallback() {
			continue
		}
		rows[i].Price = quotes[i].Price
		rows[i].ChangePercent = quotes[i].ChangePercent
		rows[i].Direction = quotes[i].Direction
		repriced++
	}
	e.log.Debugw("screener repriced", "live", repriced, "total", len(rows))
	return rows
}

// Filter returns the rows matching c, in input order.
func Filter(rows []model.ScreenerStock, c Criteria) []model.ScreenerStock {
	q := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]model.ScreenerStock, 0, len(rows))
	for _, r := range rows {
		if q != "" && !strings.Contains(strings.ToLower(r.Symbol), q) && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		if r.Price < c.MinPrice || (c.MaxPrice > 0 && r.Price > c.MaxPrice) {
			continue
		}
		if c.Sector != "" && c.Sector != "all" && r.Sector != c.Sector {
			continue
		}
		if c.MarketCap != "" && c.MarketCap != CapAll && bucketFor(r.MarketCapB) != c.MarketCap {
			continue
		}
		signed := r.Direction.Signed(r.ChangePercent)
		switch c.Performance {
		case PerfPositive, PerfTopGainers:
			if signed <= 0 {
				continue
			}
		case PerfNegative, PerfTopLosers:
			if signed >= 0 {
				continue
			}
		}
		out = append(out, r)
	}

	switch c.Performance {
	case PerfTopGainers:
		out = top(out, true)
	case PerfTopLosers:
		out = top(out, false)
	}
	return out
}

// top keeps the topN largest moves in the given direction.
func top(rows []model.ScreenerStock, gainers bool) []model.ScreenerStock {
	sort.SliceStable(rows, func(i, j int) bool {
		a := rows[i].Direction.Signed(rows[i].ChangePercent)
		b := rows[j].Direction.Signed(rows[j].ChangePercent)
		if gainers {
			return a > b
		}
		return a < b
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

// Sort orders rows in place. Equal keys fall back to symbol order.
func Sort(rows []model.ScreenerStock, o Order) {
	key := o.Key
	if key == "" {
		key = SortSymbol
	}
	compare := func(a, b model.ScreenerStock) int {
		switch key {
		case SortName:
			return strings.Compare(a.Name, b.Name)
		case SortPrice:
			return cmpFloat(a.Price, b.Price)
		case SortChange:
			return cmpFloat(a.Direction.Signed(a.ChangePercent), b.Direction.Signed(b.ChangePercent))
		case SortMarketCap:
			return cmpFloat(a.MarketCapB, b.MarketCapB)
		case SortVolume:
			return cmpFloat(a.VolumeM, b.VolumeM)
		default:
			return strings.Compare(a.Symbol, b.Symbol)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i], rows[j])
		if o.Desc {
			c = -c
		}
		if c == 0 {
			return rows[i].Symbol < rows[j].Symbol
		}
		return c < 0
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
