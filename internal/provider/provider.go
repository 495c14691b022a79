package provider

import (
	"context"
	"time"

	"StockLens/internal/model"
)

// Provider is a raw market-data source. Implementations report failures as
// errors; Service turns them into fallback data.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, error)
	History(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.HistoricalPoint, error)
	Indices(ctx context.Context) (map[string]model.IndexSnapshot, error)
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// PriceHinter is implemented by providers that can seed synthetic history
// with a last-known price.
type PriceHinter interface {
	LastPrice(symbol string) (float64, bool)
}
