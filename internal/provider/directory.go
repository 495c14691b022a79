package provider

import (
	"strings"

	"StockLens/internal/model"
)

// Directory is a fixed symbol list used for offline search.
type Directory []model.SearchResult

// DefaultDirectory lists every symbol the simulated market knows about.
var DefaultDirectory = Directory{
	{Symbol: "AAPL", Name: "Apple Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "AMD", Name: "Advanced Micro Devices, Inc.", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "INTC", Name: "Intel Corporation", Type: "Equity", Exchange: "NASDAQ"},
	{Symbol: "BRK.B", Name: "Berkshire Hathaway Inc.", Type: "Equity", Exchange: "NYSE"},
	{Symbol: "SPY", Name: "SPDR S&P 500 ETF", Type: "ETF", Exchange: "NYSE Arca"},
	{Symbol: "QQQ", Name: "Invesco QQQ Trust", Type: "ETF", Exchange: "NASDAQ"},
}

// Search returns the first limit entries whose symbol or name contains query,
// case-insensitively. A non-positive limit means no limit.
func (d Directory) Search(query string, limit int) []model.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.SearchResult{}
	for _, e := range d {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(e.Symbol), q) || strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds a symbol's directory entry.
func (d Directory) Lookup(symbol string) (model.SearchResult, bool) {
	for _, e := range d {
		if strings.EqualFold(e.Symbol, symbol) {
			return e, true
		}
	}
	return model.SearchResult{}, false
}
