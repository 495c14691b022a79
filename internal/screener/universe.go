package screener

import "StockLens/internal/model"

// Universe is the default set of screened stocks. Prices and changes are
// the values shown before the first live repricing.
var Universe = []model.ScreenerStock{
	{Symbol: "AAPL", Name: "Apple Inc.", Price: 187.32, ChangePercent: 1.24, Direction: model.Up, MarketCapB: 2950, Sector: "Technology", VolumeM: 62.4},
	{Symbol: "MSFT", Name: "Microsoft Corp.", Price: 402.56, ChangePercent: 0.76, Direction: model.Down, MarketCapB: 3200, Sector: "Technology", VolumeM: 28.7},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Price: 174.25, ChangePercent: 2.31, Direction: model.Up, MarketCapB: 1800, Sector: "Consumer Cyclical", VolumeM: 45.2},
	{Symbol: "NVDA", Name: "NVIDIA Corp.", Price: 873.38, ChangePercent: 3.87, Direction: model.Up, MarketCapB: 2150, Sector: "Technology", VolumeM: 56.1},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: 164.84, ChangePercent: 0.52, Direction: model.Down, MarketCapB: 2050, Sector: "Communication Services", VolumeM: 22.8},
	{Symbol: "META", Name: "Meta Platforms Inc.", Price: 474.72, ChangePercent: 1.83, Direction: model.Up, MarketCapB: 1220, Sector: "Communication Services", VolumeM: 19.5},
	{Symbol: "TSLA", Name: "Tesla Inc.", Price: 215.39, ChangePercent: 2.17, Direction: model.Down, MarketCapB: 680, Sector: "Consumer Cyclical", VolumeM: 102.3},
	{Symbol: "BRK.B", Name: "Berkshire Hathaway", Price: 406.27, ChangePercent: 0.32, Direction: model.Up, MarketCapB: 890, Sector: "Financial Services", VolumeM: 4.2},
}

// Sectors lists the sector filter values.
var Sectors = []string{
	"Technology", "Financial Services", "Healthcare", "Consumer Cyclical", "Industrials",
	"Communication Services", "Utilities", "Basic Materials", "Energy", "Real Estate",
	"Consumer Defensive",
}

// CapBucket is a market-capitalisation class.
type CapBucket string

const (
	CapAll   CapBucket = "all"
	CapMega  CapBucket = "mega"
	CapLarge CapBucket = "large"
	CapMid   CapBucket = "mid"
	CapSmall CapBucket = "small"
	CapMicro CapBucket = "micro"
)

// bucketFor classifies a market cap given in billions.
func bucketFor(capB float64) CapBucket {
	switch {
	case capB > 200:
		return CapMega
	case capB >= 10:
		return CapLarge
	case capB >= 2:
		return CapMid
	case capB >= 0.3:
		return CapSmall
	default:
		return CapMicro
	}
}
