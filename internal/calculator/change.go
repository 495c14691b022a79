package calculator

import (
	"math"

	"github.com/shopspring/decimal"

	"StockLens/internal/model"
)

// PercentChange returns the unsigned percent move from prev to price and its
// direction. A zero previous close reports no change.
func PercentChange(price, prev float64) (float64, model.Direction) {
	if prev == 0 {
		return 0, model.Up
	}
	signed := (price - prev) / prev * 100
	return RoundCents(math.Abs(signed)), model.DirectionOf(signed)
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Drift applies a relative move expressed in percent.
func Drift(v, pct float64) float64 {
	return RoundCents(v * (1 + pct/100))
}
