package model

import "time"

// Direction is the sign of a percent change. Change magnitudes are always
// stored unsigned next to a Direction.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// DirectionOf returns Up for a non-negative signed change and Down otherwise.
func DirectionOf(signed float64) Direction {
	if signed < 0 {
		return Down
	}
	return Up
}

// Signed re-applies the direction to a magnitude.
func (d Direction) Signed(magnitude float64) float64 {
	if d == Down {
		return -magnitude
	}
	return magnitude
}

// Quote is a point-in-time price observation for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	ShortName     string    `json:"short_name"`
	LongName      string    `json:"long_name"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	ChangePercent float64   `json:"change_percent"`
	Direction     Direction `json:"direction"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// HistoricalPoint represents a single OHLCV bar.
type HistoricalPoint struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether every price and the volume are non-negative.
func (p HistoricalPoint) Valid() bool {
	return p.Open >= 0 && p.High >= 0 && p.Low >= 0 && p.Close >= 0 && p.Volume >= 0
}

// IndexSnapshot is the value of a named market index.
type IndexSnapshot struct {
	Name          string    `json:"name"`
	Value         float64   `json:"value"`
	ChangePercent float64   `json:"change_percent"`
	Direction     Direction `json:"direction"`
}

// SearchResult is one symbol directory match.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Exchange string `json:"exchange,omitempty"`
}

// CloneIndices copies an index mapping.
func CloneIndices(in map[string]IndexSnapshot) map[string]IndexSnapshot {
	if in == nil {
		return nil
	}
	out := make(map[string]IndexSnapshot, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
