package model

// ScreenerStock is one row of the screener universe.
type ScreenerStock struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	Direction     Direction `json:"direction"`
	MarketCapB    float64   `json:"market_cap_b"` // billions USD
	Sector        string    `json:"sector"`
	VolumeM       float64   `json:"volume_m"` // millions of shares
}
