package model

// WatchlistEntry is a symbol the user is tracking.
type WatchlistEntry struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	Direction     Direction `json:"direction"`
	Glyph         string    `json:"glyph"`
	Favorite      bool      `json:"favorite"`
}

// Watchlist is a named, ordered set of entries.
type Watchlist struct {
	Name    string           `json:"name"`
	Entries []WatchlistEntry `json:"entries"`
}

// Clone returns a deep copy.
func (w Watchlist) Clone() Watchlist {
	return Watchlist{Name: w.Name, Entries: append([]WatchlistEntry(nil), w.Entries...)}
}

// GlyphFor returns the display glyph of a symbol (its first character).
func GlyphFor(symbol string) string {
	if symbol == "" {
		return ""
	}
	return symbol[:1]
}
