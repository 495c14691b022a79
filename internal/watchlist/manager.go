package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/provider"
)

var (
	ErrListNotFound  = errors.New("watchlist not found")
	ErrListExists    = errors.New("watchlist already exists")
	ErrStockNotFound = errors.New("stock not in watchlist")
	ErrStockExists   = errors.New("stock already in watchlist")
	ErrEmptyName     = errors.New("name must not be empty")
)

// Quoter prices a single symbol.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (model.Quote, provider.Outcome)
}

// Manager holds the user's named watchlists in memory. Every mutation
// replaces the affected list wholesale; readers always get copies.
type Manager struct {
	mu     sync.Mutex
	lists  []model.Watchlist
	quoter Quoter
	log    *zap.SugaredLogger
}

// NewManager creates a Manager seeded with the default lists.
func NewManager(q Quoter, log *zap.SugaredLogger) *Manager {
	m := &Manager{quoter: q, log: logger.OrNop(log)}
	for _, w := range defaultLists() {
		m.lists = append(m.lists, w.Clone())
	}
	return m
}

func entry(symbol, name string, price, pct float64, dir model.Direction, fav bool) model.WatchlistEntry {
	return model.WatchlistEntry{
		Symbol: symbol, Name: name, Price: price, ChangePercent: pct,
		Direction: dir, Glyph: model.GlyphFor(symbol), Favorite: fav,
	}
}

func defaultLists() []model.Watchlist {
	aapl := entry("AAPL", "Apple Inc.", 198.45, 1.19, model.Up, false)
	msft := entry("MSFT", "Microsoft Corp.", 417.88, 0.29, model.Down, false)
	googl := entry("GOOGL", "Alphabet Inc.", 172.63, 0.51, model.Up, false)
	amzn := entry("AMZN", "Amazon.com Inc.", 183.95, 1.91, model.Up, true)
	nvda := entry("NVDA", "NVIDIA Corp.", 111.68, 1.87, model.Down, false)

	favAAPL := aapl
	favAAPL.Favorite = true
	return []model.Watchlist{
		{Name: "My Watchlist", Entries: []model.WatchlistEntry{favAAPL, msft, googl, amzn, nvda}},
		{Name: "Tech Giants", Entries: []model.WatchlistEntry{aapl, msft, googl}},
		{Name: "ETFs", Entries: []model.WatchlistEntry{
			entry("SPY", "SPDR S&P 500 ETF", 520.47, 0.24, model.Up, false),
			entry("QQQ", "Invesco QQQ Trust", 437.92, 0.49, model.Up, false),
		}},
	}
}

// index returns the position of the named list. Caller must hold mu.
func (m *Manager) index(name string) int {
	for i, w := range m.lists {
		if w.Name == name {
			return i
		}
	}
	return -1
}

// Lists returns copies of all watchlists in creation order.
func (m *Manager) Lists() []model.Watchlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Watchlist, len(m.lists))
	for i, w := range m.lists {
		out[i] = w.Clone()
	}
	return out
}

// Get returns a copy of the named list.
func (m *Manager) Get(name string) (model.Watchlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(name)
	if i < 0 {
		return model.Watchlist{}, fmt.Errorf("%q: %w", name, ErrListNotFound)
	}
	return m.lists[i].Clone(), nil
}

// Create adds an empty list.
func (m *Manager) Create(name string) (model.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Watchlist{}, ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index(name) >= 0 {
		return model.Watchlist{}, fmt.Errorf("%q: %w", name, ErrListExists)
	}
	w := model.Watchlist{Name: name, Entries: []model.WatchlistEntry{}}
	m.lists = append(m.lists, w)
	m.log.Infow("watchlist created", "name", name)
	return w.Clone(), nil
}

// Rename changes a list's name, keeping its position.
func (m *Manager) Rename(oldName, newName string) (model.Watchlist, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return model.Watchlist{}, ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(oldName)
	if i < 0 {
		return model.Watchlist{}, fmt.Errorf("%q: %w", oldName, ErrListNotFound)
	}
	if newName != oldName && m.index(newName) >= 0 {
		return model.Watchlist{}, fmt.Errorf("%q: %w", newName, ErrListExists)
	}
	w := m.lists[i].Clone()
	w.Name = newName
	m.lists[i] = w
	return w.Clone(), nil
}

// Delete removes a list.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrListNotFound)
	}
	m.lists = append(m.lists[:i:i], m.lists[i+1:]...)
	m.log.Infow("watchlist deleted", "name", name)
	return nil
}

// AddStock prices symbol and appends it to the list. The quote is fetched
// before taking the lock so slow sources do not block readers.
func (m *Manager) AddStock(ctx context.Context, list, symbol string) (model.WatchlistEntry, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.WatchlistEntry{}, ErrEmptyName
	}
	if _, err := m.Get(list); err != nil {
		return model.WatchlistEntry{}, err
	}

	e := model.WatchlistEntry{Symbol: symbol, Name: symbol, Direction: model.Up, Glyph: model.GlyphFor(symbol)}
	if m.quoter != nil {
		q, o := m.quoter.Quote(ctx, symbol)
		e.Name = q.ShortName
		e.Price = q.Price
		e.ChangePercent = q.ChangePercent
		e.Direction = q.Direction
		if o.Fallback() {
			m.log.Warnw("watchlist stock priced from fallback", "symbol", symbol, "reason", o.Reason)
		}
	}
	if e.Name == "" {
		e.Name = symbol
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(list)
	if i < 0 {
		return model.WatchlistEntry{}, fmt.Errorf("%q: %w", list, ErrListNotFound)
	}
	for _, existing := range m.lists[i].Entries {
		if existing.Symbol == symbol {
			return model.WatchlistEntry{}, fmt.Errorf("%s in %q: %w", symbol, list, ErrStockExists)
		}
	}
	w := m.lists[i].Clone()
	w.Entries = append(w.Entries, e)
	m.lists[i] = w
	return e, nil
}

// RemoveStock drops symbol from the list.
func (m *Manager) RemoveStock(list, symbol string) error {
	return m.update(list, symbol, func(w *model.Watchlist, j int) {
		w.Entries = append(w.Entries[:j:j], w.Entries[j+1:]...)
	})
}

// ToggleFavorite flips the favorite flag of symbol and returns the new value.
func (m *Manager) ToggleFavorite(list, symbol string) (bool, error) {
	var fav bool
	err := m.update(list, symbol, func(w *model.Watchlist, j int) {
		w.Entries[j].Favorite = !w.Entries[j].Favorite
		fav = w.Entries[j].Favorite
	})
	return fav, err
}

func (m *Manager) update(list, symbol string, fn func(w *model.Watchlist, j int)) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(list)
	if i < 0 {
		return fmt.Errorf("%q: %w", list, ErrListNotFound)
	}
	w := m.lists[i].Clone()
	for j, e := range w.Entries {
		if e.Symbol == symbol {
			fn(&w, j)
			m.lists[i] = w
			return nil
		}
	}
	return fmt.Errorf("%s in %q: %w", symbol, list, ErrStockNotFound)
}

// View returns the list's entries filtered by text (symbol or name,
// case-insensitive) and sorted by key. An empty key keeps list order.
func (m *Manager) View(list, filter, key string, desc bool) ([]model.WatchlistEntry, error) {
	w, err := m.Get(list)
	if err != nil {
		return nil, err
	}
	compare, err := comparator(key)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(filter))
	out := make([]model.WatchlistEntry, 0, len(w.Entries))
	for _, e := range w.Entries {
		if q == "" || strings.Contains(strings.ToLower(e.Symbol), q) || strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	if compare != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return compare(out[j], out[i])
			}
			return compare(out[i], out[j])
		})
	}
	return out, nil
}

func comparator(key string) (func(a, b model.WatchlistEntry) bool, error) {
	switch key {
	case "":
		return nil, nil
	case "symbol":
		return func(a, b model.WatchlistEntry) bool { return a.Symbol < b.Symbol }, nil
	case "name":
		return func(a, b model.WatchlistEntry) bool { return a.Name < b.Name }, nil
	case "price":
		return func(a, b model.WatchlistEntry) bool { return a.Price < b.Price }, nil
	case "change":
		return func(a, b model.WatchlistEntry) bool {
			return a.Direction.Signed(a.ChangePercent) < b.Direction.Signed(b.ChangePercent)
		}, nil
	case "favorite":
		return func(a, b model.WatchlistEntry) bool { return !a.Favorite && b.Favorite }, nil
	default:
		return nil, fmt.Errorf("unknown sort key %q", key)
	}
}
