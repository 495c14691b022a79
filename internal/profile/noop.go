package profile

import (
	"context"

	"StockLens/internal/model"
)

// NoopStore discards profiles. Used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Save(_ context.Context, _ model.UserProfile) error { return nil }
func (n *NoopStore) Get(_ context.Context, _ string) (model.UserProfile, error) {
	return model.UserProfile{}, ErrNotFound
}
func (n *NoopStore) Close() error { return nil }
