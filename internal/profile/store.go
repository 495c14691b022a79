package profile

import (
	"context"
	"errors"

	"StockLens/internal/model"
)

// ErrNotFound is returned when no profile exists for a uid.
var ErrNotFound = errors.New("profile not found")

// Store persists user profile records keyed by identity-provider uid.
type Store interface {
	// Save writes the whole record, replacing any previous one.
	Save(ctx context.Context, p model.UserProfile) error
	Get(ctx context.Context, uid string) (model.UserProfile, error)
	Close() error
}
