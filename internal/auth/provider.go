package auth

import (
	"context"
	"time"
)

// Session is a signed-in user as seen by the identity provider.
type Session struct {
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// IdentityProvider is the external account service. Sessions are
// identified by their bearer token; many may be active at once.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut ends the session holding token. Unknown tokens yield ErrNoSession.
	SignOut(ctx context.Context, token string) error
	// CreateAccount registers the user and signs them in.
	CreateAccount(ctx context.Context, email, password string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	// Observe calls fn once per active session, then on every change. s is
	// nil when token was signed out. The returned func unsubscribes.
	Observe(fn func(token string, s *Session)) (cancel func())
}
