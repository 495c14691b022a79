package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/profile"
)

// SignUpRequest carries the registration form.
type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Accounts ties the identity provider to the profile store and tracks the
// active sessions by token.
type Accounts struct {
	idp      IdentityProvider
	profiles profile.Store
	log      *zap.SugaredLogger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	cancel   func()
}

// NewAccounts subscribes to idp's session stream.
func NewAccounts(idp IdentityProvider, profiles profile.Store, log *zap.SugaredLogger) *Accounts {
	if profiles == nil {
		profiles = profile.NewNoopStore()
	}
	a := &Accounts{
		idp:      idp,
		profiles: profiles,
		log:      logger.OrNop(log),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	a.cancel = idp.Observe(a.track)
	return a
}

func (a *Accounts) track(token string, s *Session) {
	a.mu.Lock()
	if s == nil {
		delete(a.sessions, token)
	} else {
		a.sessions[token] = s
	}
	a.mu.Unlock()
	if s == nil {
		a.log.Debug("session ended")
		return
	}
	a.log.Debugw("session started", "uid", s.UID)
}

// Current returns the session holding token, or nil.
func (a *Accounts) Current(token string) *Session {
	if token == "" {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copySession(a.sessions[token])
}

// Close stops observing the identity provider.
func (a *Accounts) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

// SignUp creates the account and writes its profile record. A profile
// write failure is returned but leaves the account in place.
func (a *Accounts) SignUp(ctx context.Context, req SignUpRequest) (*Session, model.UserProfile, error) {
	if req.Password != req.ConfirmPassword {
		return nil, model.UserProfile{}, ErrPasswordMismatch
	}
	sess, err := a.idp.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		a.log.Infow("sign-up rejected", "email", req.Email, "error", err)
		return nil, model.UserProfile{}, err
	}

	p := model.UserProfile{
		UID:       sess.UID,
		Name:      strings.TrimSpace(req.Name),
		Email:     sess.Email,
		CreatedAt: a.now().UTC(),
	}
	if err := a.profiles.Save(ctx, p); err != nil {
		a.log.Errorw("save profile failed", "uid", sess.UID, "error", err)
		return sess, p, fmt.Errorf("save profile: %w", err)
	}
	a.log.Infow("account created", "uid", sess.UID)
	return sess, p, nil
}

func (a *Accounts) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := a.idp.SignIn(ctx, email, password)
	if err != nil {
		a.log.Infow("sign-in rejected", "email", email, "error", err)
		return nil, err
	}
	return sess, nil
}

// SignOut ends the session holding token. Errors are logged and reported as
// false, leaving the session as it was.
func (a *Accounts) SignOut(ctx context.Context, token string) bool {
	if err := a.idp.SignOut(ctx, token); err != nil {
		a.log.Infow("sign-out failed", "error", err)
		return false
	}
	return true
}

func (a *Accounts) ResetPassword(ctx context.Context, email string) error {
	if err := a.idp.SendPasswordReset(ctx, email); err != nil {
		a.log.Infow("password reset rejected", "email", email, "error", err)
		return err
	}
	return nil
}

// Profile returns the stored profile for uid.
func (a *Accounts) Profile(ctx context.Context, uid string) (model.UserProfile, error) {
	return a.profiles.Get(ctx, uid)
}
