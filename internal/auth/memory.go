package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	maxFailures    = 5
)

type account struct {
	uid      string
	hash     []byte
	failures int
}

// MemoryProvider is an in-process IdentityProvider for local runs and tests.
type MemoryProvider struct {
	mu        sync.Mutex
	accounts  map[string]*account // by lower-cased email
	sessions  map[string]*Session // by token
	observers map[int]func(string, *Session)
	nextObs   int
	resets    []string
	cost      int
}

// MemoryOption configures a MemoryProvider.
type MemoryOption func(*MemoryProvider)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) MemoryOption {
	return func(m *MemoryProvider) { m.cost = cost }
}

// NewMemoryProvider creates an empty provider hashing at bcrypt.DefaultCost.
func NewMemoryProvider(opts ...MemoryOption) *MemoryProvider {
	m := &MemoryProvider{
		accounts:  make(map[string]*account),
		sessions:  make(map[string]*Session),
		observers: make(map[int]func(string, *Session)),
		cost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", providerErr(CodeInvalidEmail, "The email address is badly formatted.")
	}
	return strings.ToLower(email), nil
}

func (m *MemoryProvider) CreateAccount(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, providerErr(CodeNetworkFailed, err.Error())
	}
	key, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, providerErr(CodeWeakPassword, "Password should be at least 6 characters.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, providerErr(CodeWeakPassword, err.Error())
	}

	m.mu.Lock()
	if _, ok := m.accounts[key]; ok {
		m.mu.Unlock()
		return nil, providerErr(CodeEmailInUse, "The email address is already in use by another account.")
	}
	acc := &account{uid: uuid.NewString(), hash: hash}
	m.accounts[key] = acc
	sess := m.signInLocked(acc, key)
	m.mu.Unlock()

	m.notify(sess.Token, sess)
	return sess, nil
}

func (m *MemoryProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, providerErr(CodeNetworkFailed, err.Error())
	}
	key, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	acc, ok := m.accounts[key]
	if !ok {
		m.mu.Unlock()
		return nil, providerErr(CodeUserNotFound, "There is no user record corresponding to this identifier.")
	}
	if acc.failures >= maxFailures {
		m.mu.Unlock()
		return nil, providerErr(CodeTooManyRequests, "Access to this account has been temporarily disabled due to many failed login attempts.")
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		acc.failures++
		m.mu.Unlock()
		return nil, providerErr(CodeWrongPassword, "The password is invalid.")
	}
	acc.failures = 0
	sess := m.signInLocked(acc, key)
	m.mu.Unlock()

	m.notify(sess.Token, sess)
	return sess, nil
}

func (m *MemoryProvider) signInLocked(acc *account, email string) *Session {
	s := &Session{
		UID:      acc.uid,
		Email:    email,
		Token:    uuid.NewString(),
		IssuedAt: time.Now().UTC(),
	}
	m.sessions[s.Token] = s
	return copySession(s)
}

func (m *MemoryProvider) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	if _, ok := m.sessions[token]; !ok {
		m.mu.Unlock()
		return ErrNoSession
	}
	delete(m.sessions, token)
	m.mu.Unlock()
	m.notify(token, nil)
	return nil
}

func (m *MemoryProvider) SendPasswordReset(ctx context.Context, email string) error {
	key, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[key]; !ok {
		return providerErr(CodeUserNotFound, "There is no user record corresponding to this identifier.")
	}
	m.resets = append(m.resets, key)
	return nil
}

// SentResets lists the addresses a reset was requested for, oldest first.
func (m *MemoryProvider) SentResets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resets...)
}

func (m *MemoryProvider) Observe(fn func(token string, s *Session)) (cancel func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	active := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, copySession(s))
	}
	m.mu.Unlock()

	for _, s := range active {
		fn(s.Token, s)
	}
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// notify runs observers outside the lock so they may call back into m.
func (m *MemoryProvider) notify(token string, s *Session) {
	m.mu.Lock()
	fns := make([]func(string, *Session), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(token, copySession(s))
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
