// Package session is the single typed accessor for the current sign-in
// state. The token and role live under fixed keys in the persistent
// store; no other package reads those keys directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nawaweeb/storefront/pkg/kvstore"
	"github.com/nawaweeb/storefront/pkg/logger"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Session is a snapshot of the current sign-in state.
type Session struct {
	Token string
	Role  string
}

// Authenticated reports whether a usable token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// Manager persists and inspects the session. The client never holds the
// JWT signing secret, so claims are read unverified purely to drop
// tokens that have already expired; the backend remains the authority.
type Manager struct {
	store  kvstore.Store
	logg   *logger.Logger
	parser *jwt.Parser
	now    func() time.Time
}

// NewManager builds a session manager over the given store.
func NewManager(store kvstore.Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager{
		store:  store,
		logg:   logg,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
		now:    time.Now,
	}, nil
}

// Establish stores the token and role after a successful login.
func (m *Manager) Establish(ctx context.Context, token, role string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if role == "" {
		role = RoleUser
	}
	if err := m.store.Set(ctx, kvstore.KeyToken, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := m.store.Set(ctx, kvstore.KeyRole, role); err != nil {
		return fmt.Errorf("storing role: %w", err)
	}
	return nil
}

// Clear removes the token and role, returning the store to guest state.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, kvstore.KeyToken); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	if err := m.store.Delete(ctx, kvstore.KeyRole); err != nil {
		return fmt.Errorf("clearing role: %w", err)
	}
	return nil
}

// Current returns the active session. An absent or expired token yields
// a guest session; storage failures also degrade to guest so the UI is
// never blocked on the state store.
func (m *Manager) Current(ctx context.Context) Session {
	token, err := m.store.Get(ctx, kvstore.KeyToken)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.logg.Warn(ctx, "session store unreadable, treating as guest")
		}
		return Session{}
	}
	if m.expired(token) {
		m.logg.Info(ctx, "stored token expired, treating as guest")
		return Session{}
	}

	role, err := m.store.Get(ctx, kvstore.KeyRole)
	if err != nil {
		role = RoleUser
	}
	return Session{Token: token, Role: role}
}

// Token implements the api.TokenSource surface.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	sess := m.Current(ctx)
	return sess.Token, sess.Authenticated()
}

func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := m.parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens pass through untouched; only well-formed JWTs
		// with an exp claim can be rejected locally.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(m.now())
}
