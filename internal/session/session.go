// Package session holds the authenticated browser session: the backend token,
// the user it belongs to and the role that drives navigation and guards.
package session

import (
	"context"
	"time"

	"dreamhome/web/internal/models"
)

// Session is the per-browser auth context. A zero Session is a guest.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// IsLoggedIn reports whether the session carries a backend token.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.Token != ""
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s.IsLoggedIn() && s.Role == models.RoleAdmin
}

// IsUser reports whether the session belongs to a regular user.
func (s *Session) IsUser() bool {
	return s.IsLoggedIn() && s.Role != models.RoleAdmin
}

// Expired reports whether the session outlived its token.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx, or a guest session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}

// ContextTokens is the client.TokenSource backed by the request context.
type ContextTokens struct{}

// Token returns the bearer token of the session in ctx.
func (ContextTokens) Token(ctx context.Context) string {
	return FromContext(ctx).Token
}
