package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dreamhome/web/internal/auth"
	"dreamhome/web/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the session lifecycle: Init on every request, Begin on login,
// Teardown on logout.
type Manager struct {
	store      Store
	defaultTTL time.Duration
	jwtSecret  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager creates a Manager. jwtSecret may be empty, see auth.ParseBackendToken.
func NewManager(store Store, defaultTTL time.Duration, jwtSecret string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, defaultTTL: defaultTTL, jwtSecret: jwtSecret, logger: logger, now: time.Now}
}

// Init loads the session for id. Unknown, empty or expired IDs yield a guest
// session; only store failures are returned as errors.
func (m *Manager) Init(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return &Session{}, nil
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return &Session{}, nil
	}
	if err != nil {
		return &Session{}, err
	}
	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn("failed to drop expired session", zap.String("session_id", id), zap.Error(err))
		}
		return &Session{}, nil
	}
	return s, nil
}

// Begin stores a new session for a successful login or registration. The
// expiry follows the token's exp claim, falling back to the default TTL.
func (m *Manager) Begin(ctx context.Context, resp *models.AuthResponse) (*Session, error) {
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("auth response carries no token")
	}

	now := m.now()
	expiresAt := now.Add(m.defaultTTL)
	role := resp.User.Role

	claims, err := auth.ParseBackendToken(resp.Token, m.jwtSecret)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, err
	case err != nil:
		if m.jwtSecret != "" {
			return nil, err
		}
		// Opaque tokens are fine; the backend is the authority.
		m.logger.Debug("backend token is not a readable JWT", zap.Error(err))
	default:
		if exp := claims.Expiry(); !exp.IsZero() {
			expiresAt = exp
		}
		if role == "" && claims.Role != "" {
			role = models.ParseRole(claims.Role)
		}
		if resp.User.ID == 0 {
			resp.User.ID = claims.UserID
		}
	}
	if role == "" {
		role = models.RoleUser
	}

	s := &Session{
		ID:        uuid.NewString(),
		Token:     resp.Token,
		User:      resp.User,
		Role:      role,
		ExpiresAt: expiresAt,
	}
	if err := m.store.Save(ctx, s, expiresAt.Sub(now)); err != nil {
		return nil, err
	}
	m.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("username", s.User.Username),
		zap.String("role", string(s.Role)))
	return s, nil
}

// Teardown removes the session. Missing sessions are not an error.
func (m *Manager) Teardown(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}
