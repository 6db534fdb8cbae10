package session

import (
	"context"
	"os"
	"testing"
	"time"

	"dreamhome/web/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backendToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "jdoe", "role": role, "userId": 7, "exp": exp.Unix()}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend"))
	require.NoError(t, err)
	return s
}

func TestSessionFlags(t *testing.T) {
	var guest *Session
	assert.False(t, guest.IsLoggedIn())
	assert.False(t, (&Session{}).IsAdmin())

	admin := &Session{Token: "t", Role: models.RoleAdmin}
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsUser())

	user := &Session{Token: "t", Role: models.RoleUser}
	assert.True(t, user.IsUser())
	assert.False(t, user.IsAdmin())
}

func TestContextTokens(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", ContextTokens{}.Token(ctx))

	ctx = WithSession(ctx, &Session{Token: "abc"})
	assert.Equal(t, "abc", ContextTokens{}.Token(ctx))
}

func TestManager_BeginInitTeardown(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, "", nil)
	ctx := context.Background()

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	s, err := m.Begin(ctx, &models.AuthResponse{
		Token: backendToken(t, "ADMIN", exp),
		User:  models.User{Username: "jdoe"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, models.RoleAdmin, s.Role)
	assert.Equal(t, int64(7), s.User.ID)
	assert.True(t, exp.Equal(s.ExpiresAt))

	loaded, err := m.Init(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsAdmin())
	assert.Equal(t, "jdoe", loaded.User.Username)

	require.NoError(t, m.Teardown(ctx, s.ID))
	loaded, err = m.Init(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsLoggedIn())
}

func TestManager_OpaqueTokenFallsBackToTTL(t *testing.T) {
	m := NewManager(NewMemoryStore(), 2*time.Hour, "", nil)
	before := time.Now()

	s, err := m.Begin(context.Background(), &models.AuthResponse{Token: "opaque", User: models.User{Role: models.RoleUser}})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, s.Role)
	assert.WithinDuration(t, before.Add(2*time.Hour), s.ExpiresAt, 5*time.Second)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, "", nil)
	_, err := m.Begin(context.Background(), &models.AuthResponse{Token: backendToken(t, "USER", time.Now().Add(-time.Minute))})
	assert.Error(t, err)

	_, err = m.Begin(context.Background(), &models.AuthResponse{})
	assert.Error(t, err)
}

func TestManager_ExpiredSessionBecomesGuest(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, "", nil)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{ID: "old", Token: "t", ExpiresAt: time.Now().Add(-time.Second)}, 0))

	s, err := m.Init(ctx, "old")
	require.NoError(t, err)
	assert.False(t, s.IsLoggedIn())

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	store := NewRedisStore(rdb)
	ctx := context.Background()

	s := &Session{ID: "test-" + time.Now().Format("150405.000"), Token: "tok", Role: models.RoleUser}
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
