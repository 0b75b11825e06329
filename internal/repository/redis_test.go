package repository

import (
	"context"
	"testing"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{
			Token:     "tok-1",
			UserID:    123,
			Email:     "guest@example.com",
			Role:      models.RoleCustomer,
			ExpiresAt: time.Now().Add(30 * time.Minute),
		}

		err := repo.SaveSession(ctx, session)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.UserID, got.UserID)
		assert.Equal(t, session.Email, got.Email)
		assert.True(t, s.Exists("session:tok-1"))
		assert.True(t, s.TTL("session:tok-1") <= 30*time.Minute)
	})

	t.Run("GetUnknownSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SessionExpires", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "short", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)}))
		s.FastForward(2 * time.Minute)

		got, err := repo.GetSession(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("AlreadyExpiredIsNotStored", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}))
		assert.False(t, s.Exists("session:old"))
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "tok-2", UserID: 456}))

		err := repo.DeleteSession(ctx, "tok-2")
		require.NoError(t, err)

		got, _ := repo.GetSession(ctx, "tok-2")
		assert.Nil(t, got)
	})

	t.Run("DeleteUserSessions", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "a", UserID: 7}))
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "b", UserID: 7}))
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "c", UserID: 8}))

		require.NoError(t, repo.DeleteUserSessions(ctx, 7))

		for _, token := range []string{"a", "b"} {
			got, err := repo.GetSession(ctx, token)
			require.NoError(t, err)
			assert.Nil(t, got, token)
		}
		got, err := repo.GetSession(ctx, "c")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.False(t, s.Exists("user_sessions:7"))
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "login:guest@example.com"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		// exceeds limit
		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ResetRateLimit", func(t *testing.T) {
		key := "login:reset@example.com"
		_, _ = repo.CheckRateLimit(ctx, key, 1, time.Minute)
		allowed, _ := repo.CheckRateLimit(ctx, key, 1, time.Minute)
		assert.False(t, allowed)

		require.NoError(t, repo.ResetRateLimit(ctx, key))
		allowed, err := repo.CheckRateLimit(ctx, key, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, "x")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
		assert.Error(t, repo.SaveSession(ctx, &models.Session{Token: "x"}))
		assert.Error(t, repo.DeleteUserSessions(ctx, 1))
	})

	t.Run("ServerDown", func(t *testing.T) {
		broken := NewRedisSessionRepository(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Hour)
		_, err := broken.GetSession(ctx, "x")
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)

		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer func() { _ = Close(down) }()
		err = Ping(ctx, down)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping Redis")
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
		assert.NoError(t, Close(nil))
	})
}
