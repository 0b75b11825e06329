package repository

import (
	"context"
	"sync/atomic"
	"time"

	"hotelsite/internal/domain"
	"hotelsite/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionRepository serves sessions from primary (Redis) and switches
// to fallback (memory) once primary errors. Primary is retried every
// recoveryInterval.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the call should go to primary, allowing one
// probe per recoveryInterval while it is marked down.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	if time.Since(last) <= recoveryInterval {
		return false
	}
	r.lastCheck.Store(time.Now().UnixNano())
	return true
}

func (r *FailoverSessionRepository) primaryFailed(err error) {
	if !r.isDown.Load() {
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	}
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) primaryOK() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session repository recovered")
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			r.primaryOK()
			if session != nil {
				return session, nil
			}
			// sessions created during an outage only exist in memory
			return r.fallback.GetSession(ctx, token)
		}
		r.primaryFailed(err)
	}

	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			r.primaryOK()
			return nil
		}
		r.primaryFailed(err)
	}

	return r.fallback.SaveSession(ctx, session)
}

// DeleteSession removes the token from both stores so a session saved during
// an outage cannot outlive a logout.
func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if r.usePrimary() {
		if err := r.primary.DeleteSession(ctx, token); err != nil {
			r.primaryFailed(err)
		} else {
			r.primaryOK()
		}
	}

	return r.fallback.DeleteSession(ctx, token)
}

func (r *FailoverSessionRepository) DeleteUserSessions(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		if err := r.primary.DeleteUserSessions(ctx, userID); err != nil {
			r.primaryFailed(err)
		} else {
			r.primaryOK()
		}
	}

	return r.fallback.DeleteUserSessions(ctx, userID)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.primaryOK()
			return allowed, nil
		}
		r.primaryFailed(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionRepository) ResetRateLimit(ctx context.Context, key string) error {
	if r.usePrimary() {
		err := r.primary.ResetRateLimit(ctx, key)
		if err == nil {
			r.primaryOK()
			return nil
		}
		r.primaryFailed(err)
	}

	return r.fallback.ResetRateLimit(ctx, key)
}
