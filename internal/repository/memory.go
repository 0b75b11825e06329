package repository

import (
	"context"
	"sync"
	"time"

	"hotelsite/internal/models"
)

type MemorySessionRepository struct {
	sessions   sync.Map
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	now        func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if session.Expired(r.now()) {
		r.sessions.Delete(token)
		return nil, nil
	}
	return session, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.Token, session)
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

func (r *MemorySessionRepository) DeleteUserSessions(ctx context.Context, userID int64) error {
	r.sessions.Range(func(key, value any) bool {
		if value.(*models.Session).UserID == userID {
			r.sessions.Delete(key)
		}
		return true
	})
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemorySessionRepository) ResetRateLimit(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.rateLimits, key)
	r.mu.Unlock()
	return nil
}
