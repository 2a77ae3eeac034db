package repository

import (
	"context"
	"sync"
	"time"

	"riverside/internal/models"
)

type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration

	rateMu     sync.Mutex
	rateLimits map[string]*rateLimitEntry
}

type sessionEntry struct {
	snapshot  *models.SessionSnapshot
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:        ttl,
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	val, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(sessionID)
		return nil, nil
	}
	return entry.snapshot, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, snapshot *models.SessionSnapshot) error {
	r.sessions.Store(snapshot.ID, &sessionEntry{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.sessions.Delete(sessionID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// CheckRateLimit counts a request against the key's fixed window. The
// whole load-increment path runs under one lock so concurrent requests
// for the same key cannot lose increments.
func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.rateMu.Lock()
	defer r.rateMu.Unlock()

	entry, ok := r.rateLimits[clientKey]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
		r.rateLimits[clientKey] = entry
		return 1 <= limit, nil
	}

	entry.count++
	return entry.count <= limit, nil
}
