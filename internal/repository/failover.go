package repository

import (
	"context"
	"sync/atomic"
	"time"

	"riverside/internal/domain"
	"riverside/internal/models"

	"github.com/rs/zerolog"
)

// How long a downgraded primary rests before reads probe it again.
const primaryProbeInterval = time.Minute

// FailoverSessionRepository serves from the primary store until it errors,
// then downgrades to the fallback. While downgraded, reads probe the
// primary at most once per probe interval; a successful probe promotes it
// back.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger

	down      atomic.Bool
	lastProbe atomic.Int64 // unix nanos of the last failed primary call
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	if !r.down.Load() {
		snapshot, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			return snapshot, nil
		}
		r.markDown("get_session", err)
	} else if r.dueForProbe() {
		snapshot, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			r.down.Store(false)
			r.logger.Info().Msg("primary session store recovered")
			return snapshot, nil
		}
		r.lastProbe.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSession(ctx, sessionID)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, snapshot *models.SessionSnapshot) error {
	if !r.down.Load() {
		err := r.primary.SetSession(ctx, snapshot)
		if err == nil {
			return nil
		}
		r.markDown("set_session", err)
	}
	return r.fallback.SetSession(ctx, snapshot)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	if !r.down.Load() {
		err := r.primary.ClearSession(ctx, sessionID)
		if err == nil {
			return nil
		}
		r.markDown("clear_session", err)
	}
	return r.fallback.ClearSession(ctx, sessionID)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	if !r.down.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientKey, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown("check_rate_limit", err)
	}
	return r.fallback.CheckRateLimit(ctx, clientKey, limit, window)
}

func (r *FailoverSessionRepository) markDown(op string, err error) {
	r.logger.Error().Err(err).Str("op", op).Msg("primary session store unavailable, serving from fallback")
	r.down.Store(true)
	r.lastProbe.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) dueForProbe() bool {
	return time.Since(time.Unix(0, r.lastProbe.Load())) > primaryProbeInterval
}
