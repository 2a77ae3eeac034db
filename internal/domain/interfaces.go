package domain

import (
	"context"
	"time"

	"riverside/internal/models"
)

type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
	SetSession(ctx context.Context, snapshot *models.SessionSnapshot) error
	ClearSession(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error)
}

type ReservationLedger interface {
	CreateReservationWithLock(ctx context.Context, res *models.Reservation, roomUnits int) (bool, error)
	GetReservationByReference(ctx context.Context, reference string) (*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
}

type ReservationDesk interface {
	Reserve(ctx context.Context, res models.Reservation) (string, error)
	Lookup(ctx context.Context, reference string) (*models.Reservation, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
