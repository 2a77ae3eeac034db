package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"riverside/internal/booking"
	"riverside/internal/catalog"
	"riverside/internal/domain"
	"riverside/internal/events"
	"riverside/internal/metrics"
	"riverside/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrExtraNotFound   = errors.New("extra not found")
)

// SessionService owns wizard sessions end to end: it loads snapshots from
// the repository, rebuilds the in-memory session, applies one mutation and
// saves the result. Access is serialized per session id, which is the
// concurrency contract the session itself relies on.
type SessionService struct {
	repo     domain.SessionRepository
	desk     domain.ReservationDesk
	eventBus domain.EventPublisher
	catalog  *catalog.Catalog
	logger   *zerolog.Logger

	locks sync.Map // session id -> *sync.Mutex
}

func NewSessionService(
	repo domain.SessionRepository,
	desk domain.ReservationDesk,
	eventBus domain.EventPublisher,
	cat *catalog.Catalog,
	logger *zerolog.Logger,
) *SessionService {
	return &SessionService{
		repo:     repo,
		desk:     desk,
		eventBus: eventBus,
		catalog:  cat,
		logger:   logger,
	}
}

// CreateSession starts a fresh wizard and persists its snapshot.
func (s *SessionService) CreateSession(ctx context.Context) (*models.SessionSnapshot, error) {
	id := uuid.NewString()
	sess := booking.NewSession(s.desk, s.logger.With().Str("session_id", id).Logger())

	now := time.Now().UTC()
	snapshot := &models.SessionSnapshot{
		ID:        id,
		State:     sess.State(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SetSession(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.publishEvent(events.EventSessionStarted, events.ReservationEventPayload{
		SessionID: id,
		Status:    models.StatusPending,
		At:        now,
	})
	s.logger.Info().Str("session_id", id).Msg("wizard session started")

	return snapshot, nil
}

// GetSession returns the stored snapshot without mutating it.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	snapshot, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session")
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrSessionNotFound
	}
	return snapshot, nil
}

func (s *SessionService) SetDates(ctx context.Context, sessionID string, checkIn, checkOut time.Time) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.SetDates(checkIn, checkOut)
	})
}

func (s *SessionService) SetGuests(ctx context.Context, sessionID string, patch models.GuestsPatch) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.SetGuests(patch)
	})
}

// SelectRoom resolves the room through the catalog so callers deal in ids,
// not payloads they could tamper with.
func (s *SessionService) SelectRoom(ctx context.Context, sessionID, roomID string) (*models.SessionSnapshot, error) {
	room, ok := s.catalog.RoomByID(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.SetRoom(*room)
	})
}

func (s *SessionService) ClearRoom(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.ClearRoom()
	})
}

func (s *SessionService) SetGuestInfo(ctx context.Context, sessionID string, patch models.GuestInfoPatch) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.SetGuestInfo(patch)
	})
}

func (s *SessionService) AddExtra(ctx context.Context, sessionID, extraID string) (*models.SessionSnapshot, error) {
	extra, ok := s.catalog.ExtraByID(extraID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtraNotFound, extraID)
	}
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.AddExtra(*extra)
	})
}

func (s *SessionService) RemoveExtra(ctx context.Context, sessionID, extraID string) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.RemoveExtra(extraID)
	})
}

// Advance moves to the next step. The current step must be complete.
func (s *SessionService) Advance(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		if !sess.CanProceed() {
			return fmt.Errorf("%w: step %d", booking.ErrStepIncomplete, sess.CurrentStep())
		}
		if err := sess.NextStep(); err != nil {
			return err
		}
		metrics.IncWizardStep(fmt.Sprintf("%d", sess.CurrentStep()))
		return nil
	})
}

// Back moves one step back. Going back is never gated.
func (s *SessionService) Back(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		if err := sess.PrevStep(); err != nil {
			return err
		}
		metrics.IncWizardStep(fmt.Sprintf("%d", sess.CurrentStep()))
		return nil
	})
}

// GoToStep jumps to an arbitrary step; the session clamps out-of-range
// targets.
func (s *SessionService) GoToStep(ctx context.Context, sessionID string, step int) (*models.SessionSnapshot, error) {
	return s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		if err := sess.GoToStep(step); err != nil {
			return err
		}
		metrics.IncWizardStep(fmt.Sprintf("%d", sess.CurrentStep()))
		return nil
	})
}

// Confirm submits the reservation to the desk. On success the confirmed
// reservation is published to the event bus; the export worker subscribes
// to that event and queues the record from there.
func (s *SessionService) Confirm(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	var reference string
	snapshot, err := s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		ref, err := sess.Confirm(ctx)
		if err != nil {
			return err
		}
		reference = ref
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, booking.ErrStepIncomplete) {
			metrics.IncDeskFailure()
			s.publishEvent(events.EventReservationFailed, events.ReservationEventPayload{
				SessionID: sessionID,
				Status:    models.StatusPending,
				At:        time.Now().UTC(),
			})
		}
		return snapshot, err
	}

	metrics.IncReservationConfirmed()

	state := snapshot.State
	payload := events.ReservationEventPayload{
		SessionID: sessionID,
		Reference: reference,
		Adults:    state.Guests.Adults,
		Children:  state.Guests.Children,
		GuestName: strings.TrimSpace(state.GuestInfo.FirstName + " " + state.GuestInfo.LastName),
		Total:     state.Pricing.Total,
		Status:    models.StatusConfirmed,
		At:        time.Now().UTC(),
	}
	if state.SelectedRoom != nil {
		payload.RoomID = state.SelectedRoom.ID
		payload.RoomName = state.SelectedRoom.Name
	}
	if !state.CheckIn.IsZero() {
		payload.CheckIn = state.CheckIn.Format(models.DateLayout)
	}
	if !state.CheckOut.IsZero() {
		payload.CheckOut = state.CheckOut.Format(models.DateLayout)
	}
	s.publishEvent(events.EventReservationConfirmed, payload)

	return snapshot, nil
}

// Reset returns the wizard to its defaults while keeping the session alive.
func (s *SessionService) Reset(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	snapshot, err := s.withSession(ctx, sessionID, func(sess *booking.Session) error {
		return sess.Reset()
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventWizardReset, events.ReservationEventPayload{
		SessionID: sessionID,
		Status:    models.StatusPending,
		At:        time.Now().UTC(),
	})
	return snapshot, nil
}

// DeleteSession removes the snapshot from the repository.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.repo.ClearSession(ctx, sessionID)
}

// LookupReservation resolves a confirmed reservation by its reference.
func (s *SessionService) LookupReservation(ctx context.Context, reference string) (*models.Reservation, error) {
	return s.desk.Lookup(ctx, reference)
}

// CheckRateLimit delegates to the repository's fixed-window counter.
func (s *SessionService) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckRateLimit(ctx, clientKey, limit, window)
}

// withSession loads, mutates and saves one session under its lock. The
// updated snapshot is returned even when the mutation fails, so callers can
// render the unchanged state.
func (s *SessionService) withSession(ctx context.Context, sessionID string, fn func(*booking.Session) error) (*models.SessionSnapshot, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session")
		return nil, err
	}
	if stored == nil {
		return nil, ErrSessionNotFound
	}

	sess := booking.Restore(stored.State, s.desk, s.logger.With().Str("session_id", sessionID).Logger())
	mutationErr := fn(sess)

	snapshot := &models.SessionSnapshot{
		ID:        sessionID,
		State:     sess.State(),
		CreatedAt: stored.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.SetSession(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to save session")
		return nil, err
	}

	return snapshot, mutationErr
}

func (s *SessionService) lockFor(sessionID string) *sync.Mutex {
	val, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return val.(*sync.Mutex)
}

func (s *SessionService) publishEvent(eventType string, payload events.ReservationEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("session_id", payload.SessionID).Msg("publish event error")
	}
}

