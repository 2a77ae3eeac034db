package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"riverside/internal/models"
	"riverside/internal/pricing"

	"github.com/rs/zerolog"
)

var (
	// ErrNoSession is returned when a store operation is invoked on a nil
	// session. That is a collaborator defect, not user input.
	ErrNoSession = errors.New("booking session is not initialized")

	// ErrNoAdults rejects a party without at least one adult.
	ErrNoAdults = errors.New("at least one adult is required")

	// ErrOverCapacity rejects a party larger than the selected room allows.
	ErrOverCapacity = errors.New("party exceeds room capacity")

	// ErrRoomUnavailable rejects selecting a room that is not open for booking.
	ErrRoomUnavailable = errors.New("room is not available")

	// ErrStepIncomplete rejects confirmation while earlier steps are invalid.
	ErrStepIncomplete = errors.New("booking steps are incomplete")
)

// Desk is the reservation backend Confirm talks to. The production
// implementation simulates a network round-trip; failures come back as
// typed errors for the caller to retry explicitly.
type Desk interface {
	Reserve(ctx context.Context, res models.Reservation) (string, error)
}

// Session owns the BookingState for one wizard run. It is the only
// mutation point; every accepted mutation recomputes the derived pricing
// before returning, so the breakdown can never drift from its inputs.
//
// A session serves one caller at a time. Callers that share a session
// across goroutines must serialize access themselves (the service layer
// does this per session id).
type Session struct {
	state  models.BookingState
	desk   Desk
	logger zerolog.Logger
}

// NewSession starts a fresh wizard at step 1 with the documented defaults.
func NewSession(desk Desk, logger zerolog.Logger) *Session {
	return &Session{
		state:  initialState(),
		desk:   desk,
		logger: logger,
	}
}

// Restore rebuilds a session around a previously captured snapshot. The
// snapshot's slices and room pointer are copied so in-place mutations
// (RemoveExtra rewrites the extras array) can never reach back into a
// state the caller still holds.
func Restore(state models.BookingState, desk Desk, logger zerolog.Logger) *Session {
	if state.CurrentStep < models.StepDatesGuests || state.CurrentStep > models.TotalSteps {
		state.CurrentStep = models.StepDatesGuests
	}
	if state.Status == "" {
		state.Status = models.StatusPending
	}
	state.Extras = append([]models.Extra(nil), state.Extras...)
	if state.SelectedRoom != nil {
		room := *state.SelectedRoom
		state.SelectedRoom = &room
	}
	s := &Session{state: state, desk: desk, logger: logger}
	s.recalculate()
	return s
}

func initialState() models.BookingState {
	return models.BookingState{
		CurrentStep: models.StepDatesGuests,
		Guests: models.Guests{
			Adults:   models.DefaultAdults,
			Children: models.DefaultChildren,
		},
		Status: models.StatusPending,
	}
}

// State returns a snapshot of the current state. Slices are copied so the
// caller cannot reach back into the store.
func (s *Session) State() models.BookingState {
	snapshot := s.state
	if s.state.SelectedRoom != nil {
		room := *s.state.SelectedRoom
		snapshot.SelectedRoom = &room
	}
	snapshot.Extras = append([]models.Extra(nil), s.state.Extras...)
	return snapshot
}

// recalculate enforces the pricing invariant. Calculate treats a missing
// room or date as the zero breakdown, so an unconditional recompute is
// always correct.
func (s *Session) recalculate() {
	s.state.Pricing = pricing.Calculate(s.state.SelectedRoom, s.state.CheckIn, s.state.CheckOut, s.state.Extras)
}

// SetDates replaces both stay dates. Validity of the range is the
// validator's concern; the store only keeps pricing consistent.
func (s *Session) SetDates(checkIn, checkOut time.Time) error {
	if s == nil {
		return ErrNoSession
	}
	s.state.CheckIn = truncateToDay(checkIn)
	s.state.CheckOut = truncateToDay(checkOut)
	s.recalculate()
	return nil
}

// SetGuests merges a partial party update. Adults below one and parties
// above the selected room's capacity are rejected without applying
// anything.
func (s *Session) SetGuests(patch models.GuestsPatch) error {
	if s == nil {
		return ErrNoSession
	}

	next := s.state.Guests
	if patch.Adults != nil {
		next.Adults = *patch.Adults
	}
	if patch.Children != nil {
		next.Children = *patch.Children
	}

	if next.Adults < 1 {
		return ErrNoAdults
	}
	if next.Children < 0 {
		return fmt.Errorf("invalid children count %d", next.Children)
	}
	if room := s.state.SelectedRoom; room != nil && next.Total() > room.MaxGuests {
		return fmt.Errorf("%w: %d guests, room sleeps %d", ErrOverCapacity, next.Total(), room.MaxGuests)
	}

	s.state.Guests = next
	return nil
}

// SetRoom replaces the selected room. The room must be open for booking
// and large enough for the party already chosen on step 1.
func (s *Session) SetRoom(room models.Room) error {
	if s == nil {
		return ErrNoSession
	}
	if !room.Available {
		return fmt.Errorf("%w: %s", ErrRoomUnavailable, room.ID)
	}
	if s.state.Guests.Total() > room.MaxGuests {
		return fmt.Errorf("%w: %d guests, room sleeps %d", ErrOverCapacity, s.state.Guests.Total(), room.MaxGuests)
	}

	selected := room
	s.state.SelectedRoom = &selected
	s.recalculate()
	return nil
}

// ClearRoom drops the room selection, returning pricing to the zero
// breakdown.
func (s *Session) ClearRoom() error {
	if s == nil {
		return ErrNoSession
	}
	s.state.SelectedRoom = nil
	s.recalculate()
	return nil
}

// SetGuestInfo merges a partial contact-details update. No validation
// happens here; the caller runs the validator separately.
func (s *Session) SetGuestInfo(patch models.GuestInfoPatch) error {
	if s == nil {
		return ErrNoSession
	}
	info := &s.state.GuestInfo
	if patch.FirstName != nil {
		info.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		info.LastName = *patch.LastName
	}
	if patch.Email != nil {
		info.Email = *patch.Email
	}
	if patch.Phone != nil {
		info.Phone = *patch.Phone
	}
	if patch.SpecialRequests != nil {
		info.SpecialRequests = *patch.SpecialRequests
	}
	return nil
}

// AddExtra appends an extra, keeping insertion order for display.
// Adding an extra that is already selected is a no-op.
func (s *Session) AddExtra(extra models.Extra) error {
	if s == nil {
		return ErrNoSession
	}
	for _, existing := range s.state.Extras {
		if existing.ID == extra.ID {
			return nil
		}
	}
	s.state.Extras = append(s.state.Extras, extra)
	s.recalculate()
	return nil
}

// RemoveExtra drops the extra with the given id; unknown ids are ignored.
func (s *Session) RemoveExtra(extraID string) error {
	if s == nil {
		return ErrNoSession
	}
	kept := s.state.Extras[:0]
	for _, extra := range s.state.Extras {
		if extra.ID != extraID {
			kept = append(kept, extra)
		}
	}
	s.state.Extras = kept
	s.recalculate()
	return nil
}

// GoToStep jumps to a step, clamped to the wizard bounds. Step validity
// gating stays with the caller via CanProceed/IsStepValid.
func (s *Session) GoToStep(step int) error {
	if s == nil {
		return ErrNoSession
	}
	if step < models.StepDatesGuests {
		step = models.StepDatesGuests
	}
	if step > models.TotalSteps {
		step = models.TotalSteps
	}
	s.state.CurrentStep = step
	return nil
}

// NextStep advances one step, clamped at the confirmation step.
func (s *Session) NextStep() error {
	if s == nil {
		return ErrNoSession
	}
	return s.GoToStep(s.state.CurrentStep + 1)
}

// PrevStep goes back one step, clamped at step 1.
func (s *Session) PrevStep() error {
	if s == nil {
		return ErrNoSession
	}
	return s.GoToStep(s.state.CurrentStep - 1)
}

// Confirm submits the reservation to the desk and waits for the
// round-trip. IsLoading is observable as true for the duration. On desk
// failure the state stays pending with IsLoading false so the caller can
// retry explicitly; the store never retries on its own.
func (s *Session) Confirm(ctx context.Context) (string, error) {
	if s == nil {
		return "", ErrNoSession
	}
	for step := models.StepDatesGuests; step <= models.StepGuestInfo; step++ {
		if !s.IsStepValid(step) {
			return "", fmt.Errorf("%w: step %d", ErrStepIncomplete, step)
		}
	}

	s.state.IsLoading = true
	defer func() { s.state.IsLoading = false }()

	reference, err := s.desk.Reserve(ctx, s.reservation())
	if err != nil {
		s.logger.Error().Err(err).Msg("reservation desk rejected booking")
		return "", err
	}

	s.state.BookingID = reference
	s.state.Status = models.StatusConfirmed

	s.logger.Info().
		Str("booking_id", reference).
		Str("room_id", s.state.SelectedRoom.ID).
		Int("nights", s.state.Pricing.Nights).
		Float64("total", s.state.Pricing.Total).
		Msg("booking confirmed")

	return reference, nil
}

// Reset restores every field to the documented defaults.
func (s *Session) Reset() error {
	if s == nil {
		return ErrNoSession
	}
	s.state = initialState()
	return nil
}

func (s *Session) reservation() models.Reservation {
	info := s.state.GuestInfo
	return models.Reservation{
		RoomID:    s.state.SelectedRoom.ID,
		RoomName:  s.state.SelectedRoom.Name,
		CheckIn:   s.state.CheckIn,
		CheckOut:  s.state.CheckOut,
		Adults:    s.state.Guests.Adults,
		Children:  s.state.Guests.Children,
		GuestName: strings.TrimSpace(info.FirstName + " " + info.LastName),
		Email:     info.Email,
		Phone:     info.Phone,
		Comment:   info.SpecialRequests,
		Total:     s.state.Pricing.Total,
		Status:    models.StatusConfirmed,
	}
}

func truncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
