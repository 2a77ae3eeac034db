package booking

import (
	"strings"
	"time"

	"riverside/internal/models"
	"riverside/internal/validation"
)

// Computed queries. These re-derive from the current state on every call
// and never mutate anything.

// TotalGuests returns the full party size.
func (s *Session) TotalGuests() int {
	return s.state.Guests.Total()
}

// CurrentStep returns the wizard position.
func (s *Session) CurrentStep() int {
	return s.state.CurrentStep
}

// IsStepValid reports whether a given step's requirements are met:
// step 1 needs both dates and at least one adult, step 2 a selected room,
// step 3 the four required contact fields, step 4 is always valid.
func (s *Session) IsStepValid(step int) bool {
	switch step {
	case models.StepDatesGuests:
		return !s.state.CheckIn.IsZero() && !s.state.CheckOut.IsZero() && s.state.Guests.Adults > 0
	case models.StepRoomSelection:
		return s.state.SelectedRoom != nil
	case models.StepGuestInfo:
		info := s.state.GuestInfo
		return strings.TrimSpace(info.FirstName) != "" &&
			strings.TrimSpace(info.LastName) != "" &&
			strings.TrimSpace(info.Email) != "" &&
			strings.TrimSpace(info.Phone) != ""
	case models.StepConfirmation:
		return true
	default:
		return false
	}
}

// CanProceed reports whether the current step allows moving forward.
// The store does not enforce this on navigation; it is the caller's gate.
func (s *Session) CanProceed() bool {
	return s.IsStepValid(s.state.CurrentStep)
}

// StepValidity returns per-step validity for rendering the progress bar.
func (s *Session) StepValidity() map[int]bool {
	validity := make(map[int]bool, models.TotalSteps)
	for step := models.StepDatesGuests; step <= models.TotalSteps; step++ {
		validity[step] = s.IsStepValid(step)
	}
	return validity
}

// ValidateDates runs the date validator against the session's dates.
func (s *Session) ValidateDates() validation.Result {
	return validation.ValidateDates(s.state.CheckIn, s.state.CheckOut)
}

// ValidateGuestInfo runs the guest-info validator against the session's
// contact details.
func (s *Session) ValidateGuestInfo() validation.Result {
	return validation.ValidateGuestInfo(s.state.GuestInfo)
}

// FormattedCheckIn renders the check-in date for display, empty when the
// date is not set. Display only; comparisons always use the raw dates.
func (s *Session) FormattedCheckIn() string {
	return FormatDate(s.state.CheckIn)
}

// FormattedCheckOut renders the check-out date for display.
func (s *Session) FormattedCheckOut() string {
	return FormatDate(s.state.CheckOut)
}

// FormatDate renders a date the way the site shows it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DisplayDateLayout)
}

// MinCheckInDate is the earliest selectable check-in (today).
func MinCheckInDate() time.Time {
	return validation.Today()
}

// MinCheckOutDate is the earliest selectable check-out: the day after
// check-in, or today when no check-in is set yet.
func MinCheckOutDate(checkIn time.Time) time.Time {
	if checkIn.IsZero() {
		return validation.Today()
	}
	return checkIn.AddDate(0, 0, 1)
}
