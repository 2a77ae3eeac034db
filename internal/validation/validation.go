package validation

import (
	"regexp"
	"strings"
	"time"

	"riverside/internal/models"
)

// Result carries field-keyed validation messages. Errors only holds keys
// that actually failed; it is returned as data, never as a Go error.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

func newResult(errors map[string]string) Result {
	return Result{IsValid: len(errors) == 0, Errors: errors}
}

// emailPattern accepts the usual local-part@domain shape with at least one
// dot in the domain. Deliberately loose beyond that.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Today returns the current date truncated to midnight UTC. Overridable in
// tests.
var Today = func() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateDates checks presence and ordering of the stay dates. The
// ordering and past-date checks only run when both dates are present.
func ValidateDates(checkIn, checkOut time.Time) Result {
	errors := make(map[string]string)

	if checkIn.IsZero() {
		errors["check_in"] = "Check-in date is required"
	}
	if checkOut.IsZero() {
		errors["check_out"] = "Check-out date is required"
	}

	if !checkIn.IsZero() && !checkOut.IsZero() {
		if checkIn.Before(Today()) {
			errors["check_in"] = "Check-in cannot be in the past"
		}
		if !checkOut.After(checkIn) {
			errors["check_out"] = "Check-out must be after check-in"
		}
	}

	return newResult(errors)
}

// ValidateGuestInfo checks the lead guest's contact fields. A malformed
// email produces a different message than a missing one.
func ValidateGuestInfo(info models.GuestInfo) Result {
	errors := make(map[string]string)

	if strings.TrimSpace(info.FirstName) == "" {
		errors["first_name"] = "First name is required"
	}
	if strings.TrimSpace(info.LastName) == "" {
		errors["last_name"] = "Last name is required"
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		errors["email"] = "Email is required"
	} else if !emailPattern.MatchString(email) {
		errors["email"] = "Invalid email format"
	}

	if strings.TrimSpace(info.Phone) == "" {
		errors["phone"] = "Phone number is required"
	}

	return newResult(errors)
}
