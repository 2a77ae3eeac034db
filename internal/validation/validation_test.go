package validation

import (
	"testing"
	"time"

	"riverside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedToday(t *testing.T) time.Time {
	t.Helper()
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	prev := Today
	Today = func() time.Time { return today }
	t.Cleanup(func() { Today = prev })
	return today
}

func TestValidateDates(t *testing.T) {
	today := fixedToday(t)

	t.Run("BothMissing", func(t *testing.T) {
		res := ValidateDates(time.Time{}, time.Time{})
		assert.False(t, res.IsValid)
		assert.Equal(t, "Check-in date is required", res.Errors["check_in"])
		assert.Equal(t, "Check-out date is required", res.Errors["check_out"])
	})

	t.Run("TodayAndTomorrow", func(t *testing.T) {
		res := ValidateDates(today, today.AddDate(0, 0, 1))
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
	})

	t.Run("CheckInInPast", func(t *testing.T) {
		res := ValidateDates(today.AddDate(0, 0, -1), today.AddDate(0, 0, 1))
		assert.False(t, res.IsValid)
		assert.Equal(t, "Check-in cannot be in the past", res.Errors["check_in"])
		_, hasCheckOut := res.Errors["check_out"]
		assert.False(t, hasCheckOut)
	})

	t.Run("CheckOutNotAfterCheckIn", func(t *testing.T) {
		res := ValidateDates(today.AddDate(0, 0, 2), today.AddDate(0, 0, 2))
		assert.False(t, res.IsValid)
		assert.Equal(t, "Check-out must be after check-in", res.Errors["check_out"])
	})

	t.Run("OrderingSkippedWhenOneMissing", func(t *testing.T) {
		res := ValidateDates(time.Time{}, today.AddDate(0, 0, 1))
		require.False(t, res.IsValid)
		assert.Equal(t, "Check-in date is required", res.Errors["check_in"])
		assert.Len(t, res.Errors, 1)
	})

	t.Run("PastAndInvertedFailBoth", func(t *testing.T) {
		res := ValidateDates(today.AddDate(0, 0, -2), today.AddDate(0, 0, -3))
		assert.False(t, res.IsValid)
		assert.Len(t, res.Errors, 2)
	})
}

func TestValidateGuestInfo(t *testing.T) {
	valid := models.GuestInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1 555 0100",
	}

	t.Run("Valid", func(t *testing.T) {
		res := ValidateGuestInfo(valid)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
	})

	t.Run("AllMissing", func(t *testing.T) {
		res := ValidateGuestInfo(models.GuestInfo{})
		assert.False(t, res.IsValid)
		assert.Equal(t, "First name is required", res.Errors["first_name"])
		assert.Equal(t, "Last name is required", res.Errors["last_name"])
		assert.Equal(t, "Email is required", res.Errors["email"])
		assert.Equal(t, "Phone number is required", res.Errors["phone"])
	})

	t.Run("WhitespaceOnlyIsMissing", func(t *testing.T) {
		info := valid
		info.FirstName = "   "
		res := ValidateGuestInfo(info)
		assert.False(t, res.IsValid)
		assert.Equal(t, "First name is required", res.Errors["first_name"])
	})

	t.Run("MalformedEmail", func(t *testing.T) {
		info := valid
		info.Email = "not-an-email"
		res := ValidateGuestInfo(info)
		assert.False(t, res.IsValid)
		assert.Equal(t, "Invalid email format", res.Errors["email"])
	})

	t.Run("EmailNeedsDottedDomain", func(t *testing.T) {
		info := valid
		info.Email = "ada@localhost"
		res := ValidateGuestInfo(info)
		assert.False(t, res.IsValid)
		assert.Equal(t, "Invalid email format", res.Errors["email"])
	})

	t.Run("SpecialRequestsOptional", func(t *testing.T) {
		info := valid
		info.SpecialRequests = ""
		res := ValidateGuestInfo(info)
		assert.True(t, res.IsValid)
	})
}
