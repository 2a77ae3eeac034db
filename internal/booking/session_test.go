package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"riverside/internal/models"
	"riverside/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDesk struct {
	calls   int
	err     error
	observe func()
}

func (d *fakeDesk) Reserve(ctx context.Context, res models.Reservation) (string, error) {
	d.calls++
	if d.observe != nil {
		d.observe()
	}
	if d.err != nil {
		return "", d.err
	}
	return fmt.Sprintf("RS-TEST%04d", d.calls), nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func deluxeRoom() models.Room {
	return models.Room{
		ID: "deluxe-river", Slug: "deluxe-river-view", Name: "Deluxe River View",
		Price: 249, MaxGuests: 2, Available: true,
	}
}

func readySession(t *testing.T, desk *fakeDesk) *Session {
	t.Helper()
	s := NewSession(desk, testLogger())
	require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
	require.NoError(t, s.SetRoom(deluxeRoom()))
	first, last := "Ada", "Lovelace"
	email, phone := "ada@example.com", "+1 555 0100"
	require.NoError(t, s.SetGuestInfo(models.GuestInfoPatch{
		FirstName: &first, LastName: &last, Email: &email, Phone: &phone,
	}))
	return s
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(&fakeDesk{}, testLogger())
	state := s.State()

	assert.Equal(t, models.StepDatesGuests, state.CurrentStep)
	assert.True(t, state.CheckIn.IsZero())
	assert.True(t, state.CheckOut.IsZero())
	assert.Equal(t, models.Guests{Adults: 2, Children: 0}, state.Guests)
	assert.Nil(t, state.SelectedRoom)
	assert.Empty(t, state.Extras)
	assert.Equal(t, models.PricingBreakdown{}, state.Pricing)
	assert.Empty(t, state.BookingID)
	assert.Equal(t, models.StatusPending, state.Status)
	assert.False(t, state.IsLoading)
}

func TestNilSessionIsUsageError(t *testing.T) {
	var s *Session
	assert.ErrorIs(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)), ErrNoSession)
	assert.ErrorIs(t, s.SetGuests(models.GuestsPatch{}), ErrNoSession)
	assert.ErrorIs(t, s.SetRoom(deluxeRoom()), ErrNoSession)
	assert.ErrorIs(t, s.AddExtra(models.Extra{ID: "breakfast"}), ErrNoSession)
	assert.ErrorIs(t, s.NextStep(), ErrNoSession)
	assert.ErrorIs(t, s.Reset(), ErrNoSession)
	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSetDatesRecomputesPricing(t *testing.T) {
	s := NewSession(&fakeDesk{}, testLogger())

	t.Run("NoRoomYieldsZeroBreakdown", func(t *testing.T) {
		require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
		assert.Equal(t, models.PricingBreakdown{}, s.State().Pricing)
	})

	t.Run("WithRoom", func(t *testing.T) {
		require.NoError(t, s.SetRoom(deluxeRoom()))
		got := s.State().Pricing
		assert.Equal(t, 3, got.Nights)
		assert.Equal(t, float64(747), got.RoomTotal)
		assert.Equal(t, 873.99, got.Total)
	})

	t.Run("Idempotent", func(t *testing.T) {
		before := s.State().Pricing
		require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
		require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
		assert.Equal(t, before, s.State().Pricing)
	})

	t.Run("TimeOfDayIsDropped", func(t *testing.T) {
		in := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
		out := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.SetDates(in, out))
		state := s.State()
		assert.Equal(t, date(2025, 6, 1), state.CheckIn)
		assert.Equal(t, 3, state.Pricing.Nights)
	})

	t.Run("ClearingDatesZeroesPricing", func(t *testing.T) {
		require.NoError(t, s.SetDates(time.Time{}, time.Time{}))
		assert.Equal(t, models.PricingBreakdown{}, s.State().Pricing)
	})
}

func TestSetGuests(t *testing.T) {
	t.Run("PartialMerge", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		children := 1
		require.NoError(t, s.SetGuests(models.GuestsPatch{Children: &children}))
		assert.Equal(t, models.Guests{Adults: 2, Children: 1}, s.State().Guests)
		assert.Equal(t, 3, s.TotalGuests())
	})

	t.Run("RejectsZeroAdults", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		zero := 0
		err := s.SetGuests(models.GuestsPatch{Adults: &zero})
		assert.ErrorIs(t, err, ErrNoAdults)
		assert.Equal(t, 2, s.State().Guests.Adults)
	})

	t.Run("RejectsOverCapacityWhenRoomSelected", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
		require.NoError(t, s.SetRoom(deluxeRoom()))

		three := 3
		err := s.SetGuests(models.GuestsPatch{Adults: &three})
		assert.ErrorIs(t, err, ErrOverCapacity)
		assert.Equal(t, 2, s.State().Guests.Adults)
	})

	t.Run("RejectsNegativeChildren", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		minus := -1
		assert.Error(t, s.SetGuests(models.GuestsPatch{Children: &minus}))
	})
}

func TestSetRoom(t *testing.T) {
	t.Run("RejectsUnavailableRoom", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		room := deluxeRoom()
		room.Available = false
		assert.ErrorIs(t, s.SetRoom(room), ErrRoomUnavailable)
		assert.Nil(t, s.State().SelectedRoom)
	})

	t.Run("RejectsRoomTooSmallForParty", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		adults, children := 2, 2
		require.NoError(t, s.SetGuests(models.GuestsPatch{Adults: &adults, Children: &children}))
		assert.ErrorIs(t, s.SetRoom(deluxeRoom()), ErrOverCapacity)
	})

	t.Run("StoresACopy", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		room := deluxeRoom()
		require.NoError(t, s.SetRoom(room))
		room.Price = 1
		assert.Equal(t, float64(249), s.State().SelectedRoom.Price)
	})

	t.Run("ClearRoomZeroesPricing", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
		require.NoError(t, s.SetRoom(deluxeRoom()))
		require.NotZero(t, s.State().Pricing.Total)

		require.NoError(t, s.ClearRoom())
		assert.Equal(t, models.PricingBreakdown{}, s.State().Pricing)
	})
}

func TestExtras(t *testing.T) {
	breakfast := models.Extra{ID: "breakfast", Name: "Daily Breakfast", PricePerNight: 25, PriceType: models.PriceTypePerNight}
	transfer := models.Extra{ID: "airport-transfer", Name: "Airport Transfer", PricePerNight: 75, PriceType: models.PriceTypeOneTime}

	t.Run("InsertionOrderKept", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		require.NoError(t, s.AddExtra(transfer))
		require.NoError(t, s.AddExtra(breakfast))
		extras := s.State().Extras
		require.Len(t, extras, 2)
		assert.Equal(t, "airport-transfer", extras[0].ID)
		assert.Equal(t, "breakfast", extras[1].ID)
	})

	t.Run("DuplicateAddIsNoOp", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		require.NoError(t, s.AddExtra(breakfast))
		require.NoError(t, s.AddExtra(breakfast))
		assert.Len(t, s.State().Extras, 1)
	})

	t.Run("PricingFollowsExtras", func(t *testing.T) {
		s := readySession(t, &fakeDesk{})
		require.NoError(t, s.AddExtra(breakfast))
		assert.Equal(t, float64(75), s.State().Pricing.ExtrasTotal)

		require.NoError(t, s.AddExtra(transfer))
		assert.Equal(t, float64(150), s.State().Pricing.ExtrasTotal)

		require.NoError(t, s.RemoveExtra("breakfast"))
		assert.Equal(t, float64(75), s.State().Pricing.ExtrasTotal)
	})

	t.Run("RemoveUnknownIsNoOp", func(t *testing.T) {
		s := NewSession(&fakeDesk{}, testLogger())
		require.NoError(t, s.AddExtra(breakfast))
		require.NoError(t, s.RemoveExtra("spa-credit"))
		assert.Len(t, s.State().Extras, 1)
	})
}

func TestStepNavigation(t *testing.T) {
	s := NewSession(&fakeDesk{}, testLogger())

	require.NoError(t, s.NextStep())
	assert.Equal(t, 2, s.CurrentStep())

	require.NoError(t, s.GoToStep(99))
	assert.Equal(t, models.TotalSteps, s.CurrentStep())

	require.NoError(t, s.NextStep())
	assert.Equal(t, models.TotalSteps, s.CurrentStep())

	require.NoError(t, s.GoToStep(-3))
	assert.Equal(t, 1, s.CurrentStep())

	require.NoError(t, s.PrevStep())
	assert.Equal(t, 1, s.CurrentStep())
}

func TestStepValidity(t *testing.T) {
	s := NewSession(&fakeDesk{}, testLogger())

	assert.False(t, s.IsStepValid(models.StepDatesGuests))
	assert.False(t, s.IsStepValid(models.StepRoomSelection))
	assert.False(t, s.IsStepValid(models.StepGuestInfo))
	assert.True(t, s.IsStepValid(models.StepConfirmation))
	assert.False(t, s.IsStepValid(0))
	assert.False(t, s.CanProceed())

	require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
	assert.True(t, s.IsStepValid(models.StepDatesGuests))
	assert.True(t, s.CanProceed())

	require.NoError(t, s.SetRoom(deluxeRoom()))
	assert.True(t, s.IsStepValid(models.StepRoomSelection))

	first, last := "Ada", "Lovelace"
	email, phone := "ada@example.com", "+1 555 0100"
	require.NoError(t, s.SetGuestInfo(models.GuestInfoPatch{
		FirstName: &first, LastName: &last, Email: &email, Phone: &phone,
	}))
	assert.True(t, s.IsStepValid(models.StepGuestInfo))

	validity := s.StepValidity()
	for step := 1; step <= models.TotalSteps; step++ {
		assert.True(t, validity[step], "step %d", step)
	}
}

func TestFormattedDates(t *testing.T) {
	s := NewSession(&fakeDesk{}, testLogger())
	assert.Empty(t, s.FormattedCheckIn())
	assert.Empty(t, s.FormattedCheckOut())

	require.NoError(t, s.SetDates(date(2025, 6, 1), date(2025, 6, 4)))
	assert.Equal(t, "Sun, Jun 1, 2025", s.FormattedCheckIn())
	assert.Equal(t, "Wed, Jun 4, 2025", s.FormattedCheckOut())
}

func TestConfirm(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		desk := &fakeDesk{}
		s := readySession(t, desk)

		var loadingDuringRoundTrip bool
		desk.observe = func() { loadingDuringRoundTrip = s.State().IsLoading }

		ref, err := s.Confirm(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, ref)
		assert.True(t, loadingDuringRoundTrip)

		state := s.State()
		assert.Equal(t, models.StatusConfirmed, state.Status)
		assert.Equal(t, ref, state.BookingID)
		assert.False(t, state.IsLoading)
	})

	t.Run("TwoConfirmsMintDistinctReferences", func(t *testing.T) {
		desk := &fakeDesk{}
		s := readySession(t, desk)

		first, err := s.Confirm(context.Background())
		require.NoError(t, err)
		second, err := s.Confirm(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("RejectsIncompleteSteps", func(t *testing.T) {
		desk := &fakeDesk{}
		s := NewSession(desk, testLogger())
		_, err := s.Confirm(context.Background())
		assert.ErrorIs(t, err, ErrStepIncomplete)
		assert.Zero(t, desk.calls)
	})

	t.Run("DeskFailureLeavesPending", func(t *testing.T) {
		deskErr := errors.New("room no longer available")
		desk := &fakeDesk{err: deskErr}
		s := readySession(t, desk)

		_, err := s.Confirm(context.Background())
		assert.ErrorIs(t, err, deskErr)

		state := s.State()
		assert.Equal(t, models.StatusPending, state.Status)
		assert.Empty(t, state.BookingID)
		assert.False(t, state.IsLoading)

		// Explicit retry succeeds once the desk recovers.
		desk.err = nil
		ref, err := s.Confirm(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, s.State().Status)
		assert.Equal(t, ref, s.State().BookingID)
	})
}

func TestResetRestoresDefaults(t *testing.T) {
	s := readySession(t, &fakeDesk{})
	require.NoError(t, s.AddExtra(models.Extra{ID: "breakfast", PricePerNight: 25, PriceType: models.PriceTypePerNight}))
	require.NoError(t, s.GoToStep(4))
	_, err := s.Confirm(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Reset())

	fresh := NewSession(&fakeDesk{}, testLogger())
	assert.Equal(t, fresh.State(), s.State())
}

func TestRestore(t *testing.T) {
	t.Run("RecomputesPricing", func(t *testing.T) {
		room := deluxeRoom()
		state := models.BookingState{
			CurrentStep:  2,
			CheckIn:      date(2025, 6, 1),
			CheckOut:     date(2025, 6, 4),
			Guests:       models.Guests{Adults: 2},
			SelectedRoom: &room,
			Status:       models.StatusPending,
			// Stale on purpose; Restore must not trust it.
			Pricing: models.PricingBreakdown{Total: 1},
		}

		s := Restore(state, &fakeDesk{}, testLogger())
		want := pricing.Calculate(&room, state.CheckIn, state.CheckOut, nil)
		assert.Equal(t, want, s.State().Pricing)
	})

	t.Run("ClampsCorruptStep", func(t *testing.T) {
		s := Restore(models.BookingState{CurrentStep: 42}, &fakeDesk{}, testLogger())
		assert.Equal(t, 1, s.CurrentStep())
		assert.Equal(t, models.StatusPending, s.State().Status)
	})

	t.Run("DoesNotAliasSnapshot", func(t *testing.T) {
		room := deluxeRoom()
		extras := []models.Extra{
			{ID: "breakfast", Name: "Daily Breakfast", PricePerNight: 25, PriceType: "per-night"},
			{ID: "spa-credit", Name: "Spa Credit", PricePerNight: 100, PriceType: "one-time"},
		}
		state := models.BookingState{
			CurrentStep:  2,
			CheckIn:      date(2025, 6, 1),
			CheckOut:     date(2025, 6, 4),
			Guests:       models.Guests{Adults: 2},
			SelectedRoom: &room,
			Extras:       extras,
			Status:       models.StatusPending,
		}

		s := Restore(state, &fakeDesk{}, testLogger())

		// RemoveExtra rewrites the extras array in place; the snapshot the
		// caller still holds must not see that rewrite.
		require.NoError(t, s.RemoveExtra("breakfast"))
		require.Len(t, extras, 2)
		assert.Equal(t, "breakfast", extras[0].ID)
		assert.Equal(t, "spa-credit", extras[1].ID)

		assert.NotSame(t, &room, s.state.SelectedRoom)
	})
}
