package pricing

import (
	"testing"
	"time"

	"riverside/internal/models"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNights(t *testing.T) {
	t.Run("ThreeNights", func(t *testing.T) {
		assert.Equal(t, 3, Nights(date(2025, 6, 1), date(2025, 6, 4)))
	})

	t.Run("MissingDates", func(t *testing.T) {
		assert.Equal(t, 0, Nights(time.Time{}, date(2025, 6, 4)))
		assert.Equal(t, 0, Nights(date(2025, 6, 1), time.Time{}))
	})

	t.Run("NegativeRangeFloorsAtZero", func(t *testing.T) {
		assert.Equal(t, 0, Nights(date(2025, 6, 4), date(2025, 6, 1)))
	})

	t.Run("SameDay", func(t *testing.T) {
		assert.Equal(t, 0, Nights(date(2025, 6, 1), date(2025, 6, 1)))
	})
}

func TestCalculateZeroBreakdown(t *testing.T) {
	room := &models.Room{ID: "deluxe-river", Price: 249}

	t.Run("NoRoom", func(t *testing.T) {
		got := Calculate(nil, date(2025, 6, 1), date(2025, 6, 4), nil)
		assert.Equal(t, models.PricingBreakdown{}, got)
	})

	t.Run("NoCheckIn", func(t *testing.T) {
		got := Calculate(room, time.Time{}, date(2025, 6, 4), nil)
		assert.Equal(t, models.PricingBreakdown{}, got)
	})

	t.Run("NoCheckOut", func(t *testing.T) {
		got := Calculate(room, date(2025, 6, 1), time.Time{}, nil)
		assert.Equal(t, models.PricingBreakdown{}, got)
	})

	t.Run("CheckOutBeforeCheckIn", func(t *testing.T) {
		got := Calculate(room, date(2025, 6, 4), date(2025, 6, 1), nil)
		assert.Equal(t, 0, got.Nights)
		assert.Zero(t, got.RoomTotal)
		assert.Zero(t, got.Taxes)
		assert.Zero(t, got.ServiceFee)
		assert.Zero(t, got.Total)
	})
}

func TestCalculateThreeNightStay(t *testing.T) {
	room := &models.Room{ID: "deluxe-river", Price: 249}

	got := Calculate(room, date(2025, 6, 1), date(2025, 6, 4), nil)

	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, float64(249), got.PricePerNight)
	assert.Equal(t, float64(747), got.RoomTotal)
	assert.Equal(t, float64(0), got.ExtrasTotal)
	assert.Equal(t, 89.64, got.Taxes)
	assert.Equal(t, 37.35, got.ServiceFee)
	assert.Equal(t, 873.99, got.Total)
}

func TestCalculateExtras(t *testing.T) {
	room := &models.Room{ID: "standard-king", Price: 149}
	checkIn, checkOut := date(2025, 6, 1), date(2025, 6, 4)

	t.Run("PerNightExtraScalesWithNights", func(t *testing.T) {
		extras := []models.Extra{
			{ID: "breakfast", PricePerNight: 25, PriceType: models.PriceTypePerNight},
		}
		got := Calculate(room, checkIn, checkOut, extras)
		assert.Equal(t, float64(75), got.ExtrasTotal)
	})

	t.Run("OneTimeExtraIgnoresNights", func(t *testing.T) {
		extras := []models.Extra{
			{ID: "airport-transfer", PricePerNight: 75, PriceType: models.PriceTypeOneTime},
		}
		got := Calculate(room, checkIn, checkOut, extras)
		assert.Equal(t, float64(75), got.ExtrasTotal)

		longer := Calculate(room, checkIn, date(2025, 6, 8), extras)
		assert.Equal(t, float64(75), longer.ExtrasTotal)
	})

	t.Run("MixedExtras", func(t *testing.T) {
		extras := []models.Extra{
			{ID: "breakfast", PricePerNight: 25, PriceType: models.PriceTypePerNight},
			{ID: "spa-credit", PricePerNight: 100, PriceType: models.PriceTypeOneTime},
		}
		got := Calculate(room, checkIn, checkOut, extras)
		assert.Equal(t, float64(175), got.ExtrasTotal)

		subtotal := got.RoomTotal + got.ExtrasTotal
		assert.Equal(t, Round2(subtotal*TaxRate), got.Taxes)
		assert.Equal(t, Round2(subtotal*ServiceFeeRate), got.ServiceFee)
		assert.Equal(t, Round2(subtotal+got.Taxes+got.ServiceFee), got.Total)
	})
}

func TestCalculateDeterministic(t *testing.T) {
	room := &models.Room{ID: "executive-suite", Price: 349}
	extras := []models.Extra{
		{ID: "breakfast", PricePerNight: 25, PriceType: models.PriceTypePerNight},
	}

	first := Calculate(room, date(2025, 7, 10), date(2025, 7, 15), extras)
	second := Calculate(room, date(2025, 7, 10), date(2025, 7, 15), extras)
	assert.Equal(t, first, second)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 89.64, Round2(747*0.12))
	assert.Equal(t, 37.35, Round2(747*0.05))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, float64(0), Round2(0))
}
