package pricing

import (
	"math"
	"time"

	"riverside/internal/models"
)

// Tax and fee rates applied to the subtotal.
const (
	TaxRate        = 0.12
	ServiceFeeRate = 0.05
)

// Nights returns the number of calendar nights between check-in and
// check-out, floored at zero. Missing dates count as zero nights.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	diff := checkOut.Sub(checkIn)
	nights := int(math.Ceil(diff.Hours() / 24))
	if nights < 0 {
		return 0
	}
	return nights
}

// Calculate builds the full price breakdown for a stay. A missing room or
// missing date is a normal intermediate wizard state and yields the zero
// breakdown rather than an error. Pure and deterministic.
func Calculate(room *models.Room, checkIn, checkOut time.Time, extras []models.Extra) models.PricingBreakdown {
	if room == nil || checkIn.IsZero() || checkOut.IsZero() {
		return models.PricingBreakdown{}
	}

	nights := Nights(checkIn, checkOut)
	roomTotal := room.Price * float64(nights)

	var extrasTotal float64
	for _, extra := range extras {
		if extra.PriceType == models.PriceTypePerNight {
			extrasTotal += extra.PricePerNight * float64(nights)
		} else {
			extrasTotal += extra.PricePerNight
		}
	}

	subtotal := roomTotal + extrasTotal
	taxes := Round2(subtotal * TaxRate)
	serviceFee := Round2(subtotal * ServiceFeeRate)

	return models.PricingBreakdown{
		RoomTotal:     roomTotal,
		ExtrasTotal:   extrasTotal,
		Taxes:         taxes,
		ServiceFee:    serviceFee,
		Total:         Round2(subtotal + taxes + serviceFee),
		Nights:        nights,
		PricePerNight: room.Price,
	}
}

// Round2 rounds half away from zero to two decimal places. Every monetary
// rounding in the system goes through this helper.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
