package models

import "time"

// Guests is the party composition for a stay.
type Guests struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// Total returns the full party size.
func (g Guests) Total() int {
	return g.Adults + g.Children
}

// GuestInfo holds the lead guest's contact details collected on step 3.
type GuestInfo struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// GuestInfoPatch is a partial update; nil fields are left untouched.
type GuestInfoPatch struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

// GuestsPatch is a partial update of the party composition.
type GuestsPatch struct {
	Adults   *int `json:"adults,omitempty"`
	Children *int `json:"children,omitempty"`
}

// PricingBreakdown is the derived price quote for the in-progress booking.
// It is always recomputed from (room, check-in, check-out, extras) and
// never edited field by field.
type PricingBreakdown struct {
	RoomTotal     float64 `json:"room_total"`
	ExtrasTotal   float64 `json:"extras_total"`
	Taxes         float64 `json:"taxes"`
	ServiceFee    float64 `json:"service_fee"`
	Total         float64 `json:"total"`
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"price_per_night"`
}

// BookingState is the single source of truth for one wizard session.
// Mutations go through the booking.Session store only.
type BookingState struct {
	CurrentStep  int              `json:"current_step"`
	CheckIn      time.Time        `json:"check_in"`
	CheckOut     time.Time        `json:"check_out"`
	Guests       Guests           `json:"guests"`
	SelectedRoom *Room            `json:"selected_room,omitempty"`
	GuestInfo    GuestInfo        `json:"guest_info"`
	Extras       []Extra          `json:"extras"`
	Pricing      PricingBreakdown `json:"pricing"`
	BookingID    string           `json:"booking_id,omitempty"`
	Status       string           `json:"status"`
	IsLoading    bool             `json:"is_loading"`
}

// Reservation is what the reservation desk records once a wizard session
// is confirmed.
type Reservation struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Adults    int       `json:"adults"`
	Children  int       `json:"children"`
	GuestName string    `json:"guest_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Comment   string    `json:"comment"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
