package models

import "time"

// SessionSnapshot is what the wizard session store persists between
// requests: the full booking state plus bookkeeping. Snapshots are plain
// data; the booking.Session store is rebuilt around them on load.
type SessionSnapshot struct {
	ID        string       `json:"id"`
	State     BookingState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
