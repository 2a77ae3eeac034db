package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	// StatusCancelled is reserved; no wizard action sets it yet.
	StatusCancelled = "cancelled"
)

const (
	StepDatesGuests   = 1
	StepRoomSelection = 2
	StepGuestInfo     = 3
	StepConfirmation  = 4

	TotalSteps = 4
)

const (
	CategoryAll = "all"

	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortSize      = "size"
	SortGuests    = "guests"
)

const (
	// DefaultAdults is the party preselected when a wizard session starts.
	DefaultAdults   = 2
	DefaultChildren = 0

	// DefaultSessionTTL время жизни сессии мастера в хранилище (24 часа).
	DefaultSessionTTL = 24 * 60 * 60

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 20

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60

	// DefaultConfirmDelayMS задержка имитации обращения к службе бронирования
	DefaultConfirmDelayMS = 2000
)

const (
	// DateLayout is the wire format for check-in/check-out dates.
	DateLayout = "2006-01-02"

	// DisplayDateLayout matches the site's short en-US rendering.
	DisplayDateLayout = "Mon, Jan 2, 2006"
)
