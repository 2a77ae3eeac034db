package desk

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"riverside/internal/database"
	"riverside/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable means the room's stay window is fully booked on the
	// desk's ledger. The caller may pick other dates or another room and
	// retry; the desk never retries by itself.
	ErrUnavailable = errors.New("room is not available for the requested dates")
)

// refAlphabet leaves out characters that read ambiguously on a printed
// confirmation.
const (
	refAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	refLength   = 8
	refPrefix   = "RS-"
)

// Desk simulates the reservation backend the wizard submits to. Each
// Reserve call waits out a fixed round-trip delay, then records the
// reservation on the sqlite ledger under a freshly minted reference.
type Desk struct {
	db        *database.DB
	delay     time.Duration
	roomUnits int
	logger    zerolog.Logger
}

// New builds a desk. roomUnits is how many identical units of each room
// type the property holds; delay is the simulated network round-trip.
func New(db *database.DB, delay time.Duration, roomUnits int, logger zerolog.Logger) *Desk {
	if roomUnits <= 0 {
		roomUnits = 1
	}
	return &Desk{db: db, delay: delay, roomUnits: roomUnits, logger: logger}
}

// Reserve waits for the simulated round-trip, then books the stay.
// Returns the minted booking reference, ErrUnavailable on a full window,
// or the context error if the caller gives up mid-flight.
func (d *Desk) Reserve(ctx context.Context, res models.Reservation) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}

	res.Reference = NewReference()
	res.Status = models.StatusConfirmed

	ok, err := d.db.CreateReservationWithLock(ctx, &res, d.roomUnits)
	if err != nil {
		return "", fmt.Errorf("reservation desk: %w", err)
	}
	if !ok {
		d.logger.Warn().
			Str("room_id", res.RoomID).
			Time("check_in", res.CheckIn).
			Time("check_out", res.CheckOut).
			Msg("stay window fully booked")
		return "", ErrUnavailable
	}

	d.logger.Info().
		Str("reference", res.Reference).
		Str("room_id", res.RoomID).
		Float64("total", res.Total).
		Msg("reservation recorded")

	return res.Reference, nil
}

// Lookup fetches a recorded reservation by reference.
func (d *Desk) Lookup(ctx context.Context, reference string) (*models.Reservation, error) {
	return d.db.GetReservationByReference(ctx, reference)
}

func (d *Desk) wait(ctx context.Context) error {
	if d.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewReference mints a booking reference like RS-7KQ2M4XN. crypto/rand
// keeps references unguessable; collisions are caught by the ledger's
// unique index.
func NewReference() string {
	ref := make([]byte, refLength)
	max := big.NewInt(int64(len(refAlphabet)))
	for i := range ref {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(fmt.Sprintf("reference generation: %v", err))
		}
		ref[i] = refAlphabet[n.Int64()]
	}
	return refPrefix + string(ref)
}
