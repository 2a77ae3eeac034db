package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"riverside/internal/models"
)

// CreateReservation inserts a confirmed reservation and fills in the
// generated id and timestamps.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation) error {
	query := `INSERT INTO reservations (
                reference, room_id, room_name, check_in, check_out,
                adults, children, guest_name, email, phone, comment,
                total, status, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		res.Reference,
		res.RoomID,
		res.RoomName,
		res.CheckIn.Format(models.DateLayout),
		res.CheckOut.Format(models.DateLayout),
		res.Adults,
		res.Children,
		res.GuestName,
		res.Email,
		res.Phone,
		res.Comment,
		res.Total,
		res.Status,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	res.ID = id
	res.CreatedAt = now
	return nil
}

// CreateReservationWithLock checks overlap capacity and inserts inside a
// single transaction. roomUnits is how many identical units of the room
// the property holds. Returns false without inserting when the stay
// window is already fully booked.
func (db *DB) CreateReservationWithLock(ctx context.Context, res *models.Reservation, roomUnits int) (bool, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	overlapping, err := countOverlapping(ctx, tx, res.RoomID, res.CheckIn, res.CheckOut)
	if err != nil {
		return false, err
	}
	if overlapping >= roomUnits {
		return false, nil
	}

	query := `INSERT INTO reservations (
                reference, room_id, room_name, check_in, check_out,
                adults, children, guest_name, email, phone, comment,
                total, status, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		res.Reference,
		res.RoomID,
		res.RoomName,
		res.CheckIn.Format(models.DateLayout),
		res.CheckOut.Format(models.DateLayout),
		res.Adults,
		res.Children,
		res.GuestName,
		res.Email,
		res.Phone,
		res.Comment,
		res.Total,
		res.Status,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.ID = id
	res.CreatedAt = now
	return true, nil
}

// countOverlapping counts confirmed reservations of the room whose stay
// window overlaps [checkIn, checkOut). Two stays overlap when one starts
// before the other ends.
func countOverlapping(ctx context.Context, tx *sql.Tx, roomID string, checkIn, checkOut time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM reservations
              WHERE room_id = ?
              AND status = ?
              AND check_in < ?
              AND check_out > ?`
	var count int
	err := tx.QueryRowContext(ctx, query,
		roomID,
		models.StatusConfirmed,
		checkOut.Format(models.DateLayout),
		checkIn.Format(models.DateLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping reservations: %w", err)
	}
	return count, nil
}

// GetReservationByReference looks a reservation up by its public
// reference.
func (db *DB) GetReservationByReference(ctx context.Context, reference string) (*models.Reservation, error) {
	query := `SELECT id, reference, room_id, room_name, check_in, check_out,
                     adults, children, guest_name, email, phone, comment,
                     total, status, created_at
              FROM reservations WHERE reference = ?`

	res, err := scanReservation(db.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// GetReservationsByDateRange returns confirmed reservations whose
// check-in falls inside [start, end], newest first.
func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT id, reference, room_id, room_name, check_in, check_out,
                     adults, children, guest_name, email, phone, comment,
                     total, status, created_at
              FROM reservations
              WHERE check_in >= ? AND check_in <= ?
              ORDER BY check_in DESC, id DESC`

	rows, err := db.db.QueryContext(ctx, query, start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

// CountReservations returns the total number of rows in the ledger.
func (db *DB) CountReservations(ctx context.Context) (int, error) {
	var count int
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	var checkIn, checkOut string
	err := row.Scan(
		&res.ID, &res.Reference, &res.RoomID, &res.RoomName,
		&checkIn, &checkOut,
		&res.Adults, &res.Children, &res.GuestName, &res.Email,
		&res.Phone, &res.Comment, &res.Total, &res.Status, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if res.CheckIn, err = parseLedgerDate(checkIn); err != nil {
		return nil, err
	}
	if res.CheckOut, err = parseLedgerDate(checkOut); err != nil {
		return nil, err
	}
	return &res, nil
}

func parseLedgerDate(v string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, v)
	if err != nil {
		// Older sqlite drivers may round-trip a full timestamp.
		t, err = time.Parse(time.RFC3339, v)
	}
	return t, err
}
