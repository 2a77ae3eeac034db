package export

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"riverside/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReservation(ref string) *models.Reservation {
	return &models.Reservation{
		Reference: ref,
		RoomID:    "deluxe-king",
		RoomName:  "Deluxe King",
		CheckIn:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Adults:    2,
		Children:  1,
		GuestName: "Anna Keller",
		Email:     "anna@example.com",
		Phone:     "+4915112345678",
		Total:     873.99,
		Status:    models.StatusConfirmed,
		CreatedAt: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestLedgerAppendReservation(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	ledger := NewLedger(dir, &logger)

	require.NoError(t, ledger.AppendReservation(sampleReservation("RS-EXP00001")))
	require.NoError(t, ledger.AppendReservation(sampleReservation("RS-EXP00002")))

	f, err := excelize.OpenFile(filepath.Join(dir, ledgerFileName))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two reservations

	assert.Equal(t, "Reference", rows[0][0])
	assert.Equal(t, "RS-EXP00001", rows[1][0])
	assert.Equal(t, "Deluxe King", rows[1][1])
	assert.Equal(t, "2025-06-01", rows[1][2])
	assert.Equal(t, "RS-EXP00002", rows[2][0])
}

func TestWriteRange(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	reservations := []*models.Reservation{
		sampleReservation("RS-EXP00010"),
		sampleReservation("RS-EXP00011"),
	}

	path, err := WriteRange(dir, reservations, start, end)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "export_2025-06-01_to_2025-06-30.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4) // title + header + two reservations
	assert.Equal(t, "RS-EXP00010", rows[2][0])
	assert.Equal(t, "RS-EXP00011", rows[3][0])
}

func TestWriteRangeEmpty(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	path, err := WriteRange(dir, nil, start, end)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2) // title + header only
}
