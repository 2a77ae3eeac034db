package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"riverside/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet    = "Reservations"
	ledgerFileName = "reservations.xlsx"
)

var ledgerHeaders = []string{
	"Reference", "Room", "Check-in", "Check-out", "Adults", "Children",
	"Guest", "Email", "Phone", "Total", "Status", "Created",
}

// Ledger maintains a single XLSX file with one row per confirmed
// reservation. Appends are serialized; excelize files are not safe for
// concurrent writes.
type Ledger struct {
	dir    string
	logger *zerolog.Logger
	mu     sync.Mutex
}

func NewLedger(dir string, logger *zerolog.Logger) *Ledger {
	return &Ledger{dir: dir, logger: logger}
}

func (l *Ledger) filePath() string {
	return filepath.Join(l.dir, ledgerFileName)
}

// AppendReservation adds one reservation row, creating the ledger file with
// headers on first use.
func (l *Ledger) AppendReservation(res *models.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := l.filePath()
	f, created, err := openOrCreateLedger(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	if err != nil {
		return fmt.Errorf("read ledger rows: %w", err)
	}

	if err := writeReservationRow(f, len(rows)+1, res); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	l.logger.Info().
		Str("file_path", path).
		Str("reference", res.Reference).
		Bool("created", created).
		Msg("reservation exported")
	return nil
}

// WriteRange dumps the given reservations into a standalone export file
// named after the period. Returns the file path.
func WriteRange(dir string, reservations []*models.Reservation, start, end time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ledgerSheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(ledgerSheet, "A1", fmt.Sprintf("Период: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeaders))
	_ = f.MergeCell(ledgerSheet, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(ledgerSheet, "A1", "A1", titleStyle)

	writeHeaders(f, 2)
	for i, res := range reservations {
		if err := writeReservationRow(f, i+3, res); err != nil {
			return "", err
		}
	}

	_ = f.SetColWidth(ledgerSheet, "A", lastCol, 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("export_%s_to_%s.xlsx",
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	path := filepath.Join(dir, fileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return path, nil
}

func openOrCreateLedger(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("open ledger: %w", err)
		}
		return f, false, nil
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(ledgerSheet)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")
	writeHeaders(f, 1)
	return f, true, nil
}

func writeHeaders(f *excelize.File, row int) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(ledgerSheet, cell, header)
		_ = f.SetCellStyle(ledgerSheet, cell, cell, style)
	}
}

func writeReservationRow(f *excelize.File, row int, res *models.Reservation) error {
	values := []interface{}{
		res.Reference,
		res.RoomName,
		res.CheckIn.Format(models.DateLayout),
		res.CheckOut.Format(models.DateLayout),
		res.Adults,
		res.Children,
		res.GuestName,
		res.Email,
		res.Phone,
		res.Total,
		res.Status,
		res.CreatedAt.Format(time.RFC3339),
	}
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(ledgerSheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
