package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"restobar/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	scheduleSheet = "Schedule"
	bookingsSheet = "Bookings"

	orphanRowLabel = "Removed table"
)

// Exporter writes booking schedules as .xlsx files into one directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// ExportSchedule writes bookings dated from..to inclusive and returns the file path.
// The schedule sheet has one row per table and one column per date.
func (e *Exporter) ExportSchedule(from, to time.Time, bookings []*models.Booking, tables []*models.Table) (string, error) {
	if to.Before(from) {
		return "", fmt.Errorf("export range ends before it starts: %s > %s",
			from.Format(models.DateLayout), to.Format(models.DateLayout))
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	fromKey, toKey := from.Format(models.DateLayout), to.Format(models.DateLayout)
	inRange := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Date >= fromKey && b.Date <= toKey {
			inRange = append(inRange, b)
		}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		if inRange[i].Date != inRange[j].Date {
			return inRange[i].Date < inRange[j].Date
		}
		return inRange[i].Time < inRange[j].Time
	})

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(scheduleSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(scheduleSheet, "A1", fmt.Sprintf("Period: %s - %s", from.Format("02.01.2006"), to.Format("02.01.2006")))

	dateColumns := writeDateHeaders(f, from, to)
	tableRows := writeTableHeaders(f, tables, hasOrphans(inRange, tables))
	writeScheduleCells(f, inRange, dateColumns, tableRows)

	_ = f.SetColWidth(scheduleSheet, "A", "A", 25)
	lastCol, _ := excelize.ColumnNumberToName(len(dateColumns) + 1)
	if len(dateColumns) > 0 {
		_ = f.SetColWidth(scheduleSheet, "B", lastCol, 28)
	}
	_ = f.MergeCell(scheduleSheet, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(scheduleSheet, "A1", "A1", style)

	if err := writeBookingList(f, inRange, tables); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx", fromKey, toKey)
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(inRange)).Msg("Excel file created")
	return filePath, nil
}

func writeDateHeaders(f *excelize.File, from, to time.Time) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	columns := make(map[string]int)
	col := 2
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(scheduleSheet, cell, day.Format("Mon 02.01"))
		_ = f.SetCellStyle(scheduleSheet, cell, cell, headerStyle)
		columns[day.Format(models.DateLayout)] = col
		col++
	}
	return columns
}

// writeTableHeaders returns the row of each table id. Bookings whose table no
// longer exists share the row keyed by the empty id.
func writeTableHeaders(f *excelize.File, tables []*models.Table, orphans bool) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	rows := make(map[string]int, len(tables)+1)
	row := 3
	for _, t := range tables {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(scheduleSheet, cell, fmt.Sprintf("Table %d (%d, %s)", t.Number, t.Capacity, t.Location))
		_ = f.SetCellStyle(scheduleSheet, cell, cell, headerStyle)
		rows[t.ID] = row
		row++
	}

	if orphans {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(scheduleSheet, cell, orphanRowLabel)
		_ = f.SetCellStyle(scheduleSheet, cell, cell, headerStyle)
		rows[""] = row
	}
	return rows
}

func writeScheduleCells(f *excelize.File, bookings []*models.Booking, dateColumns, tableRows map[string]int) {
	type slot struct{ row, col int }
	cells := make(map[slot][]*models.Booking)
	for _, b := range bookings {
		row, ok := tableRows[b.TableID]
		if !ok {
			row = tableRows[""]
		}
		col := dateColumns[b.Date]
		cells[slot{row, col}] = append(cells[slot{row, col}], b)
	}

	styles := make(map[string]int)
	for pos, list := range cells {
		lines := make([]string, 0, len(list))
		for _, b := range list {
			line := fmt.Sprintf("%s %s %s (%d)", statusIcon(b.Status), b.Time, b.CustomerName, b.PartySize)
			if b.SpecialRequests != "" {
				line += "\n   " + b.SpecialRequests
			}
			lines = append(lines, line)
		}

		cell, _ := excelize.CoordinatesToCellName(pos.col, pos.row)
		_ = f.SetCellValue(scheduleSheet, cell, strings.Join(lines, "\n"))

		color := cellColor(list)
		styleID, ok := styles[color]
		if !ok {
			var err error
			styleID, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
				Alignment: &excelize.Alignment{
					Horizontal: "left",
					Vertical:   "top",
					WrapText:   true,
				},
			})
			if err != nil {
				continue
			}
			styles[color] = styleID
		}
		_ = f.SetCellStyle(scheduleSheet, cell, cell, styleID)
	}
}

func writeBookingList(f *excelize.File, bookings []*models.Booking, tables []*models.Table) error {
	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	numbers := make(map[string]int, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.Number
	}

	headers := []string{"Date", "Time", "Table", "Customer", "Phone", "Email", "Party", "Status", "Requests"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
	}

	for i, b := range bookings {
		row := i + 2
		table := "-"
		if n, ok := numbers[b.TableID]; ok {
			table = fmt.Sprint(n)
		}
		values := []interface{}{b.Date, b.Time, table, b.CustomerName, b.CustomerPhone, b.CustomerEmail, b.PartySize, string(b.Status), b.SpecialRequests}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(bookingsSheet, cell, v)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "C", 12)
	_ = f.SetColWidth(bookingsSheet, "D", "F", 22)
	_ = f.SetColWidth(bookingsSheet, "I", "I", 30)
	return nil
}

func hasOrphans(bookings []*models.Booking, tables []*models.Table) bool {
	known := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		known[t.ID] = struct{}{}
	}
	for _, b := range bookings {
		if _, ok := known[b.TableID]; !ok {
			return true
		}
	}
	return false
}

func statusIcon(status models.BookingStatus) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusPending:
		return "⏳"
	case models.StatusCancelled:
		return "❌"
	default:
		return "❓"
	}
}

// cellColor: white when everything is cancelled, yellow while anything is
// pending, green otherwise.
func cellColor(bookings []*models.Booking) string {
	active, pending := 0, false
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		active++
		if b.Status == models.StatusPending {
			pending = true
		}
	}

	switch {
	case active == 0:
		return "#FFFFFF"
	case pending:
		return "#FFEB9C"
	default:
		return "#C6EFCE"
	}
}
