package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"hotelsite/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetBookings  = "Bookings"
	SheetCancelled = "Cancelled"
	SheetOccupancy = "Occupancy"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	bookingColumns = []string{
		"ID", "Guest", "Email", "Room", "Check-in", "Check-out", "Nights", "Guests", "Rooms",
		"Base", "Tax", "Total", "Status", "Created At",
	}
	cancelledColumns = append(append([]string(nil), bookingColumns...), "Cancelled At", "Reason")
)

// Report is the data behind one bookings workbook covering [From, To].
type Report struct {
	From      time.Time
	To        time.Time
	Rooms     []*models.Room
	Bookings  []*models.Booking
	Cancelled []*models.CancelledBooking
}

// Workbook renders the report into three sheets: active bookings, cancelled
// bookings and a room-by-night occupancy grid.
func Workbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetBookings); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	writeHeader(f, SheetBookings, bookingColumns, headerStyle)
	for i, b := range r.Bookings {
		writeRow(f, SheetBookings, i+2, bookingCells(b))
	}

	if _, err := f.NewSheet(SheetCancelled); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	writeHeader(f, SheetCancelled, cancelledColumns, headerStyle)
	for i, c := range r.Cancelled {
		cells := append(bookingCells(&c.Booking), c.CancelledAt.Format("2006-01-02 15:04"), c.Reason)
		writeRow(f, SheetCancelled, i+2, cells)
	}

	if _, err := f.NewSheet(SheetOccupancy); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	writeOccupancy(f, r, headerStyle)

	for _, sheet := range []string{SheetBookings, SheetCancelled} {
		_ = f.SetColWidth(sheet, "A", "A", 8)
		_ = f.SetColWidth(sheet, "B", "D", 22)
		_ = f.SetColWidth(sheet, "E", "P", 14)
	}
	f.SetActiveSheet(0)

	return f, nil
}

// Write renders the report as XLSX into w.
func Write(w io.Writer, r *Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveFile writes the report into dir and returns the file path.
func SaveFile(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := Workbook(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(dir, FileName(r.From, r.To))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func FileName(from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) {
	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) {
	for i, v := range cells {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func bookingCells(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.UserName,
		b.UserEmail,
		b.RoomName,
		b.CheckIn.Format(models.DateLayout),
		b.CheckOut.Format(models.DateLayout),
		b.Nights(),
		b.Guests,
		b.Rooms,
		b.BaseAmount,
		b.TaxAmount,
		b.TotalPrice,
		b.Status,
		b.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// writeOccupancy lays out rooms as rows and nights of [From, To] as columns;
// each cell holds the number of units booked for that night.
func writeOccupancy(f *excelize.File, r *Report, headerStyle int) {
	sheet := SheetOccupancy
	_ = f.SetCellValue(sheet, "A1", "Room")

	from, to := models.NormalizeDate(r.From), models.NormalizeDate(r.To)
	dateCols := make(map[string]int)
	col := 2
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 1)
		_ = f.SetCellValue(sheet, cell, d.Format("01-02"))
		dateCols[d.Format(models.DateLayout)] = col
		col++
	}
	last, _ := excelize.CoordinatesToCellName(col-1, 1)
	_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 25)

	booked := make(map[int64]map[string]int)
	for _, b := range r.Bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		if booked[b.RoomID] == nil {
			booked[b.RoomID] = make(map[string]int)
		}
		for _, night := range models.StayDates(b.CheckIn, b.CheckOut) {
			booked[b.RoomID][night.Format(models.DateLayout)] += b.Rooms
		}
	}

	for i, room := range r.Rooms {
		row := i + 2
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheet, nameCell, room.Name)
		for date, c := range dateCols {
			cell, _ := excelize.CoordinatesToCellName(c, row)
			_ = f.SetCellValue(sheet, cell, booked[room.ID][date])
		}
	}
}
