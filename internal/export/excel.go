package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"pitline/internal/models"
)

type appointmentLister interface {
	ListAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Appointment, error)
}

// Exporter пишет заявки за период в xlsx файл.
type Exporter struct {
	store  appointmentLister
	path   string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewExporter(store appointmentLister, path string, loc *time.Location, logger *zerolog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{store: store, path: path, loc: loc, logger: logger}
}

var columns = []string{"ID", "Date", "Customer", "Phone", "Vehicle", "License plate", "Service", "Status", "Created"}

// Export создает Excel файл с заявками за период и возвращает путь к нему.
func (e *Exporter) Export(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	appointments, err := e.store.ListAppointmentsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting appointments: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Appointments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeHeaders(f, sheetName)
	e.writeRows(f, sheetName, appointments)

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", lastCol, 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("appointments_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(appointments)).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeHeaders(f *excelize.File, sheetName string) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, name)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func (e *Exporter) writeRows(f *excelize.File, sheetName string, appointments []*models.Appointment) {
	for i, appt := range appointments {
		row := i + 3
		values := []interface{}{
			appt.ID,
			models.DayKey(appt.PreferredDate, e.loc),
			appt.CustomerName,
			appt.Phone,
			appt.VehicleModel,
			appt.LicensePlate,
			appt.ServiceType,
			appt.Status,
			appt.CreatedAt.In(e.loc).Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}
}
