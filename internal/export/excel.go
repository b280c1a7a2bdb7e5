package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"parkhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ReportSource provides the data slices that go into owner reports.
type ReportSource interface {
	GetRequestsByDateRange(ctx context.Context, ownerID int64, start, end time.Time) ([]*models.ParkingRequest, error)
	EarningsBySpace(ctx context.Context, ownerID int64) (map[int64]float64, error)
	GetSpacesByOwner(ctx context.Context, ownerID int64) ([]*models.ParkingSpace, error)
}

// Exporter renders owner activity reports as Excel files.
type Exporter struct {
	repo   ReportSource
	path   string
	logger zerolog.Logger
}

func NewExporter(repo ReportSource, path string, logger *zerolog.Logger) *Exporter {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "exporter").Logger()
	}
	return &Exporter{repo: repo, path: path, logger: l}
}

// DefaultRange returns the export window used when the caller does not
// specify dates.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	start := now.AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	end := now.AddDate(0, models.DefaultExportRangeMonthsAfter, 0)
	return start, end
}

// ExportOwnerReport создает Excel файл с заявками и доходами владельца
func (e *Exporter) ExportOwnerReport(ctx context.Context, ownerID int64, startDate, endDate time.Time) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	requests, err := e.repo.GetRequestsByDateRange(ctx, ownerID, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting requests: %v", err)
	}

	earnings, err := e.repo.EarningsBySpace(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("error getting earnings: %v", err)
	}

	spaces, err := e.repo.GetSpacesByOwner(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("error getting spaces: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeRequestsSheet(f, startDate, endDate, requests); err != nil {
		return "", err
	}
	if err := e.writeEarningsSheet(f, spaces, earnings); err != nil {
		return "", err
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("owner_%d_%s_to_%s.xlsx",
		ownerID,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int64("owner_id", ownerID).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeRequestsSheet(f *excelize.File, startDate, endDate time.Time, requests []*models.ParkingRequest) error {
	sheetName := "Requests"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Space", "Requester", "Status", "Start", "End", "Amount", "Paid"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 3
	for _, r := range requests {
		values := []interface{}{
			r.ID,
			r.SpaceName,
			r.UserID,
			r.Status,
			formatNullTime(r.StartTime),
			formatNullTime(r.EndTime),
			nullAmount(r.TotalAmount),
			r.IsPaid,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "H", 18)
	return nil
}

func (e *Exporter) writeEarningsSheet(f *excelize.File, spaces []*models.ParkingSpace, earnings map[int64]float64) error {
	sheetName := "Earnings"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellValue(sheetName, "A1", "Space")
	_ = f.SetCellValue(sheetName, "B1", "Paid Total")
	_ = f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	names := make(map[int64]string, len(spaces))
	for _, s := range spaces {
		names[s.ID] = s.Name
	}

	// Детерминированный порядок строк
	ids := make([]int64, 0, len(earnings))
	for id := range earnings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	row := 2
	var total float64
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("space %d", id)
		}
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheetName, cellA, name)
		_ = f.SetCellValue(sheetName, cellB, earnings[id])
		total += earnings[id]
		row++
	}

	cellA, _ := excelize.CoordinatesToCellName(1, row)
	cellB, _ := excelize.CoordinatesToCellName(2, row)
	_ = f.SetCellValue(sheetName, cellA, "Total")
	_ = f.SetCellValue(sheetName, cellB, total)

	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, cellA, cellB, totalStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "B", 18)
	return nil
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("2006-01-02 15:04")
}

func nullAmount(a sql.NullFloat64) interface{} {
	if !a.Valid {
		return ""
	}
	return a.Float64
}
