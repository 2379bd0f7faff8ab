package services

import (
	"bytes"
	"fmt"

	"zone-alerts-vms/be/repository"

	"github.com/xuri/excelize/v2"
)

const alertReportSheet = "Alerts"

var alertReportHeader = []string{
	"Alert ID",
	"Alert Time (UTC)",
	"Camera",
	"Zone ID",
	"Zone Type",
	"Person Count",
	"Video URL",
}

// AlertReportFilename names an export for the given day span.
func AlertReportFilename(rng repository.DateRange) string {
	return fmt.Sprintf("alerts_%s_%s.xlsx",
		rng.From.Format(repository.DateLayout), rng.To.Format(repository.DateLayout))
}

// BuildAlertReport renders alert rows as a single-sheet workbook.
func BuildAlertReport(rows []repository.AlertReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(alertReportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range alertReportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(alertReportSheet, cell, header); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(alertReportHeader))
	if err := f.SetCellStyle(alertReportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, row := range rows {
		values := []any{
			row.AlertID,
			row.AlertTime.UTC().Format("2006-01-02 15:04:05"),
			row.CameraName,
			row.ZoneID,
			row.ZoneType,
			row.PersonCount,
			row.VideoURL,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(alertReportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(alertReportSheet, "A", "F", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(alertReportSheet, "G", "G", 60); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
