// Package export renders report results as spreadsheet attachments.
package export

import (
	"bytes"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/report"

	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dataSheet       = "Report"
	infoSheet       = "About"
)

// BuildReportXLSX writes res to a workbook with the rows on the first sheet and run
// details on a second one.
func BuildReportXLSX(name string, family report.Family, res *report.Result, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil && len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(dataSheet, "A1", last, bold)
	}

	for i, row := range res.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(dataSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(infoSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	_ = f.SetCellValue(infoSheet, "A1", "Report")
	_ = f.SetCellValue(infoSheet, "B1", name)
	_ = f.SetCellValue(infoSheet, "A2", "Family")
	_ = f.SetCellValue(infoSheet, "B2", string(family))
	_ = f.SetCellValue(infoSheet, "A3", "Generated")
	_ = f.SetCellValue(infoSheet, "B3", generatedAt.Format("2006-01-02 15:04 MST"))
	_ = f.SetCellValue(infoSheet, "A4", "Rows")
	_ = f.SetCellValue(infoSheet, "B4", len(res.Rows))
	if res.Truncated {
		_ = f.SetCellValue(infoSheet, "A5", "Note")
		_ = f.SetCellValue(infoSheet, "B5", fmt.Sprintf("Truncated to the first %d rows", report.MaxRows))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
