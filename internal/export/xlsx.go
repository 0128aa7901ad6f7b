package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

const (
	analyticsSheet   = "Analytics"
	submissionsSheet = "Submissions"
)

// Workbook renders a two-sheet spreadsheet: headline analytics and the
// flattened submissions.
func Workbook(summary feedback.Summary, records []feedback.Record) (File, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", analyticsSheet); err != nil {
		return File{}, fmt.Errorf("rename analytics sheet: %w", err)
	}
	if _, err := f.NewSheet(submissionsSheet); err != nil {
		return File{}, fmt.Errorf("create submissions sheet: %w", err)
	}

	if err := writeAnalyticsSheet(f, summary); err != nil {
		return File{}, err
	}
	if err := writeSubmissionsSheet(f, records); err != nil {
		return File{}, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return File{}, fmt.Errorf("serialize workbook: %w", err)
	}

	return File{
		Name:        "feedback_export.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

func writeAnalyticsSheet(f *excelize.File, summary feedback.Summary) error {
	rows := [][]any{
		{"Metric", "Value", "Count"},
		{"Total submissions", summary.TotalSubmissions, ""},
		{"Legacy (5-point) submissions", summary.ByScale[feedback.FivePoint].Total, ""},
		{"Comprehensive (7-point) submissions", summary.ByScale[feedback.SevenPoint].Total, ""},
	}

	for _, c := range ratingColumns {
		sat, ok := summary.Satisfaction[c.Category]
		if !ok || sat.Count == 0 {
			continue
		}
		rows = append(rows, []any{c.Header + " satisfaction %", sat.Average, sat.Count})
	}
	for _, c := range booleanColumns {
		rate, ok := summary.Booleans[c.Question]
		if !ok || !rate.HasData {
			continue
		}
		rows = append(rows, []any{c.Header + " %", rate.Percentage, rate.Yes + rate.No})
	}

	return writeRows(f, analyticsSheet, rows)
}

func writeSubmissionsSheet(f *excelize.File, records []feedback.Record) error {
	headers := Headers()
	rows := make([][]any, 0, len(records)+1)

	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	rows = append(rows, headerRow)

	for _, rec := range records {
		cells := flatten(rec)
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		rows = append(rows, row)
	}

	return writeRows(f, submissionsSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
