package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

func comprehensiveRecord() feedback.Record {
	submitted := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return feedback.Record{
		ID:          "c1",
		TourID:      "kili-7",
		TourName:    "Kilimanjaro 7-day",
		ClientName:  "Ada Osei",
		ClientEmail: "ada@example.com",
		SubmittedAt: &submitted,
		Scale:       feedback.SevenPoint,
		Ratings: map[feedback.Category]float64{
			feedback.CategoryOverall: 2,
			feedback.CategoryGuide:   1,
		},
		Booleans: map[feedback.BoolQuestion]feedback.TriState{
			feedback.WouldRecommend:  feedback.Yes,
			feedback.ValueForMoney:   feedback.No,
			feedback.MetExpectations: feedback.Unknown,
		},
		FreeText: map[feedback.TextField]string{
			feedback.TextHighlight: "summit morning",
		},
		Crew: map[feedback.CrewKey]float64{
			{Role: feedback.RoleGuide, Dimension: feedback.DimEnthusiasm}: 1,
		},
	}
}

func csvColumn(t *testing.T, rows [][]string, header string) int {
	t.Helper()
	for i, h := range rows[0] {
		if h == header {
			return i
		}
	}
	t.Fatalf("header %q not found", header)
	return -1
}

func TestCSV_BooleanRendering(t *testing.T) {
	file, err := CSV([]feedback.Record{comprehensiveRecord()})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	record := rows[1]
	assert.Equal(t, "Yes", record[csvColumn(t, rows, "Would Recommend")])
	assert.Equal(t, "No", record[csvColumn(t, rows, "Value For Money")])
	assert.Equal(t, "", record[csvColumn(t, rows, "Met Expectations")])

	// Unanswered fields become empty cells, never a literal null.
	assert.NotContains(t, string(file.Data), "null")
	assert.NotContains(t, string(file.Data), "undefined")
}

func TestCSV_ColumnOrder(t *testing.T) {
	file, err := CSV(nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"Tour ID", "Tour Name", "Client Name", "Client Email", "Submitted At", "Scale"}, rows[0][:6])
	assert.Equal(t, "Overall", rows[0][6])
}

func TestCSV_RatingCells(t *testing.T) {
	file, err := CSV([]feedback.Record{comprehensiveRecord()})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)

	record := rows[1]
	assert.Equal(t, "2", record[csvColumn(t, rows, "Overall")])
	assert.Equal(t, "1", record[csvColumn(t, rows, "Guide")])
	assert.Equal(t, "", record[csvColumn(t, rows, "Accommodation")])
	assert.Equal(t, "1", record[csvColumn(t, rows, "Guide Enthusiasm")])
	assert.Equal(t, "", record[csvColumn(t, rows, "Driver Enthusiasm")])
}

func TestJSON_Envelope(t *testing.T) {
	analytics := map[string]any{"totalFeedback": 1}
	file, err := JSON(analytics, []feedback.Record{comprehensiveRecord()})
	require.NoError(t, err)
	assert.Equal(t, "application/json", file.ContentType)

	var envelope struct {
		ExportDate  time.Time        `json:"exportDate"`
		Analytics   map[string]any   `json:"analytics"`
		Submissions []map[string]any `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(file.Data, &envelope))

	assert.False(t, envelope.ExportDate.IsZero())
	assert.Equal(t, float64(1), envelope.Analytics["totalFeedback"])
	require.Len(t, envelope.Submissions, 1)

	sub := envelope.Submissions[0]
	assert.Equal(t, "kili-7", sub["tourId"])
	assert.Equal(t, "2025-06-01T10:00:00Z", sub["submittedAt"])

	booleans, ok := sub["booleans"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "yes", booleans["wouldRecommend"])
}

func TestWorkbook(t *testing.T) {
	summary := feedback.Aggregate([]feedback.Record{comprehensiveRecord()})
	file, err := Workbook(summary, []feedback.Record{comprehensiveRecord()})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Name, ".xlsx"))
	require.NotEmpty(t, file.Data)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	assert.ElementsMatch(t, []string{analyticsSheet, submissionsSheet}, wb.GetSheetList())

	total, err := wb.GetCellValue(analyticsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1", total)

	header, err := wb.GetCellValue(submissionsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tour ID", header)
}
