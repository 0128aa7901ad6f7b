// Package export renders normalized feedback as downloadable files. It is
// formatting only; all analysis happens in the feedback package.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

// File is a rendered export ready to be served as a download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ratingColumns fixes the order of rating fields in flattened output.
var ratingColumns = []struct {
	Header   string
	Category feedback.Category
}{
	{"Overall", feedback.CategoryOverall},
	{"Guide", feedback.CategoryGuide},
	{"Driver", feedback.CategoryDriver},
	{"Food", feedback.CategoryFood},
	{"Food Quality", feedback.CategoryFoodQuality},
	{"Food Quantity", feedback.CategoryFoodQuantity},
	{"Equipment", feedback.CategoryEquipment},
	{"Truck Comfort", feedback.CategoryTruckComfort},
	{"Accommodation", feedback.CategoryAccommodation},
	{"Information", feedback.CategoryInformation},
	{"Organisation", feedback.CategoryOrganisation},
	{"Driving", feedback.CategoryDriving},
	{"Guiding", feedback.CategoryGuiding},
}

var crewColumns = []struct {
	Header string
	Key    feedback.CrewKey
}{
	{"Guide Professionalism", feedback.CrewKey{Role: feedback.RoleGuide, Dimension: feedback.DimProfessionalism}},
	{"Guide Organisation", feedback.CrewKey{Role: feedback.RoleGuide, Dimension: feedback.DimOrganisation}},
	{"Guide People Skills", feedback.CrewKey{Role: feedback.RoleGuide, Dimension: feedback.DimPeopleSkills}},
	{"Guide Enthusiasm", feedback.CrewKey{Role: feedback.RoleGuide, Dimension: feedback.DimEnthusiasm}},
	{"Guide Information", feedback.CrewKey{Role: feedback.RoleGuide, Dimension: feedback.DimInformation}},
	{"Driver Professionalism", feedback.CrewKey{Role: feedback.RoleDriver, Dimension: feedback.DimProfessionalism}},
	{"Driver Organisation", feedback.CrewKey{Role: feedback.RoleDriver, Dimension: feedback.DimOrganisation}},
	{"Driver People Skills", feedback.CrewKey{Role: feedback.RoleDriver, Dimension: feedback.DimPeopleSkills}},
	{"Driver Enthusiasm", feedback.CrewKey{Role: feedback.RoleDriver, Dimension: feedback.DimEnthusiasm}},
	{"Driver Information", feedback.CrewKey{Role: feedback.RoleDriver, Dimension: feedback.DimInformation}},
}

var textColumns = []struct {
	Header string
	Field  feedback.TextField
}{
	{"Highlight", feedback.TextHighlight},
	{"Improvement Suggestion", feedback.TextImprovementSuggestion},
	{"Additional Comments", feedback.TextAdditionalComments},
}

var booleanColumns = []struct {
	Header   string
	Question feedback.BoolQuestion
}{
	{"Met Expectations", feedback.MetExpectations},
	{"Value For Money", feedback.ValueForMoney},
	{"Would Recommend", feedback.WouldRecommend},
	{"Truck Satisfaction", feedback.TruckSatisfaction},
	{"Repeat Travel", feedback.RepeatTravel},
}

// Headers returns the fixed flattened column order shared by the CSV and
// spreadsheet exports.
func Headers() []string {
	headers := []string{"Tour ID", "Tour Name", "Client Name", "Client Email", "Submitted At", "Scale"}
	for _, c := range ratingColumns {
		headers = append(headers, c.Header)
	}
	for _, c := range crewColumns {
		headers = append(headers, c.Header)
	}
	for _, c := range textColumns {
		headers = append(headers, c.Header)
	}
	for _, c := range booleanColumns {
		headers = append(headers, c.Header)
	}
	return headers
}

// flatten renders one record as cells matching Headers. Unanswered fields
// become empty cells, never "null" or a sentinel number.
func flatten(rec feedback.Record) []string {
	submitted := ""
	if rec.SubmittedAt != nil {
		submitted = rec.SubmittedAt.UTC().Format(time.RFC3339)
	}

	cells := []string{rec.TourID, rec.TourName, rec.ClientName, rec.ClientEmail, submitted, string(rec.Scale)}
	for _, c := range ratingColumns {
		cells = append(cells, ratingCell(rec.Ratings, c.Category))
	}
	for _, c := range crewColumns {
		if v, ok := rec.Crew[c.Key]; ok {
			cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			cells = append(cells, "")
		}
	}
	for _, c := range textColumns {
		cells = append(cells, rec.FreeText[c.Field])
	}
	for _, c := range booleanColumns {
		cells = append(cells, booleanCell(rec.Booleans[c.Question]))
	}
	return cells
}

func ratingCell(ratings map[feedback.Category]float64, cat feedback.Category) string {
	v, ok := ratings[cat]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func booleanCell(v feedback.TriState) string {
	switch v {
	case feedback.Yes:
		return "Yes"
	case feedback.No:
		return "No"
	default:
		return ""
	}
}

// CSV renders records as a flattened spreadsheet with the fixed column
// order.
func CSV(records []feedback.Record) (File, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Headers()); err != nil {
		return File{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(flatten(rec)); err != nil {
			return File{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return File{}, fmt.Errorf("flush csv: %w", err)
	}

	return File{
		Name:        "feedback_export.csv",
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

type jsonEnvelope struct {
	ExportDate  time.Time        `json:"exportDate"`
	Analytics   any              `json:"analytics"`
	Submissions []map[string]any `json:"submissions"`
}

// JSON renders the analytics envelope plus per-record submissions.
func JSON(analytics any, records []feedback.Record) (File, error) {
	submissions := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		submissions = append(submissions, submissionObject(rec))
	}

	data, err := json.MarshalIndent(jsonEnvelope{
		ExportDate:  time.Now().UTC(),
		Analytics:   analytics,
		Submissions: submissions,
	}, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("marshal json export: %w", err)
	}

	return File{
		Name:        "feedback_export.json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func submissionObject(rec feedback.Record) map[string]any {
	crew := make(map[feedback.CrewRole]map[feedback.CrewDimension]float64)
	for key, v := range rec.Crew {
		if crew[key.Role] == nil {
			crew[key.Role] = make(map[feedback.CrewDimension]float64)
		}
		crew[key.Role][key.Dimension] = v
	}

	obj := map[string]any{
		"id":       rec.ID,
		"tourId":   rec.TourID,
		"clientId": rec.ClientID,
		"scale":    rec.Scale,
		"ratings":  rec.Ratings,
		"booleans": rec.Booleans,
		"freeText": rec.FreeText,
	}
	if rec.TourName != "" {
		obj["tourName"] = rec.TourName
	}
	if rec.ClientName != "" {
		obj["clientName"] = rec.ClientName
	}
	if rec.ClientEmail != "" {
		obj["clientEmail"] = rec.ClientEmail
	}
	if rec.Nationality != "" {
		obj["nationality"] = rec.Nationality
	}
	if rec.SubmittedAt != nil {
		obj["submittedAt"] = rec.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if len(crew) > 0 {
		obj["crew"] = crew
	}
	return obj
}
