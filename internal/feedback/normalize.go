package feedback

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrMalformedRecord marks a raw row that cannot enter aggregation because
// a required identifier is missing.
var ErrMalformedRecord = errors.New("malformed feedback record")

// RawRow is a feedback row as it arrives from storage or from a form
// submission: loosely typed, nullable, with the source schema's column names.
type RawRow map[string]any

// fivePointRatingFields maps legacy simple-feedback columns to normalized
// categories.
var fivePointRatingFields = map[string]Category{
	"rating_overall":   CategoryOverall,
	"rating_guide":     CategoryGuide,
	"rating_driver":    CategoryDriver,
	"rating_food":      CategoryFood,
	"rating_equipment": CategoryEquipment,
}

// sevenPointRatingFields maps comprehensive-feedback columns to normalized
// categories. Note the inverted meaning: these are stored as-is and only
// reinterpreted during cross-scale aggregation.
var sevenPointRatingFields = map[string]Category{
	"overview_rating":          CategoryOverall,
	"guide_individual_rating":  CategoryGuide,
	"driver_individual_rating": CategoryDriver,
	"food_quality_rating":      CategoryFoodQuality,
	"food_quantity_rating":     CategoryFoodQuantity,
	"quality_equipment_rating": CategoryEquipment,
	"truck_comfort_rating":     CategoryTruckComfort,
	"accommodation_rating":     CategoryAccommodation,
	"information_rating":       CategoryInformation,
	"organisation_rating":      CategoryOrganisation,
	"driving_rating":           CategoryDriving,
	"guiding_rating":           CategoryGuiding,
}

var crewFields = map[string]CrewKey{
	"guide_professionalism":  {RoleGuide, DimProfessionalism},
	"guide_organisation":     {RoleGuide, DimOrganisation},
	"guide_people_skills":    {RoleGuide, DimPeopleSkills},
	"guide_enthusiasm":       {RoleGuide, DimEnthusiasm},
	"guide_information":      {RoleGuide, DimInformation},
	"driver_professionalism": {RoleDriver, DimProfessionalism},
	"driver_organisation":    {RoleDriver, DimOrganisation},
	"driver_people_skills":   {RoleDriver, DimPeopleSkills},
	"driver_enthusiasm":      {RoleDriver, DimEnthusiasm},
	"driver_information":     {RoleDriver, DimInformation},
}

var booleanFields = map[string]BoolQuestion{
	"met_expectations":   MetExpectations,
	"value_for_money":    ValueForMoney,
	"would_recommend":    WouldRecommend,
	"truck_satisfaction": TruckSatisfaction,
	"repeat_travel":      RepeatTravel,
}

var fivePointTextFields = map[string]TextField{
	"comments": TextAdditionalComments,
}

var sevenPointTextFields = map[string]TextField{
	"tour_highlight":          TextHighlight,
	"improvement_suggestions": TextImprovementSuggestion,
	"additional_comments":     TextAdditionalComments,
}

// DetectScale infers a raw row's source schema from the fields it carries.
// Any comprehensive-only field marks the row as seven-point; everything
// else is treated as the legacy five-point shape.
func DetectScale(row RawRow) Scale {
	if tag, ok := asString(row["scale"]); ok {
		switch Scale(tag) {
		case FivePoint, SevenPoint:
			return Scale(tag)
		}
	}
	for field := range sevenPointRatingFields {
		if _, ok := row[field]; ok {
			return SevenPoint
		}
	}
	for field := range crewFields {
		if _, ok := row[field]; ok {
			return SevenPoint
		}
	}
	for field := range booleanFields {
		if _, ok := row[field]; ok {
			return SevenPoint
		}
	}
	return FivePoint
}

// NormalizeResult carries the normalized records plus data-quality counters.
type NormalizeResult struct {
	Records []Record
	// Skipped counts rows dropped entirely for missing identifiers.
	Skipped int
	// DroppedValues counts individual ratings discarded as out of range
	// or non-numeric.
	DroppedValues int
}

// NormalizeAll converts raw rows into Records, dropping malformed rows and
// out-of-range values. Normalization issues never abort the run; they are
// counted and logged.
func NormalizeAll(rows []RawRow, logger *zap.Logger) NormalizeResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	var res NormalizeResult
	for _, row := range rows {
		rec, dropped, err := normalize(row)
		if err != nil {
			res.Skipped++
			logger.Warn("skipping malformed feedback row", zap.Error(err))
			continue
		}
		if dropped > 0 {
			res.DroppedValues += dropped
			logger.Debug("discarded out-of-range ratings",
				zap.String("record_id", rec.ID),
				zap.Int("dropped", dropped))
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// Normalize converts a single raw row into a Record. It returns
// ErrMalformedRecord when the row has no tour identifier.
func Normalize(row RawRow) (Record, error) {
	rec, _, err := normalize(row)
	return rec, err
}

// ValidateSubmission checks a raw row arriving from a client. Unlike the
// read path, which tolerates bad stored values by dropping them, a live
// submission with an out-of-range or non-numeric rating is rejected.
func ValidateSubmission(row RawRow) error {
	_, dropped, err := normalize(row)
	if err != nil {
		return err
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d rating value(s) out of range", ErrMalformedRecord, dropped)
	}
	return nil
}

func normalize(row RawRow) (Record, int, error) {
	tourID, ok := asString(row["tour_id"])
	if !ok || tourID == "" {
		return Record{}, 0, fmt.Errorf("%w: missing tour_id", ErrMalformedRecord)
	}

	scale := DetectScale(row)
	rec := Record{
		TourID:   tourID,
		Scale:    scale,
		Ratings:  make(map[Category]float64),
		Booleans: make(map[BoolQuestion]TriState),
		FreeText: make(map[TextField]string),
	}

	rec.ID, _ = asString(row["id"])
	rec.ClientID, _ = asString(row["client_id"])
	rec.TourName, _ = asString(row["tour_name"])
	rec.ClientName, _ = asString(row["client_name"])
	rec.ClientEmail, _ = asString(row["client_email"])
	rec.Nationality, _ = asString(row["nationality"])

	if raw, ok := asString(row["submitted_at"]); ok {
		if ts, err := parseTimestamp(raw); err == nil {
			rec.SubmittedAt = &ts
		}
	}

	ratingFields := fivePointRatingFields
	textFields := fivePointTextFields
	if scale == SevenPoint {
		ratingFields = sevenPointRatingFields
		textFields = sevenPointTextFields
	}

	dropped := 0
	for field, cat := range ratingFields {
		raw, ok := row[field]
		if !ok || raw == nil {
			continue
		}
		v, numeric := asNumber(raw)
		if !numeric || !scale.InRange(v) {
			// Out-of-range values are treated as absent, never
			// clamped: a clamped sentinel would skew averages.
			dropped++
			continue
		}
		rec.Ratings[cat] = v
	}

	if scale == SevenPoint {
		rec.Crew = make(map[CrewKey]float64)
		for field, key := range crewFields {
			raw, ok := row[field]
			if !ok || raw == nil {
				continue
			}
			v, numeric := asNumber(raw)
			if !numeric || !scale.InRange(v) {
				dropped++
				continue
			}
			rec.Crew[key] = v
		}
		for field, q := range booleanFields {
			rec.Booleans[q] = asTriState(row[field])
		}
	}

	for field, name := range textFields {
		if s, ok := asString(row[field]); ok && s != "" {
			rec.FreeText[name] = s
		}
	}

	return rec, dropped, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asNumber accepts the numeric types that database/sql scanning and JSON
// decoding produce. Anything else (including numeric strings) is not a
// rating.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// asTriState passes strict booleans through and maps everything else,
// including null and truthy-looking strings, to Unknown.
func asTriState(v any) TriState {
	b, ok := v.(bool)
	if !ok {
		return Unknown
	}
	if b {
		return Yes
	}
	return No
}
