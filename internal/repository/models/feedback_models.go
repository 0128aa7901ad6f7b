package models

import (
	"database/sql"
	"time"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

// Filter narrows a feedback query. Zero values mean "no constraint".
// End is inclusive; callers extend date-only bounds to end of day before
// building the filter.
type Filter struct {
	TourID    string
	Start     *time.Time
	End       *time.Time
	MinRating int
}

// SimpleFeedback is one row of the legacy five-point table.
type SimpleFeedback struct {
	ID              string
	TourID          string
	TourName        sql.NullString
	ClientID        sql.NullString
	RatingOverall   sql.NullInt64
	RatingGuide     sql.NullInt64
	RatingDriver    sql.NullInt64
	RatingFood      sql.NullInt64
	RatingEquipment sql.NullInt64
	Comments        sql.NullString
	SubmittedAt     sql.NullString
}

// RawRow converts the row to the loose shape the normalizer consumes.
// NULL columns stay absent from the map so they normalize as unanswered.
func (r SimpleFeedback) RawRow() feedback.RawRow {
	row := feedback.RawRow{
		"id":      r.ID,
		"tour_id": r.TourID,
	}
	putString(row, "tour_name", r.TourName)
	putString(row, "client_id", r.ClientID)
	putInt(row, "rating_overall", r.RatingOverall)
	putInt(row, "rating_guide", r.RatingGuide)
	putInt(row, "rating_driver", r.RatingDriver)
	putInt(row, "rating_food", r.RatingFood)
	putInt(row, "rating_equipment", r.RatingEquipment)
	putString(row, "comments", r.Comments)
	putString(row, "submitted_at", r.SubmittedAt)
	return row
}

// ComprehensiveFeedback is one row of the seven-point table.
type ComprehensiveFeedback struct {
	ID          string
	TourID      string
	TourName    sql.NullString
	ClientID    sql.NullString
	ClientName  sql.NullString
	ClientEmail sql.NullString
	Nationality sql.NullString

	AccommodationRating    sql.NullInt64
	InformationRating      sql.NullInt64
	QualityEquipmentRating sql.NullInt64
	TruckComfortRating     sql.NullInt64
	FoodQuantityRating     sql.NullInt64
	FoodQualityRating      sql.NullInt64
	DrivingRating          sql.NullInt64
	GuidingRating          sql.NullInt64
	OrganisationRating     sql.NullInt64
	OverviewRating         sql.NullInt64
	GuideIndividualRating  sql.NullInt64
	DriverIndividualRating sql.NullInt64

	GuideProfessionalism  sql.NullInt64
	GuideOrganisation     sql.NullInt64
	GuidePeopleSkills     sql.NullInt64
	GuideEnthusiasm       sql.NullInt64
	GuideInformation      sql.NullInt64
	DriverProfessionalism sql.NullInt64
	DriverOrganisation    sql.NullInt64
	DriverPeopleSkills    sql.NullInt64
	DriverEnthusiasm      sql.NullInt64
	DriverInformation     sql.NullInt64

	MetExpectations   sql.NullBool
	ValueForMoney     sql.NullBool
	WouldRecommend    sql.NullBool
	TruckSatisfaction sql.NullBool
	RepeatTravel      sql.NullBool

	TourHighlight          sql.NullString
	ImprovementSuggestions sql.NullString
	AdditionalComments     sql.NullString

	SubmittedAt sql.NullString
}

func (r ComprehensiveFeedback) RawRow() feedback.RawRow {
	row := feedback.RawRow{
		"id":      r.ID,
		"tour_id": r.TourID,
		// Marks the schema even when every optional field is NULL.
		"scale": string(feedback.SevenPoint),
	}
	putString(row, "tour_name", r.TourName)
	putString(row, "client_id", r.ClientID)
	putString(row, "client_name", r.ClientName)
	putString(row, "client_email", r.ClientEmail)
	putString(row, "nationality", r.Nationality)

	putInt(row, "accommodation_rating", r.AccommodationRating)
	putInt(row, "information_rating", r.InformationRating)
	putInt(row, "quality_equipment_rating", r.QualityEquipmentRating)
	putInt(row, "truck_comfort_rating", r.TruckComfortRating)
	putInt(row, "food_quantity_rating", r.FoodQuantityRating)
	putInt(row, "food_quality_rating", r.FoodQualityRating)
	putInt(row, "driving_rating", r.DrivingRating)
	putInt(row, "guiding_rating", r.GuidingRating)
	putInt(row, "organisation_rating", r.OrganisationRating)
	putInt(row, "overview_rating", r.OverviewRating)
	putInt(row, "guide_individual_rating", r.GuideIndividualRating)
	putInt(row, "driver_individual_rating", r.DriverIndividualRating)

	putInt(row, "guide_professionalism", r.GuideProfessionalism)
	putInt(row, "guide_organisation", r.GuideOrganisation)
	putInt(row, "guide_people_skills", r.GuidePeopleSkills)
	putInt(row, "guide_enthusiasm", r.GuideEnthusiasm)
	putInt(row, "guide_information", r.GuideInformation)
	putInt(row, "driver_professionalism", r.DriverProfessionalism)
	putInt(row, "driver_organisation", r.DriverOrganisation)
	putInt(row, "driver_people_skills", r.DriverPeopleSkills)
	putInt(row, "driver_enthusiasm", r.DriverEnthusiasm)
	putInt(row, "driver_information", r.DriverInformation)

	putBool(row, "met_expectations", r.MetExpectations)
	putBool(row, "value_for_money", r.ValueForMoney)
	putBool(row, "would_recommend", r.WouldRecommend)
	putBool(row, "truck_satisfaction", r.TruckSatisfaction)
	putBool(row, "repeat_travel", r.RepeatTravel)

	putString(row, "tour_highlight", r.TourHighlight)
	putString(row, "improvement_suggestions", r.ImprovementSuggestions)
	putString(row, "additional_comments", r.AdditionalComments)
	putString(row, "submitted_at", r.SubmittedAt)
	return row
}

func putString(row feedback.RawRow, key string, v sql.NullString) {
	if v.Valid {
		row[key] = v.String
	}
}

func putInt(row feedback.RawRow, key string, v sql.NullInt64) {
	if v.Valid {
		row[key] = v.Int64
	}
}

func putBool(row feedback.RawRow, key string, v sql.NullBool) {
	if v.Valid {
		row[key] = v.Bool
	}
}
