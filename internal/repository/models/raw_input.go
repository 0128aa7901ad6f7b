package models

import (
	"database/sql"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

// SimpleFromRaw builds an insertable legacy row from a loose submission
// payload. Identifier fields are left for the caller to fill when absent.
func SimpleFromRaw(row feedback.RawRow) SimpleFeedback {
	id, _ := row["id"].(string)
	tourID, _ := row["tour_id"].(string)
	return SimpleFeedback{
		ID:              id,
		TourID:          tourID,
		TourName:        nullString(row, "tour_name"),
		ClientID:        nullString(row, "client_id"),
		RatingOverall:   nullInt(row, "rating_overall"),
		RatingGuide:     nullInt(row, "rating_guide"),
		RatingDriver:    nullInt(row, "rating_driver"),
		RatingFood:      nullInt(row, "rating_food"),
		RatingEquipment: nullInt(row, "rating_equipment"),
		Comments:        nullString(row, "comments"),
		SubmittedAt:     nullString(row, "submitted_at"),
	}
}

// ComprehensiveFromRaw builds an insertable seven-point row from a loose
// submission payload.
func ComprehensiveFromRaw(row feedback.RawRow) ComprehensiveFeedback {
	id, _ := row["id"].(string)
	tourID, _ := row["tour_id"].(string)
	return ComprehensiveFeedback{
		ID:          id,
		TourID:      tourID,
		TourName:    nullString(row, "tour_name"),
		ClientID:    nullString(row, "client_id"),
		ClientName:  nullString(row, "client_name"),
		ClientEmail: nullString(row, "client_email"),
		Nationality: nullString(row, "nationality"),

		AccommodationRating:    nullInt(row, "accommodation_rating"),
		InformationRating:      nullInt(row, "information_rating"),
		QualityEquipmentRating: nullInt(row, "quality_equipment_rating"),
		TruckComfortRating:     nullInt(row, "truck_comfort_rating"),
		FoodQuantityRating:     nullInt(row, "food_quantity_rating"),
		FoodQualityRating:      nullInt(row, "food_quality_rating"),
		DrivingRating:          nullInt(row, "driving_rating"),
		GuidingRating:          nullInt(row, "guiding_rating"),
		OrganisationRating:     nullInt(row, "organisation_rating"),
		OverviewRating:         nullInt(row, "overview_rating"),
		GuideIndividualRating:  nullInt(row, "guide_individual_rating"),
		DriverIndividualRating: nullInt(row, "driver_individual_rating"),

		GuideProfessionalism:  nullInt(row, "guide_professionalism"),
		GuideOrganisation:     nullInt(row, "guide_organisation"),
		GuidePeopleSkills:     nullInt(row, "guide_people_skills"),
		GuideEnthusiasm:       nullInt(row, "guide_enthusiasm"),
		GuideInformation:      nullInt(row, "guide_information"),
		DriverProfessionalism: nullInt(row, "driver_professionalism"),
		DriverOrganisation:    nullInt(row, "driver_organisation"),
		DriverPeopleSkills:    nullInt(row, "driver_people_skills"),
		DriverEnthusiasm:      nullInt(row, "driver_enthusiasm"),
		DriverInformation:     nullInt(row, "driver_information"),

		MetExpectations:   nullBool(row, "met_expectations"),
		ValueForMoney:     nullBool(row, "value_for_money"),
		WouldRecommend:    nullBool(row, "would_recommend"),
		TruckSatisfaction: nullBool(row, "truck_satisfaction"),
		RepeatTravel:      nullBool(row, "repeat_travel"),

		TourHighlight:          nullString(row, "tour_highlight"),
		ImprovementSuggestions: nullString(row, "improvement_suggestions"),
		AdditionalComments:     nullString(row, "additional_comments"),
		SubmittedAt:            nullString(row, "submitted_at"),
	}
}

func nullString(row feedback.RawRow, key string) sql.NullString {
	if s, ok := row[key].(string); ok && s != "" {
		return sql.NullString{String: s, Valid: true}
	}
	return sql.NullString{}
}

// nullInt accepts the numeric types JSON decoding and Go literals produce.
func nullInt(row feedback.RawRow, key string) sql.NullInt64 {
	switch n := row[key].(type) {
	case float64:
		return sql.NullInt64{Int64: int64(n), Valid: true}
	case int:
		return sql.NullInt64{Int64: int64(n), Valid: true}
	case int64:
		return sql.NullInt64{Int64: n, Valid: true}
	default:
		return sql.NullInt64{}
	}
}

func nullBool(row feedback.RawRow, key string) sql.NullBool {
	if b, ok := row[key].(bool); ok {
		return sql.NullBool{Bool: b, Valid: true}
	}
	return sql.NullBool{}
}
