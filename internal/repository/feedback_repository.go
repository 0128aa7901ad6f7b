package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
)

// FeedbackRepository reads and writes the two feedback tables. The legacy
// and comprehensive schemas live in separate tables; reconciliation into a
// common shape is the normalizer's job, not SQL's.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS simple_feedback (
	id TEXT PRIMARY KEY,
	tour_id TEXT NOT NULL,
	tour_name TEXT,
	client_id TEXT,
	rating_overall INTEGER,
	rating_guide INTEGER,
	rating_driver INTEGER,
	rating_food INTEGER,
	rating_equipment INTEGER,
	comments TEXT,
	submitted_at TEXT
);
CREATE TABLE IF NOT EXISTS comprehensive_feedback (
	id TEXT PRIMARY KEY,
	tour_id TEXT NOT NULL,
	tour_name TEXT,
	client_id TEXT,
	client_name TEXT,
	client_email TEXT,
	nationality TEXT,
	accommodation_rating INTEGER,
	information_rating INTEGER,
	quality_equipment_rating INTEGER,
	truck_comfort_rating INTEGER,
	food_quantity_rating INTEGER,
	food_quality_rating INTEGER,
	driving_rating INTEGER,
	guiding_rating INTEGER,
	organisation_rating INTEGER,
	overview_rating INTEGER,
	guide_individual_rating INTEGER,
	driver_individual_rating INTEGER,
	guide_professionalism INTEGER,
	guide_organisation INTEGER,
	guide_people_skills INTEGER,
	guide_enthusiasm INTEGER,
	guide_information INTEGER,
	driver_professionalism INTEGER,
	driver_organisation INTEGER,
	driver_people_skills INTEGER,
	driver_enthusiasm INTEGER,
	driver_information INTEGER,
	met_expectations BOOLEAN,
	value_for_money BOOLEAN,
	would_recommend BOOLEAN,
	truck_satisfaction BOOLEAN,
	repeat_travel BOOLEAN,
	tour_highlight TEXT,
	improvement_suggestions TEXT,
	additional_comments TEXT,
	submitted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_simple_feedback_tour ON simple_feedback (tour_id, submitted_at);
CREATE INDEX IF NOT EXISTS idx_comprehensive_feedback_tour ON comprehensive_feedback (tour_id, submitted_at);
`

// Migrate creates the feedback tables when they do not exist yet.
func (r *FeedbackRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate feedback schema: %w", err)
	}
	return nil
}

// FetchRows returns raw feedback rows from both tables matching the filter,
// ordered by submission time. Filters run in SQL so unmatched rows never
// reach normalization.
func (r *FeedbackRepository) FetchRows(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	simple, err := r.fetchSimple(ctx, f)
	if err != nil {
		return nil, err
	}
	comprehensive, err := r.fetchComprehensive(ctx, f)
	if err != nil {
		return nil, err
	}

	rows := make([]feedback.RawRow, 0, len(simple)+len(comprehensive))
	rows = append(rows, simple...)
	rows = append(rows, comprehensive...)

	// RFC 3339 strings order chronologically; rows without a timestamp
	// sort first.
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i]["submitted_at"].(string)
		b, _ := rows[j]["submitted_at"].(string)
		return a < b
	})
	return rows, nil
}

func (r *FeedbackRepository) fetchSimple(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	query := `
		SELECT id, tour_id, tour_name, client_id,
			rating_overall, rating_guide, rating_driver, rating_food, rating_equipment,
			comments, submitted_at
		FROM simple_feedback
		WHERE 1=1`
	args := []any{}
	query, args = appendCommonFilters(query, args, f)
	if f.MinRating > 0 {
		query += " AND rating_overall >= ?"
		args = append(args, f.MinRating)
	}
	query += " ORDER BY submitted_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query simple_feedback: %w", err)
	}
	defer rows.Close()

	var out []feedback.RawRow
	for rows.Next() {
		var row models.SimpleFeedback
		if err := rows.Scan(
			&row.ID, &row.TourID, &row.TourName, &row.ClientID,
			&row.RatingOverall, &row.RatingGuide, &row.RatingDriver, &row.RatingFood, &row.RatingEquipment,
			&row.Comments, &row.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan simple_feedback row: %w", err)
		}
		out = append(out, row.RawRow())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simple_feedback: %w", err)
	}
	return out, nil
}

func (r *FeedbackRepository) fetchComprehensive(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	query := `
		SELECT id, tour_id, tour_name, client_id, client_name, client_email, nationality,
			accommodation_rating, information_rating, quality_equipment_rating,
			truck_comfort_rating, food_quantity_rating, food_quality_rating,
			driving_rating, guiding_rating, organisation_rating, overview_rating,
			guide_individual_rating, driver_individual_rating,
			guide_professionalism, guide_organisation, guide_people_skills,
			guide_enthusiasm, guide_information,
			driver_professionalism, driver_organisation, driver_people_skills,
			driver_enthusiasm, driver_information,
			met_expectations, value_for_money, would_recommend, truck_satisfaction, repeat_travel,
			tour_highlight, improvement_suggestions, additional_comments, submitted_at
		FROM comprehensive_feedback
		WHERE 1=1`
	args := []any{}
	query, args = appendCommonFilters(query, args, f)
	if f.MinRating > 0 {
		// MinRating is expressed on the five-point scale. Compare as
		// satisfaction fractions so the inverted seven-point direction
		// filters the same way.
		query += " AND overview_rating IS NOT NULL AND (7.0 - overview_rating) / 6.0 >= (? - 1.0) / 4.0"
		args = append(args, float64(f.MinRating))
	}
	query += " ORDER BY submitted_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comprehensive_feedback: %w", err)
	}
	defer rows.Close()

	var out []feedback.RawRow
	for rows.Next() {
		var row models.ComprehensiveFeedback
		if err := rows.Scan(
			&row.ID, &row.TourID, &row.TourName, &row.ClientID, &row.ClientName, &row.ClientEmail, &row.Nationality,
			&row.AccommodationRating, &row.InformationRating, &row.QualityEquipmentRating,
			&row.TruckComfortRating, &row.FoodQuantityRating, &row.FoodQualityRating,
			&row.DrivingRating, &row.GuidingRating, &row.OrganisationRating, &row.OverviewRating,
			&row.GuideIndividualRating, &row.DriverIndividualRating,
			&row.GuideProfessionalism, &row.GuideOrganisation, &row.GuidePeopleSkills,
			&row.GuideEnthusiasm, &row.GuideInformation,
			&row.DriverProfessionalism, &row.DriverOrganisation, &row.DriverPeopleSkills,
			&row.DriverEnthusiasm, &row.DriverInformation,
			&row.MetExpectations, &row.ValueForMoney, &row.WouldRecommend, &row.TruckSatisfaction, &row.RepeatTravel,
			&row.TourHighlight, &row.ImprovementSuggestions, &row.AdditionalComments, &row.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comprehensive_feedback row: %w", err)
		}
		out = append(out, row.RawRow())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comprehensive_feedback: %w", err)
	}
	return out, nil
}

func appendCommonFilters(query string, args []any, f models.Filter) (string, []any) {
	if f.TourID != "" {
		query += " AND tour_id = ?"
		args = append(args, f.TourID)
	}
	if f.Start != nil {
		query += " AND submitted_at >= ?"
		args = append(args, f.Start.UTC().Format(time.RFC3339))
	}
	if f.End != nil {
		query += " AND submitted_at <= ?"
		args = append(args, f.End.UTC().Format(time.RFC3339))
	}
	return query, args
}

// InsertSimple stores one legacy submission.
func (r *FeedbackRepository) InsertSimple(ctx context.Context, row models.SimpleFeedback) error {
	const query = `
		INSERT INTO simple_feedback (
			id, tour_id, tour_name, client_id,
			rating_overall, rating_guide, rating_driver, rating_food, rating_equipment,
			comments, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.TourID, row.TourName, row.ClientID,
		row.RatingOverall, row.RatingGuide, row.RatingDriver, row.RatingFood, row.RatingEquipment,
		row.Comments, row.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert simple_feedback: %w", err)
	}
	return nil
}

// InsertComprehensive stores one seven-point submission.
func (r *FeedbackRepository) InsertComprehensive(ctx context.Context, row models.ComprehensiveFeedback) error {
	const query = `
		INSERT INTO comprehensive_feedback (
			id, tour_id, tour_name, client_id, client_name, client_email, nationality,
			accommodation_rating, information_rating, quality_equipment_rating,
			truck_comfort_rating, food_quantity_rating, food_quality_rating,
			driving_rating, guiding_rating, organisation_rating, overview_rating,
			guide_individual_rating, driver_individual_rating,
			guide_professionalism, guide_organisation, guide_people_skills,
			guide_enthusiasm, guide_information,
			driver_professionalism, driver_organisation, driver_people_skills,
			driver_enthusiasm, driver_information,
			met_expectations, value_for_money, would_recommend, truck_satisfaction, repeat_travel,
			tour_highlight, improvement_suggestions, additional_comments, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.TourID, row.TourName, row.ClientID, row.ClientName, row.ClientEmail, row.Nationality,
		row.AccommodationRating, row.InformationRating, row.QualityEquipmentRating,
		row.TruckComfortRating, row.FoodQuantityRating, row.FoodQualityRating,
		row.DrivingRating, row.GuidingRating, row.OrganisationRating, row.OverviewRating,
		row.GuideIndividualRating, row.DriverIndividualRating,
		row.GuideProfessionalism, row.GuideOrganisation, row.GuidePeopleSkills,
		row.GuideEnthusiasm, row.GuideInformation,
		row.DriverProfessionalism, row.DriverOrganisation, row.DriverPeopleSkills,
		row.DriverEnthusiasm, row.DriverInformation,
		row.MetExpectations, row.ValueForMoney, row.WouldRecommend, row.TruckSatisfaction, row.RepeatTravel,
		row.TourHighlight, row.ImprovementSuggestions, row.AdditionalComments, row.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comprehensive_feedback: %w", err)
	}
	return nil
}
