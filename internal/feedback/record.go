package feedback

import "time"

// Scale identifies which rating convention produced a record. The two
// conventions point in opposite directions: on the five-point scale 5 is
// best, on the seven-point scale 1 is best (7 = unacceptable).
type Scale string

const (
	FivePoint  Scale = "five_point"
	SevenPoint Scale = "seven_point"
)

// Max returns the upper bound of the scale's valid range. The lower bound
// is always 1.
func (s Scale) Max() float64 {
	if s == SevenPoint {
		return 7
	}
	return 5
}

// InRange reports whether v is a valid rating on this scale.
func (s Scale) InRange(v float64) bool {
	return v >= 1 && v <= s.Max()
}

// SatisfactionFraction maps a rating on this scale to [0,1] where 1 is
// fully satisfied. This is the only sanctioned way to combine ratings
// from different scales.
func (s Scale) SatisfactionFraction(v float64) float64 {
	if s == SevenPoint {
		return (7 - v) / 6
	}
	return (v - 1) / 4
}

// TriState is a boolean answer that may be unanswered.
type TriState string

const (
	Yes     TriState = "yes"
	No      TriState = "no"
	Unknown TriState = "unknown"
)

// Category names a rating dimension in the normalized model.
type Category string

const (
	CategoryOverall       Category = "overall"
	CategoryGuide         Category = "guide"
	CategoryDriver        Category = "driver"
	CategoryFood          Category = "food"
	CategoryFoodQuality   Category = "foodQuality"
	CategoryFoodQuantity  Category = "foodQuantity"
	CategoryEquipment     Category = "equipment"
	CategoryTruckComfort  Category = "truckComfort"
	CategoryAccommodation Category = "accommodation"
	CategoryInformation   Category = "information"
	CategoryOrganisation  Category = "organisation"
	CategoryDriving       Category = "driving"
	CategoryGuiding       Category = "guiding"
)

// BoolQuestion names a yes/no satisfaction question.
type BoolQuestion string

const (
	MetExpectations   BoolQuestion = "metExpectations"
	ValueForMoney     BoolQuestion = "valueForMoney"
	WouldRecommend    BoolQuestion = "wouldRecommend"
	TruckSatisfaction BoolQuestion = "truckSatisfaction"
	RepeatTravel      BoolQuestion = "repeatTravel"
)

// TextField names a free-text comment field.
type TextField string

const (
	TextHighlight             TextField = "highlight"
	TextImprovementSuggestion TextField = "improvementSuggestion"
	TextAdditionalComments    TextField = "additionalComments"
)

// CrewRole and CrewDimension key the per-crew-member rating breakdown
// collected on the comprehensive form.
type CrewRole string

const (
	RoleGuide  CrewRole = "guide"
	RoleDriver CrewRole = "driver"
)

type CrewDimension string

const (
	DimProfessionalism CrewDimension = "professionalism"
	DimOrganisation    CrewDimension = "organisation"
	DimPeopleSkills    CrewDimension = "peopleSkills"
	DimEnthusiasm      CrewDimension = "enthusiasm"
	DimInformation     CrewDimension = "information"
)

// CrewKey addresses one (role, dimension) rating.
type CrewKey struct {
	Role      CrewRole
	Dimension CrewDimension
}

// Record is the analysis-ready representation of one feedback submission.
// Records are immutable after normalization: aggregation never mutates them.
// All ratings are stored in the record's native scale; cross-scale math
// goes through Scale.SatisfactionFraction.
type Record struct {
	ID       string
	TourID   string
	TourName string
	ClientID string

	ClientName  string
	ClientEmail string
	Nationality string

	// SubmittedAt is nil when the submission time is unknown; such
	// records are excluded from time-windowed queries.
	SubmittedAt *time.Time

	Scale Scale

	// Ratings holds only answered categories; absent means unanswered.
	Ratings  map[Category]float64
	Booleans map[BoolQuestion]TriState
	FreeText map[TextField]string

	// Crew is populated for seven-point records only.
	Crew map[CrewKey]float64
}

// Rating returns the value for a category and whether it was answered.
func (r Record) Rating(c Category) (float64, bool) {
	v, ok := r.Ratings[c]
	return v, ok
}
