package feedback

import (
	"math"

	"github.com/montanaflynn/stats"
)

// CategoryAverage is a mean plus the number of records that contributed to
// it. Count 0 with Average 0 means "no one answered", which callers must
// render as N/A rather than a real zero.
type CategoryAverage struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// SatisfactionRate is the yes/no breakdown of one boolean question.
// Unknown answers are excluded from the denominator. HasData is false when
// nobody answered, so a 0 percentage is never mistaken for 0% satisfaction.
type SatisfactionRate struct {
	Yes        int  `json:"yes"`
	No         int  `json:"no"`
	Percentage int  `json:"percentage"`
	HasData    bool `json:"hasData"`
}

// ScaleSummary holds the statistics that only make sense within a single
// scale: native-unit averages and the overall-rating histogram keyed by the
// scale's own bucket values.
type ScaleSummary struct {
	Total            int                          `json:"total"`
	CategoryAverages map[Category]CategoryAverage `json:"categoryAverages"`
	Distribution     map[int]int                  `json:"distribution"`
}

// CrewReport is the per-role performance breakdown. AverageRating comes from
// the role's individual overview rating and is a different statistic from
// the mean of the dimension averages.
type CrewReport struct {
	Dimensions    map[CrewDimension]CategoryAverage `json:"dimensions"`
	AverageRating CategoryAverage                   `json:"averageRating"`
}

// Summary is the output of aggregation. It is a pure computation result and
// is never persisted.
type Summary struct {
	TotalSubmissions int `json:"totalSubmissions"`

	// ByScale keeps the two rating conventions apart; their raw values
	// must never share a histogram or an unconverted average.
	ByScale map[Scale]ScaleSummary `json:"byScale"`

	// Satisfaction is the cross-scale view: per-category mean
	// satisfaction fraction rescaled to a 0-100 percentage.
	Satisfaction map[Category]CategoryAverage `json:"satisfaction"`

	Booleans map[BoolQuestion]SatisfactionRate `json:"booleans"`
	Crew     map[CrewRole]CrewReport           `json:"crew"`
}

// roleOverviewCategory maps a crew role to the individual overview rating
// that feeds its AverageRating.
var roleOverviewCategory = map[CrewRole]Category{
	RoleGuide:  CategoryGuide,
	RoleDriver: CategoryDriver,
}

// Aggregate reduces normalized records into a Summary. An empty input
// yields a fully zero-valued Summary rather than an error; dashboards
// render that as "no data".
func Aggregate(records []Record) Summary {
	s := Summary{
		TotalSubmissions: len(records),
		ByScale:          make(map[Scale]ScaleSummary),
		Satisfaction:     make(map[Category]CategoryAverage),
		Booleans:         make(map[BoolQuestion]SatisfactionRate),
		Crew:             make(map[CrewRole]CrewReport),
	}

	// One collection pass: bucket every field's values up front so the
	// per-statistic math below never rescans the records.
	nativeValues := map[Scale]map[Category][]float64{
		FivePoint:  make(map[Category][]float64),
		SevenPoint: make(map[Category][]float64),
	}
	fractions := make(map[Category][]float64)
	distributions := map[Scale]map[int]int{
		FivePoint:  emptyDistribution(FivePoint),
		SevenPoint: emptyDistribution(SevenPoint),
	}
	scaleTotals := make(map[Scale]int)
	boolCounts := make(map[BoolQuestion]*SatisfactionRate)
	crewValues := make(map[CrewKey][]float64)

	for _, rec := range records {
		scaleTotals[rec.Scale]++

		for cat, v := range rec.Ratings {
			nativeValues[rec.Scale][cat] = append(nativeValues[rec.Scale][cat], v)
			fractions[cat] = append(fractions[cat], rec.Scale.SatisfactionFraction(v))
		}
		if overall, ok := rec.Rating(CategoryOverall); ok {
			distributions[rec.Scale][int(overall)]++
		}
		for q, answer := range rec.Booleans {
			rate, ok := boolCounts[q]
			if !ok {
				rate = &SatisfactionRate{}
				boolCounts[q] = rate
			}
			switch answer {
			case Yes:
				rate.Yes++
			case No:
				rate.No++
			}
		}
		for key, v := range rec.Crew {
			crewValues[key] = append(crewValues[key], v)
		}
	}

	for _, scale := range []Scale{FivePoint, SevenPoint} {
		averages := make(map[Category]CategoryAverage, len(nativeValues[scale]))
		for cat, values := range nativeValues[scale] {
			averages[cat] = meanOf(values)
		}
		s.ByScale[scale] = ScaleSummary{
			Total:            scaleTotals[scale],
			CategoryAverages: averages,
			Distribution:     distributions[scale],
		}
	}

	for cat, values := range fractions {
		avg := meanOf(values)
		avg.Average = round2(avg.Average * 100)
		s.Satisfaction[cat] = avg
	}

	for q, rate := range boolCounts {
		answered := rate.Yes + rate.No
		if answered > 0 {
			rate.HasData = true
			rate.Percentage = int(math.Round(float64(rate.Yes) / float64(answered) * 100))
		}
		s.Booleans[q] = *rate
	}

	for _, role := range []CrewRole{RoleGuide, RoleDriver} {
		report := CrewReport{Dimensions: make(map[CrewDimension]CategoryAverage)}
		for _, dim := range []CrewDimension{DimProfessionalism, DimOrganisation, DimPeopleSkills, DimEnthusiasm, DimInformation} {
			report.Dimensions[dim] = meanOf(crewValues[CrewKey{role, dim}])
		}
		report.AverageRating = meanOf(nativeValues[SevenPoint][roleOverviewCategory[role]])
		s.Crew[role] = report
	}

	return s
}

func emptyDistribution(scale Scale) map[int]int {
	d := make(map[int]int, int(scale.Max()))
	for i := 1; i <= int(scale.Max()); i++ {
		d[i] = 0
	}
	return d
}

func meanOf(values []float64) CategoryAverage {
	if len(values) == 0 {
		return CategoryAverage{}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return CategoryAverage{}
	}
	return CategoryAverage{Average: round2(mean), Count: len(values)}
}

func round2(v float64) float64 {
	rounded, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return rounded
}
