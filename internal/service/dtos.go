package service

import (
	"time"

	"github.com/overlandtours/feedback-server/internal/feedback"
)

// TimePeriod echoes the window a summary was computed over. Nil bounds mean
// the query was unbounded on that side.
type TimePeriod struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// AnalyticsSummary is the envelope served to dashboards and exports.
// AverageRatings holds the cross-scale satisfaction percentages; ByScale
// keeps the native-unit averages and histograms of each rating convention.
type AnalyticsSummary struct {
	TotalFeedback     int                                                 `json:"totalFeedback"`
	SkippedRecords    int                                                 `json:"skippedRecords"`
	AverageRatings    map[feedback.Category]feedback.CategoryAverage      `json:"averageRatings"`
	ByScale           map[feedback.Scale]feedback.ScaleSummary            `json:"ratingDistribution"`
	SatisfactionRates map[feedback.BoolQuestion]feedback.SatisfactionRate `json:"satisfactionRates"`
	CrewPerformance   map[feedback.CrewRole]feedback.CrewReport           `json:"crewPerformance"`
	SentimentAnalysis map[feedback.Sentiment]int                          `json:"sentimentAnalysis"`
	CommonThemes      []string                                            `json:"commonThemes"`
	TimePeriod        TimePeriod                                          `json:"timePeriod"`
}
