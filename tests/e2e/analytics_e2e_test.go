//go:build e2e

package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/httpapi"
	"github.com/overlandtours/feedback-server/internal/repository"
	"github.com/overlandtours/feedback-server/internal/repository/models"
	"github.com/overlandtours/feedback-server/internal/service"
	"github.com/overlandtours/feedback-server/tests/e2e/mocks"
)

type testStack struct {
	db   *sql.DB
	repo *repository.FeedbackRepository
	mux  *http.ServeMux
}

func newTestStack(t *testing.T, cache httpapi.Cacher) *testStack {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewFeedbackRepository(db)
	require.NoError(t, repo.Migrate(t.Context()))

	logger := zap.NewNop()
	svc := service.NewAnalyticsService(repo, logger)
	handlers := httpapi.NewHTTPHandlers(svc, cache, logger, 5*time.Minute)

	mux := http.NewServeMux()
	handlers.Register(mux)

	return &testStack{db: db, repo: repo, mux: mux}
}

func (s *testStack) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testStack) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.mux.ServeHTTP(rec, req)
	return rec
}

func ns(v string) sql.NullString { return sql.NullString{String: v, Valid: true} }
func ni(v int64) sql.NullInt64   { return sql.NullInt64{Int64: v, Valid: true} }
func nb(v bool) sql.NullBool     { return sql.NullBool{Bool: v, Valid: true} }

// seedFeedback inserts three legacy rows and two comprehensive rows with
// known values so the summary statistics are exact.
func seedFeedback(t *testing.T, repo *repository.FeedbackRepository) {
	t.Helper()
	ctx := t.Context()

	require.NoError(t, repo.InsertSimple(ctx, models.SimpleFeedback{
		ID: "s1", TourID: "T-100",
		RatingOverall: ni(5), RatingGuide: ni(4),
		Comments:    ns("Great guide and great food overall"),
		SubmittedAt: ns("2025-01-01T12:00:00Z"),
	}))
	require.NoError(t, repo.InsertSimple(ctx, models.SimpleFeedback{
		ID: "s2", TourID: "T-200",
		RatingOverall: ni(3),
		SubmittedAt:   ns("2025-01-10T09:00:00Z"),
	}))
	require.NoError(t, repo.InsertSimple(ctx, models.SimpleFeedback{
		ID: "s3", TourID: "T-100",
		RatingOverall: ni(1),
		Comments:      ns("Late pickup and broken tents"),
		SubmittedAt:   ns("2025-02-01T08:00:00Z"),
	}))

	require.NoError(t, repo.InsertComprehensive(ctx, models.ComprehensiveFeedback{
		ID: "c1", TourID: "T-100",
		OverviewRating:        ni(1),
		GuideIndividualRating: ni(2),
		MetExpectations:       nb(true),
		WouldRecommend:        nb(true),
		TourHighlight:         ns("Great wildlife and great sunsets"),
		SubmittedAt:           ns("2025-01-02T10:00:00Z"),
	}))
	require.NoError(t, repo.InsertComprehensive(ctx, models.ComprehensiveFeedback{
		ID: "c2", TourID: "T-200",
		OverviewRating: ni(7),
		WouldRecommend: nb(false),
		SubmittedAt:    ns("2025-01-20T15:00:00Z"),
	}))
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) service.AnalyticsSummary {
	t.Helper()
	var summary service.AnalyticsSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	return summary
}

func TestE2E_AnalyticsSummary(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	rec := stack.get(t, "/api/analytics/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeSummary(t, rec)
	assert.Equal(t, 5, summary.TotalFeedback)
	assert.Equal(t, 0, summary.SkippedRecords)

	// Overall satisfaction fractions: 1.0, 0.5, 0.0 on the legacy scale
	// plus 1.0 and 0.0 on the comprehensive scale.
	overall := summary.AverageRatings[feedback.CategoryOverall]
	assert.InDelta(t, 50.0, overall.Average, 0.001)
	assert.Equal(t, 5, overall.Count)

	five := summary.ByScale[feedback.FivePoint]
	assert.Equal(t, 3, five.Total)
	assert.InDelta(t, 3.0, five.CategoryAverages[feedback.CategoryOverall].Average, 0.001)
	assert.Equal(t, 1, five.Distribution[5])
	assert.Equal(t, 1, five.Distribution[3])
	assert.Equal(t, 1, five.Distribution[1])

	seven := summary.ByScale[feedback.SevenPoint]
	assert.Equal(t, 2, seven.Total)
	assert.InDelta(t, 4.0, seven.CategoryAverages[feedback.CategoryOverall].Average, 0.001)

	recommend := summary.SatisfactionRates[feedback.WouldRecommend]
	assert.True(t, recommend.HasData)
	assert.Equal(t, 1, recommend.Yes)
	assert.Equal(t, 1, recommend.No)
	assert.Equal(t, 50, recommend.Percentage)

	assert.Equal(t, 1, summary.SentimentAnalysis[feedback.Positive])
	assert.Equal(t, 1, summary.SentimentAnalysis[feedback.Neutral])
	assert.Equal(t, 1, summary.SentimentAnalysis[feedback.Negative])

	require.NotEmpty(t, summary.CommonThemes)
	assert.Equal(t, "great", summary.CommonThemes[0])
}

func TestE2E_SummaryFilters(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	t.Run("by tour", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/summary?tourId=T-100")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, decodeSummary(t, rec).TotalFeedback)
	})

	t.Run("by date window", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/summary?startDate=2025-01-01&endDate=2025-01-31")
		require.Equal(t, http.StatusOK, rec.Code)

		summary := decodeSummary(t, rec)
		assert.Equal(t, 4, summary.TotalFeedback)
		require.NotNil(t, summary.TimePeriod.Start)
		require.NotNil(t, summary.TimePeriod.End)
	})

	t.Run("by minimum rating", func(t *testing.T) {
		// rating_overall >= 4 keeps s1; the comprehensive equivalent keeps
		// c1, whose overview rating of 1 is the best satisfaction fraction.
		rec := stack.get(t, "/api/analytics/summary?minRating=4")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decodeSummary(t, rec).TotalFeedback)
	})
}

func TestE2E_FeedbackListing(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	rec := stack.get(t, "/api/analytics/feedback?tourId=T-100")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total    int               `json:"total"`
		Feedback []feedback.RawRow `json:"feedback"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 3, body.Total)

	ids := make([]string, 0, len(body.Feedback))
	for _, row := range body.Feedback {
		ids = append(ids, row["id"].(string))
	}
	assert.ElementsMatch(t, []string{"s1", "s3", "c1"}, ids)
}

func TestE2E_Export(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	t.Run("csv", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/export?format=csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, rec.Body.String(), "Guide Professionalism")
		assert.Contains(t, rec.Body.String(), "T-100")
	})

	t.Run("json", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/export?format=json")
		require.Equal(t, http.StatusOK, rec.Code)

		var envelope map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Contains(t, envelope, "exportDate")
		assert.Contains(t, envelope, "analytics")
		assert.Len(t, envelope["submissions"], 5)
	})

	t.Run("xlsx", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/export?format=xlsx")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Body.Bytes())
	})
}

func TestE2E_SubmitWorkflow(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	t.Run("legacy submission lands in the five point table", func(t *testing.T) {
		rec := stack.post(t, "/api/feedback", map[string]any{
			"tour_id":        "T-300",
			"rating_overall": 4,
			"comments":       "Smooth trip",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var created map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
		require.NotEmpty(t, created["id"])

		summaryRec := stack.get(t, "/api/analytics/summary?tourId=T-300")
		require.Equal(t, http.StatusOK, summaryRec.Code)
		summary := decodeSummary(t, summaryRec)
		assert.Equal(t, 1, summary.TotalFeedback)
		assert.Equal(t, 1, summary.ByScale[feedback.FivePoint].Total)
	})

	t.Run("comprehensive submission lands in the seven point table", func(t *testing.T) {
		rec := stack.post(t, "/api/feedback", map[string]any{
			"tour_id":         "T-400",
			"overview_rating": 2,
			"would_recommend": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		summaryRec := stack.get(t, "/api/analytics/summary?tourId=T-400")
		require.Equal(t, http.StatusOK, summaryRec.Code)
		summary := decodeSummary(t, summaryRec)
		assert.Equal(t, 1, summary.TotalFeedback)
		assert.Equal(t, 1, summary.ByScale[feedback.SevenPoint].Total)
	})

	t.Run("out of range rating is rejected", func(t *testing.T) {
		rec := stack.post(t, "/api/feedback", map[string]any{
			"tour_id":        "T-500",
			"rating_overall": 9,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestE2E_CachingBehavior(t *testing.T) {
	cache := mocks.NewTrackingCache()
	stack := newTestStack(t, cache)
	seedFeedback(t, stack.repo)

	first := stack.get(t, "/api/analytics/summary")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, cache.GetCalls())

	// The store after a miss is asynchronous.
	require.Eventually(t, func() bool {
		return cache.SetCalls() >= 1
	}, 2*time.Second, 10*time.Millisecond, "summary should be cached after the first miss")

	second := stack.get(t, "/api/analytics/summary")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, 2, cache.GetCalls())
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestE2E_ErrorScenarios(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})

	t.Run("export with no data", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/export?format=csv")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("inverted date window", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/summary?startDate=2025-02-01&endDate=2025-01-01")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("minRating out of bounds", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/summary?minRating=9")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown export format", func(t *testing.T) {
		rec := stack.get(t, "/api/analytics/export?format=pdf")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestE2E_PerformanceBaseline(t *testing.T) {
	stack := newTestStack(t, &mocks.InMemoryCache{})
	seedFeedback(t, stack.repo)

	// Sequential calls only; in-memory SQLite does not tolerate concurrent
	// writers and this baseline is about end-to-end latency, not throughput.
	const rounds = 5
	start := time.Now()
	for i := 0; i < rounds; i++ {
		for _, path := range []string{
			"/api/analytics/summary",
			"/api/analytics/feedback",
			"/api/analytics/export?format=csv",
		} {
			rec := stack.get(t, path)
			require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("round %d: %s", i+1, path))
		}
	}
	elapsed := time.Since(start)
	t.Logf("completed %d sequential calls in %v", rounds*3, elapsed)
	require.Less(t, elapsed, 2*time.Second)
}
