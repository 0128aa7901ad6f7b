package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/overlandtours/feedback-server/internal/export"
	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/httpapi/mocks"
	"github.com/overlandtours/feedback-server/internal/repository/models"
	"github.com/overlandtours/feedback-server/internal/service"
)

func newHandlers(svc AnalyticsService) *HTTPHandlers {
	return NewHTTPHandlers(svc, &mocks.MockCache{}, zap.NewNop(), time.Minute)
}

func TestParseFilter(t *testing.T) {
	t.Run("end date extended to end of day", func(t *testing.T) {
		f, err := parseFilter(url.Values{
			"startDate": {"2025-05-01"},
			"endDate":   {"2025-05-31"},
		})
		require.NoError(t, err)

		require.NotNil(t, f.End)
		assert.Equal(t, 23, f.End.Hour())
		assert.Equal(t, 59, f.End.Minute())
		assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), f.Start.UTC())
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := parseFilter(url.Values{"startDate": {"31/05/2025"}})
		assert.Error(t, err)
	})

	t.Run("inverted window", func(t *testing.T) {
		_, err := parseFilter(url.Values{
			"startDate": {"2025-06-01"},
			"endDate":   {"2025-05-01"},
		})
		assert.Error(t, err)
	})

	t.Run("min rating bounds", func(t *testing.T) {
		_, err := parseFilter(url.Values{"minRating": {"9"}})
		assert.Error(t, err)

		f, err := parseFilter(url.Values{"minRating": {"4"}})
		require.NoError(t, err)
		assert.Equal(t, 4, f.MinRating)
	})
}

func TestGetAnalyticsSummary(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			GetAnalyticsSummaryFunc: func(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error) {
				assert.Equal(t, "kili-7", f.TourID)
				return service.AnalyticsSummary{TotalFeedback: 3}, nil
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary?tourId=kili-7", nil)
		rec := httptest.NewRecorder()
		h.GetAnalyticsSummary(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got service.AnalyticsSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 3, got.TotalFeedback)
	})

	t.Run("bad query", func(t *testing.T) {
		h := newHandlers(&mocks.MockAnalyticsService{})

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary?minRating=nine", nil)
		rec := httptest.NewRecorder()
		h.GetAnalyticsSummary(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			GetAnalyticsSummaryFunc: func(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error) {
				return service.AnalyticsSummary{}, service.ErrStorageFailure
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary", nil)
		rec := httptest.NewRecorder()
		h.GetAnalyticsSummary(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		h := newHandlers(&mocks.MockAnalyticsService{})

		req := httptest.NewRequest(http.MethodPost, "/api/analytics/summary", nil)
		rec := httptest.NewRecorder()
		h.GetAnalyticsSummary(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("served from cache", func(t *testing.T) {
		cached := service.AnalyticsSummary{TotalFeedback: 42}
		cache := &mocks.MockCache{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				data, _ := json.Marshal(cached)
				return json.Unmarshal(data, dest)
			},
		}
		svc := &mocks.MockAnalyticsService{
			GetAnalyticsSummaryFunc: func(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error) {
				return service.AnalyticsSummary{TotalFeedback: 0}, nil
			},
		}
		h := NewHTTPHandlers(svc, cache, zap.NewNop(), time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary", nil)
		rec := httptest.NewRecorder()
		h.GetAnalyticsSummary(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got service.AnalyticsSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 42, got.TotalFeedback)
	})
}

func TestGetFeedback(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			GetFeedbackFunc: func(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
				return []feedback.RawRow{{"id": "s1", "tour_id": "kili-7"}}, nil
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/feedback", nil)
		rec := httptest.NewRecorder()
		h.GetFeedback(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			Total    int               `json:"total"`
			Feedback []map[string]any  `json:"feedback"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, "s1", got.Feedback[0]["id"])
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			GetFeedbackFunc: func(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
				return nil, nil
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/feedback", nil)
		rec := httptest.NewRecorder()
		h.GetFeedback(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"feedback":[]`)
	})
}

func TestExportFeedback(t *testing.T) {
	t.Run("csv attachment", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			ExportFeedbackFunc: func(ctx context.Context, f models.Filter, format string) (export.File, error) {
				assert.Equal(t, "csv", format)
				return export.File{
					Name:        "feedback_export.csv",
					ContentType: "text/csv",
					Data:        []byte("Tour ID\n"),
				}, nil
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/export", nil)
		rec := httptest.NewRecorder()
		h.ExportFeedback(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "feedback_export.csv")
		assert.Equal(t, "Tour ID\n", rec.Body.String())
	})

	t.Run("no feedback", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			ExportFeedbackFunc: func(ctx context.Context, f models.Filter, format string) (export.File, error) {
				return export.File{}, service.ErrNoFeedback
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/export?format=csv", nil)
		rec := httptest.NewRecorder()
		h.ExportFeedback(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			ExportFeedbackFunc: func(ctx context.Context, f models.Filter, format string) (export.File, error) {
				return export.File{}, service.ErrUnknownFormat
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/analytics/export?format=pdf", nil)
		rec := httptest.NewRecorder()
		h.ExportFeedback(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitFeedback(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			SubmitFeedbackFunc: func(ctx context.Context, raw feedback.RawRow) (string, error) {
				assert.Equal(t, "kili-7", raw["tour_id"])
				return "new-id", nil
			},
		}
		h := newHandlers(svc)

		body := strings.NewReader(`{"tour_id": "kili-7", "rating_overall": 5}`)
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", body)
		rec := httptest.NewRecorder()
		h.SubmitFeedback(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "new-id")
	})

	t.Run("invalid body", func(t *testing.T) {
		h := newHandlers(&mocks.MockAnalyticsService{})

		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.SubmitFeedback(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid submission", func(t *testing.T) {
		svc := &mocks.MockAnalyticsService{
			SubmitFeedbackFunc: func(ctx context.Context, raw feedback.RawRow) (string, error) {
				return "", service.ErrInvalidSubmission
			},
		}
		h := newHandlers(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		h.SubmitFeedback(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get not allowed", func(t *testing.T) {
		h := newHandlers(&mocks.MockAnalyticsService{})

		req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
		rec := httptest.NewRecorder()
		h.SubmitFeedback(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
