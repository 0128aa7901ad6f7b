package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
	"github.com/overlandtours/feedback-server/internal/service"
)

const (
	defaultCacheDuration  = 10 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	maxSubmissionBody     = 1 << 20
)

type CacheKeyType string

const (
	cacheKeySummary CacheKeyType = "http:analytics_summary"
)

// HTTPHandlers serves the analytics API. Summary responses are cached
// read-through; record listings and exports always hit storage.
type HTTPHandlers struct {
	analytics AnalyticsService
	cache     Cacher
	logger    *zap.Logger
	sfGroup   singleflight.Group
	cacheTTL  time.Duration
}

// NewHTTPHandlers initializes the HTTP handlers.
func NewHTTPHandlers(analytics AnalyticsService, cache Cacher, logger *zap.Logger, ttl time.Duration) *HTTPHandlers {
	if analytics == nil {
		panic("nil AnalyticsService provided to NewHTTPHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &HTTPHandlers{
		analytics: analytics,
		cache:     cache,
		logger:    logger.Named("http-handler"),
		cacheTTL:  ttl,
	}
}

// Register wires the API routes onto the mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analytics/summary", h.GetAnalyticsSummary)
	mux.HandleFunc("/api/analytics/feedback", h.GetFeedback)
	mux.HandleFunc("/api/analytics/export", h.ExportFeedback)
	mux.HandleFunc("/api/feedback", h.SubmitFeedback)
}

// parseFilter validates the shared query parameters. Dates are
// YYYY-MM-DD; the end bound is extended to the last instant of its day so
// the window is inclusive.
func parseFilter(values url.Values) (models.Filter, error) {
	f := models.Filter{TourID: values.Get("tourId")}

	if raw := values.Get("startDate"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return models.Filter{}, fmt.Errorf("invalid startDate %q", raw)
		}
		f.Start = &start
	}
	if raw := values.Get("endDate"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return models.Filter{}, fmt.Errorf("invalid endDate %q", raw)
		}
		end = end.Add(24*time.Hour - time.Millisecond)
		f.End = &end
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return models.Filter{}, errors.New("endDate must not be before startDate")
	}

	if raw := values.Get("minRating"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil || min < 1 || min > 5 {
			return models.Filter{}, fmt.Errorf("invalid minRating %q: want 1-5", raw)
		}
		f.MinRating = min
	}

	return f, nil
}

func summaryCacheKey(f models.Filter) string {
	start, end := "", ""
	if f.Start != nil {
		start = f.Start.UTC().Format("2006-01-02")
	}
	if f.End != nil {
		end = f.End.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%s:%s:%d", cacheKeySummary, f.TourID, start, end, f.MinRating)
}

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(code int, w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing left to do but log.
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func (h *HTTPHandlers) handleError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		RespondWithJSON(http.StatusServiceUnavailable, w, map[string]string{"message": "request canceled"})
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		RespondWithJSON(http.StatusGatewayTimeout, w, map[string]string{"message": "request timed out"})
		return
	}

	switch {
	case errors.Is(err, service.ErrNoFeedback):
		h.logger.Info("no feedback found", zap.String("op", op))
		RespondWithJSON(http.StatusNotFound, w, map[string]string{"message": "no feedback data available"})
	case errors.Is(err, service.ErrInvalidSubmission), errors.Is(err, service.ErrUnknownFormat):
		h.logger.Info("rejected request", zap.String("op", op), zap.Error(err))
		RespondWithJSON(http.StatusBadRequest, w, map[string]string{"message": err.Error()})
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		RespondWithJSON(http.StatusServiceUnavailable, w, map[string]string{"message": "storage error"})
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		RespondWithJSON(http.StatusInternalServerError, w, map[string]string{"message": op + " failed"})
	}
}

// GetAnalyticsSummary handles GET /api/analytics/summary.
func (h *HTTPHandlers) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RespondWithJSON(http.StatusMethodNotAllowed, w, map[string]string{"message": "method not allowed"})
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		RespondWithJSON(http.StatusBadRequest, w, map[string]string{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	summary, err := FindAndCache(ctx, h.cache, &h.sfGroup, summaryCacheKey(f), h.cacheTTL, h.logger,
		func(fetchCtx context.Context) (service.AnalyticsSummary, error) {
			return h.analytics.GetAnalyticsSummary(fetchCtx, f)
		})
	if err != nil {
		h.handleError(ctx, w, "GetAnalyticsSummary", err)
		return
	}

	RespondWithJSON(http.StatusOK, w, summary)
}

// GetFeedback handles GET /api/analytics/feedback: the filtered raw rows.
func (h *HTTPHandlers) GetFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RespondWithJSON(http.StatusMethodNotAllowed, w, map[string]string{"message": "method not allowed"})
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		RespondWithJSON(http.StatusBadRequest, w, map[string]string{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	rows, err := h.analytics.GetFeedback(ctx, f)
	if err != nil {
		h.handleError(ctx, w, "GetFeedback", err)
		return
	}
	if rows == nil {
		rows = []feedback.RawRow{}
	}

	RespondWithJSON(http.StatusOK, w, map[string]any{
		"total":    len(rows),
		"feedback": rows,
	})
}

// ExportFeedback handles GET /api/analytics/export?format=csv|json|xlsx.
func (h *HTTPHandlers) ExportFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RespondWithJSON(http.StatusMethodNotAllowed, w, map[string]string{"message": "method not allowed"})
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		RespondWithJSON(http.StatusBadRequest, w, map[string]string{"message": err.Error()})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	file, err := h.analytics.ExportFeedback(ctx, f, format)
	if err != nil {
		h.handleError(ctx, w, "ExportFeedback", err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write export body", zap.Error(err))
	}
}

// SubmitFeedback handles POST /api/feedback.
func (h *HTTPHandlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RespondWithJSON(http.StatusMethodNotAllowed, w, map[string]string{"message": "method not allowed"})
		return
	}

	var raw feedback.RawRow
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBody)).Decode(&raw); err != nil {
		RespondWithJSON(http.StatusBadRequest, w, map[string]string{"message": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	id, err := h.analytics.SubmitFeedback(ctx, raw)
	if err != nil {
		h.handleError(ctx, w, "SubmitFeedback", err)
		return
	}

	RespondWithJSON(http.StatusCreated, w, map[string]string{"id": id})
}
