package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/overlandtours/feedback-server/internal/export"
	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
)

const dbTimeout = 3 * time.Second

var (
	ErrNoFeedback        = errors.New("no feedback found")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrUnknownFormat     = errors.New("unknown export format")
)

// AnalyticsService turns stored feedback rows into analytics summaries,
// filtered record listings, and export files. Each call fetches and
// normalizes a fresh snapshot; nothing is cached at this layer.
type AnalyticsService struct {
	storage FeedbackRepository
	logger  *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(storage FeedbackRepository, logger *zap.Logger) *AnalyticsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &AnalyticsService{
		storage: storage,
		logger:  logger,
	}
}

// GetAnalyticsSummary computes the full analytics envelope for the filtered
// window. An empty window yields a zero-valued summary rather than an
// error; dashboards render that as "no data".
func (s *AnalyticsService) GetAnalyticsSummary(ctx context.Context, f models.Filter) (AnalyticsSummary, error) {
	records, skipped, err := s.fetchNormalized(ctx, f)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	summary := s.buildSummary(records, skipped, f)

	s.logger.Info("computed analytics summary",
		zap.Int("total", summary.TotalFeedback),
		zap.Int("skipped", skipped),
		zap.String("tour_id", f.TourID))

	return summary, nil
}

// GetFeedback returns the filtered raw rows without aggregation, for the
// record-browsing view.
func (s *AnalyticsService) GetFeedback(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.FetchRows(dbCtx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return rows, nil
}

// SubmitFeedback validates and stores one submission of either schema,
// minting an id and submission timestamp when absent. It returns the
// stored id.
func (s *AnalyticsService) SubmitFeedback(ctx context.Context, raw feedback.RawRow) (string, error) {
	if err := feedback.ValidateSubmission(raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	if _, ok := raw["id"].(string); !ok {
		raw["id"] = uuid.NewString()
	}
	if _, ok := raw["submitted_at"].(string); !ok {
		raw["submitted_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var err error
	if feedback.DetectScale(raw) == feedback.SevenPoint {
		err = s.storage.InsertComprehensive(dbCtx, models.ComprehensiveFromRaw(raw))
	} else {
		err = s.storage.InsertSimple(dbCtx, models.SimpleFromRaw(raw))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	id, _ := raw["id"].(string)
	s.logger.Info("stored feedback submission",
		zap.String("id", id),
		zap.String("scale", string(feedback.DetectScale(raw))))
	return id, nil
}

// ExportFeedback renders the filtered window as a downloadable file.
// Supported formats: csv, json, xlsx.
func (s *AnalyticsService) ExportFeedback(ctx context.Context, f models.Filter, format string) (export.File, error) {
	records, skipped, err := s.fetchNormalized(ctx, f)
	if err != nil {
		return export.File{}, err
	}
	if len(records) == 0 {
		return export.File{}, ErrNoFeedback
	}

	switch format {
	case "csv":
		return export.CSV(records)
	case "json":
		return export.JSON(s.buildSummary(records, skipped, f), records)
	case "xlsx":
		return export.Workbook(feedback.Aggregate(records), records)
	default:
		return export.File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (s *AnalyticsService) fetchNormalized(ctx context.Context, f models.Filter) ([]feedback.Record, int, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.FetchRows(dbCtx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	res := feedback.NormalizeAll(rows, s.logger)
	return res.Records, res.Skipped, nil
}

func (s *AnalyticsService) buildSummary(records []feedback.Record, skipped int, f models.Filter) AnalyticsSummary {
	agg := feedback.Aggregate(records)

	return AnalyticsSummary{
		TotalFeedback:     agg.TotalSubmissions,
		SkippedRecords:    skipped,
		AverageRatings:    agg.Satisfaction,
		ByScale:           agg.ByScale,
		SatisfactionRates: agg.Booleans,
		CrewPerformance:   agg.Crew,
		SentimentAnalysis: feedback.SentimentCounts(records),
		CommonThemes:      feedback.ExtractThemes(feedback.Comments(records), feedback.DefaultThemeCount),
		TimePeriod:        TimePeriod{Start: f.Start, End: f.End},
	}
}
