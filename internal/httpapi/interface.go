package httpapi

import (
	"context"
	"time"

	"github.com/overlandtours/feedback-server/internal/export"
	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
	"github.com/overlandtours/feedback-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// AnalyticsService is the application surface the HTTP handlers expose.
type AnalyticsService interface {
	GetAnalyticsSummary(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error)
	GetFeedback(ctx context.Context, f models.Filter) ([]feedback.RawRow, error)
	SubmitFeedback(ctx context.Context, raw feedback.RawRow) (string, error)
	ExportFeedback(ctx context.Context, f models.Filter, format string) (export.File, error)
}
