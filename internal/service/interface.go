package service

import (
	"context"

	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
)

// FeedbackRepository defines the storage operations the service needs.
type FeedbackRepository interface {
	FetchRows(ctx context.Context, f models.Filter) ([]feedback.RawRow, error)
	InsertSimple(ctx context.Context, row models.SimpleFeedback) error
	InsertComprehensive(ctx context.Context, row models.ComprehensiveFeedback) error
}
