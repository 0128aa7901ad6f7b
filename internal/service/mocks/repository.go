package mocks

import (
	"context"
	"errors"

	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository
// interface for testing the service layer.
type MockFeedbackRepository struct {
	FetchRowsFunc           func(ctx context.Context, f models.Filter) ([]feedback.RawRow, error)
	InsertSimpleFunc        func(ctx context.Context, row models.SimpleFeedback) error
	InsertComprehensiveFunc func(ctx context.Context, row models.ComprehensiveFeedback) error
}

func (m *MockFeedbackRepository) FetchRows(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	if m.FetchRowsFunc != nil {
		return m.FetchRowsFunc(ctx, f)
	}
	return nil, errors.New("FetchRowsFunc not implemented")
}

func (m *MockFeedbackRepository) InsertSimple(ctx context.Context, row models.SimpleFeedback) error {
	if m.InsertSimpleFunc != nil {
		return m.InsertSimpleFunc(ctx, row)
	}
	return errors.New("InsertSimpleFunc not implemented")
}

func (m *MockFeedbackRepository) InsertComprehensive(ctx context.Context, row models.ComprehensiveFeedback) error {
	if m.InsertComprehensiveFunc != nil {
		return m.InsertComprehensiveFunc(ctx, row)
	}
	return errors.New("InsertComprehensiveFunc not implemented")
}
