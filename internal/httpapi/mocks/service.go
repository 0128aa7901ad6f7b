package mocks

import (
	"context"
	"errors"

	"github.com/overlandtours/feedback-server/internal/export"
	"github.com/overlandtours/feedback-server/internal/feedback"
	"github.com/overlandtours/feedback-server/internal/repository/models"
	"github.com/overlandtours/feedback-server/internal/service"
)

// MockAnalyticsService is a func-field mock of the AnalyticsService
// interface for testing the HTTP handlers.
type MockAnalyticsService struct {
	GetAnalyticsSummaryFunc func(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error)
	GetFeedbackFunc         func(ctx context.Context, f models.Filter) ([]feedback.RawRow, error)
	SubmitFeedbackFunc      func(ctx context.Context, raw feedback.RawRow) (string, error)
	ExportFeedbackFunc      func(ctx context.Context, f models.Filter, format string) (export.File, error)
}

func (m *MockAnalyticsService) GetAnalyticsSummary(ctx context.Context, f models.Filter) (service.AnalyticsSummary, error) {
	if m.GetAnalyticsSummaryFunc != nil {
		return m.GetAnalyticsSummaryFunc(ctx, f)
	}
	return service.AnalyticsSummary{}, errors.New("GetAnalyticsSummaryFunc not implemented")
}

func (m *MockAnalyticsService) GetFeedback(ctx context.Context, f models.Filter) ([]feedback.RawRow, error) {
	if m.GetFeedbackFunc != nil {
		return m.GetFeedbackFunc(ctx, f)
	}
	return nil, errors.New("GetFeedbackFunc not implemented")
}

func (m *MockAnalyticsService) SubmitFeedback(ctx context.Context, raw feedback.RawRow) (string, error) {
	if m.SubmitFeedbackFunc != nil {
		return m.SubmitFeedbackFunc(ctx, raw)
	}
	return "", errors.New("SubmitFeedbackFunc not implemented")
}

func (m *MockAnalyticsService) ExportFeedback(ctx context.Context, f models.Filter, format string) (export.File, error) {
	if m.ExportFeedbackFunc != nil {
		return m.ExportFeedbackFunc(ctx, f, format)
	}
	return export.File{}, errors.New("ExportFeedbackFunc not implemented")
}
