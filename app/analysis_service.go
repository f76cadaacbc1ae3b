package app

import (
	"context"

	"biasev/domain/dataset"
	"biasev/domain/stats"
	"biasev/internal/errors"
	"biasev/ports"
)

// AnalysisService runs significance tests against loaded datasets
type AnalysisService struct {
	runner ports.AnovaRunner
	store  ports.SessionStore
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(runner ports.AnovaRunner, store ports.SessionStore) *AnalysisService {
	return &AnalysisService{runner: runner, store: store}
}

// RunForSession runs ANOVA on the session's current dataset
func (s *AnalysisService) RunForSession(ctx context.Context, sessionID string, req stats.AnovaRequest) (*stats.AnovaTable, error) {
	table := s.store.Dataset(sessionID)
	if table == nil {
		return nil, errors.FitError("no dataset loaded; upload a CSV or Excel file first")
	}
	return s.Run(ctx, table, req)
}

// Run runs ANOVA on the given table. Every failure is reported as a FIT_ERROR.
func (s *AnalysisService) Run(ctx context.Context, table *dataset.Table, req stats.AnovaRequest) (result *stats.AnovaTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.Newf(errors.CodeFitError, "ANOVA failed: %v", r)
		}
	}()

	result, err = s.runner.RunAnova(ctx, table, req)
	if err != nil && !errors.HasCode(err, errors.CodeFitError) && ctx.Err() == nil {
		err = errors.WithCode(errors.CodeFitError, err)
	}
	return result, err
}
