package app

import (
	"context"
	"time"

	"biasev/adapters/artifact"
	"biasev/adapters/stats/engine"
	"biasev/domain/dataset"
)

// TrainingService fits linear severity models offline
type TrainingService struct {
	engine *engine.StatsEngine
	now    func() time.Time
}

// NewTrainingService creates a training service
func NewTrainingService(e *engine.StatsEngine) *TrainingService {
	return &TrainingService{engine: e, now: time.Now}
}

// Train fits target on features (every other column when empty) and returns
// an artifact ready to be saved
func (s *TrainingService) Train(ctx context.Context, table *dataset.Table, target string, features []string) (*artifact.LinearArtifact, error) {
	fit, err := s.engine.FitLinear(ctx, table, target, features)
	if err != nil {
		return nil, err
	}

	return &artifact.LinearArtifact{
		Kind:         artifact.KindLinear,
		Target:       fit.Target,
		FeatureNames: fit.Features,
		Coefficients: fit.Coefficients,
		Intercept:    fit.Intercept,
		NObs:         fit.NObs,
		RSquared:     fit.RSquared,
		TrainedAt:    s.now().UTC(),
	}, nil
}
