package engine

import (
	"context"
	"time"

	"biasev/domain/dataset"
	"biasev/domain/stats"
	"biasev/internal/errors"

	"go.uber.org/zap"
)

// StatsEngine runs least-squares fits and significance tests over uploaded tables
type StatsEngine struct {
	logger *zap.Logger
}

// NewStatsEngine creates a new statistical engine
func NewStatsEngine(logger *zap.Logger) *StatsEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsEngine{logger: logger.Named("stats")}
}

// RunAnova fits an additive OLS model of req.Target on req.Predictors and
// returns its type-2 ANOVA decomposition. Every failure is a FIT_ERROR.
func (e *StatsEngine) RunAnova(ctx context.Context, table *dataset.Table, req stats.AnovaRequest) (*stats.AnovaTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	design, err := buildDesign(table, req, true)
	if err != nil {
		return nil, err
	}

	result, err := typeTwoAnova(design)
	if err != nil {
		e.logger.Warn("ANOVA fit failed", zap.String("target", req.Target), zap.Error(err))
		return nil, err
	}

	e.logger.Info("ANOVA completed",
		zap.String("target", result.Target),
		zap.Int("predictors", len(result.Predictors)),
		zap.Int("observations", result.NObs),
		zap.Int("dropped_rows", result.Dropped),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// FitLinear fits target on numeric features by OLS and returns the coefficients
func (e *StatsEngine) FitLinear(ctx context.Context, table *dataset.Table, target string, features []string) (*LinearFit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	design, err := buildDesign(table, stats.AnovaRequest{Target: target, Predictors: features}, false)
	if err != nil {
		return nil, err
	}

	fit, err := fitOLS(design.x, design.y)
	if err != nil {
		return nil, err
	}

	coefficients := make([]float64, len(design.terms))
	for i, term := range design.terms {
		coefficients[i] = fit.beta.AtVec(term.start)
	}

	out := &LinearFit{
		Target:       design.target,
		Features:     design.termNames(),
		Coefficients: coefficients,
		Intercept:    fit.beta.AtVec(0),
		NObs:         design.n(),
		RSquared:     fit.rSquared(design.y),
	}
	e.logger.Info("Linear fit completed",
		zap.String("target", out.Target),
		zap.Int("features", len(out.Features)),
		zap.Int("observations", out.NObs),
		zap.Float64("r_squared", out.RSquared))
	return out, nil
}

// LinearFit is the result of a numeric OLS fit
type LinearFit struct {
	Target       string
	Features     []string
	Coefficients []float64
	Intercept    float64
	NObs         int
	RSquared     float64
}

func fitError(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeFitError, format, args...)
}
