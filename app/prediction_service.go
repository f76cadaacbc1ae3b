package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"biasev/domain/dataset"
	"biasev/domain/model"
	"biasev/internal/errors"
	"biasev/ports"

	"go.uber.org/zap"
)

// Prediction is one scored submission
type Prediction struct {
	Row      model.InputRow
	Severity float64
}

// Display formats the severity the way the form shows it
func (p *Prediction) Display() string {
	return fmt.Sprintf("Predicted Severity: %.2f", p.Severity)
}

// PredictionService wraps the process-wide severity model. A model that
// failed to load is remembered so every request reports the same cause.
type PredictionService struct {
	model   ports.SeverityModel
	loadErr error
	logger  *zap.Logger
}

// NewPredictionService creates a prediction service. Pass the load error
// instead of a model when the artifact could not be loaded.
func NewPredictionService(m ports.SeverityModel, loadErr error, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil && loadErr == nil {
		loadErr = errors.ModelUnavailable(fmt.Errorf("no model configured"))
	}
	if loadErr != nil && !errors.HasCode(loadErr, errors.CodeModelUnavailable) {
		loadErr = errors.ModelUnavailable(loadErr)
	}
	return &PredictionService{model: m, loadErr: loadErr, logger: logger.Named("prediction")}
}

// Available reports whether a model is loaded
func (s *PredictionService) Available() bool {
	return s.loadErr == nil
}

// Schema returns the model's input schema
func (s *PredictionService) Schema() (model.Schema, error) {
	if s.loadErr != nil {
		return model.Schema{}, s.loadErr
	}
	return s.model.Schema(), nil
}

// PredictForm parses raw form values and scores them. Blank fields take the
// field default.
func (s *PredictionService) PredictForm(ctx context.Context, form map[string]string) (*Prediction, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(schema.Fields))
	for _, field := range schema.Fields {
		raw := strings.TrimSpace(form[field.Name])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: %q is not a number", field.Name, raw))
		}
		values[field.Name] = v
	}
	return s.Predict(ctx, values)
}

// Predict builds one input row from values and scores it
func (s *PredictionService) Predict(ctx context.Context, values map[string]float64) (*Prediction, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}

	row, err := schema.NewRow(values)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	severity, err := s.score(ctx, row)
	if err != nil {
		s.logger.Warn("Prediction failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Prediction served", zap.Float64("severity", severity))
	return &Prediction{Row: row, Severity: severity}, nil
}

func (s *PredictionService) score(ctx context.Context, row model.InputRow) (severity float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.PredictionError(fmt.Errorf("model panicked: %v", r))
		}
	}()

	severity, err = s.model.Predict(ctx, row)
	if err != nil && !errors.IsAppError(err) && ctx.Err() == nil {
		err = errors.PredictionError(err)
	}
	return severity, err
}

// MissingFeatures lists model features absent from the table's columns.
// It is informational only; model input is always entered by hand.
func (s *PredictionService) MissingFeatures(table *dataset.Table) []string {
	if table == nil || s.loadErr != nil {
		return nil
	}
	var missing []string
	for _, name := range s.model.Schema().Names() {
		if !table.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
