package artifact

import (
	"context"
	"fmt"
	"math"

	"biasev/domain/model"
	"biasev/internal/errors"
)

// LinearModel scores rows with intercept + sum(coefficient * feature).
// It is immutable after construction.
type LinearModel struct {
	schema       model.Schema
	coefficients []float64
	intercept    float64
	target       string
}

// NewLinearModel builds a model from a validated artifact
func NewLinearModel(a *LinearArtifact) (*LinearModel, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.ModelUnavailable(err)
	}
	schema, err := model.NumericSchema(a.FeatureNames)
	if err != nil {
		return nil, errors.ModelUnavailable(err)
	}
	coefficients := make([]float64, len(a.Coefficients))
	copy(coefficients, a.Coefficients)

	return &LinearModel{
		schema:       schema,
		coefficients: coefficients,
		intercept:    a.Intercept,
		target:       a.Target,
	}, nil
}

// LoadLinearModel reads an artifact from disk and builds the model
func LoadLinearModel(path string) (*LinearModel, error) {
	a, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewLinearModel(a)
}

// Schema returns the model's ordered input fields
func (m *LinearModel) Schema() model.Schema {
	return m.schema
}

// Target names the column the model was trained to predict
func (m *LinearModel) Target() string {
	return m.target
}

// Predict scores a row whose names must match the schema exactly and in order
func (m *LinearModel) Predict(ctx context.Context, row model.InputRow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	names := m.schema.Names()
	if len(row.Names) != len(names) || len(row.Values) != len(names) {
		return 0, errors.PredictionError(fmt.Errorf("row has %d features, model expects %d", len(row.Names), len(names)))
	}

	sum := m.intercept
	for i, name := range names {
		if row.Names[i] != name {
			return 0, errors.PredictionError(fmt.Errorf("feature %d is %q, model expects %q", i, row.Names[i], name))
		}
		sum += m.coefficients[i] * row.Values[i]
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, errors.PredictionError(fmt.Errorf("prediction is not a finite number"))
	}
	return sum, nil
}
