package ports

import (
	"context"

	"biasev/domain/model"
)

// SeverityModel is a trained, read-only regression model.
// Implementations must be safe for concurrent use.
type SeverityModel interface {
	// Schema returns the ordered input fields the model expects
	Schema() model.Schema
	// Predict scores one input row
	Predict(ctx context.Context, row model.InputRow) (float64, error)
}
