package ports

import (
	"context"
	"io"

	"biasev/domain/dataset"
	"biasev/domain/stats"
)

// DatasetReader parses an uploaded byte stream in a declared format
type DatasetReader interface {
	Read(src io.Reader, format dataset.Format, name string) (*dataset.Table, error)
}

// AnovaRunner fits an additive linear model and decomposes its variance
type AnovaRunner interface {
	RunAnova(ctx context.Context, table *dataset.Table, req stats.AnovaRequest) (*stats.AnovaTable, error)
}
