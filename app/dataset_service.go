package app

import (
	"context"
	"fmt"
	"io"

	"biasev/adapters/excel"
	"biasev/adapters/stats/engine"
	"biasev/domain/dataset"
	"biasev/domain/stats"
	"biasev/internal/errors"
	"biasev/ports"

	"go.uber.org/zap"
)

// DatasetService owns the upload path and the per-session dataset
type DatasetService struct {
	reader   ports.DatasetReader
	store    ports.SessionStore
	maxBytes int64
	logger   *zap.Logger
}

// DatasetPreview is what the page shows about the loaded table
type DatasetPreview struct {
	Table     *dataset.Table
	Head      [][]string
	Summaries []stats.ColumnSummary
}

// NewDatasetService creates a dataset service
func NewDatasetService(reader ports.DatasetReader, store ports.SessionStore, maxBytes int64, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetService{
		reader:   reader,
		store:    store,
		maxBytes: maxBytes,
		logger:   logger.Named("dataset"),
	}
}

// Upload parses src and makes it the session's dataset. On any failure the
// session is left with no dataset loaded.
func (s *DatasetService) Upload(ctx context.Context, sessionID, filename string, src io.Reader) (*dataset.Table, error) {
	table, err := s.parse(ctx, filename, src)
	if err != nil {
		s.store.Clear(sessionID)
		s.logger.Info("Upload rejected", zap.String("session", sessionID), zap.String("file", filename), zap.Error(err))
		return nil, err
	}

	s.store.Replace(sessionID, table)
	return table, nil
}

// Parse reads an upload without touching any session
func (s *DatasetService) Parse(ctx context.Context, filename string, src io.Reader) (*dataset.Table, error) {
	return s.parse(ctx, filename, src)
}

func (s *DatasetService) parse(ctx context.Context, filename string, src io.Reader) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := excel.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	limited := &io.LimitedReader{R: src, N: s.maxBytes + 1}
	table, err := s.reader.Read(limited, format, filename)
	if limited.N <= 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("file exceeds the %d MB upload limit", s.maxBytes/(1024*1024)))
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Clear drops the session's dataset
func (s *DatasetService) Clear(sessionID string) {
	s.store.Clear(sessionID)
}

// Touch keeps the session's dataset alive
func (s *DatasetService) Touch(sessionID string) {
	s.store.Touch(sessionID)
}

// Current returns the session's dataset, or nil
func (s *DatasetService) Current(sessionID string) *dataset.Table {
	return s.store.Dataset(sessionID)
}

// Preview returns the first rows and numeric summaries of the session's dataset
func (s *DatasetService) Preview(sessionID string, rows int) *DatasetPreview {
	table := s.store.Dataset(sessionID)
	if table == nil {
		return nil
	}
	return &DatasetPreview{
		Table:     table,
		Head:      table.Head(rows),
		Summaries: engine.Summarize(table),
	}
}
