package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"biasev/adapters/excel"
	"biasev/adapters/stats/engine"
	"biasev/domain/dataset"
	"biasev/domain/model"
	"biasev/domain/stats"
	"biasev/internal/errors"
	"biasev/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSeverityModel implements ports.SeverityModel
type MockSeverityModel struct {
	mock.Mock
	schema model.Schema
}

func (m *MockSeverityModel) Schema() model.Schema {
	return m.schema
}

func (m *MockSeverityModel) Predict(ctx context.Context, row model.InputRow) (float64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(float64), args.Error(1)
}

// MockAnovaRunner implements ports.AnovaRunner
type MockAnovaRunner struct {
	mock.Mock
}

func (m *MockAnovaRunner) RunAnova(ctx context.Context, table *dataset.Table, req stats.AnovaRequest) (*stats.AnovaTable, error) {
	args := m.Called(ctx, table, req)
	result, _ := args.Get(0).(*stats.AnovaTable)
	return result, args.Error(1)
}

func newMockModel(t *testing.T, names ...string) *MockSeverityModel {
	t.Helper()
	schema, err := model.NumericSchema(names)
	require.NoError(t, err)
	return &MockSeverityModel{schema: schema}
}

const twoUploadsFirst = "Fat%,Severity\n30,1\n35,2\n40,3\n"
const twoUploadsSecond = "Muscle%,Severity\n22,2\n"

func newDatasetService(maxBytes int64) (*DatasetService, *session.MemoryStore) {
	store := session.NewMemoryStore(time.Hour, nil)
	return NewDatasetService(excel.NewDataReader(nil), store, maxBytes, nil), store
}

func TestUploadReplacesPreviousDataset(t *testing.T) {
	svc, _ := newDatasetService(1 << 20)
	ctx := context.Background()
	id := session.NewID()

	_, err := svc.Upload(ctx, id, "first.csv", strings.NewReader(twoUploadsFirst))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, id, "second.csv", strings.NewReader(twoUploadsSecond))
	require.NoError(t, err)

	preview := svc.Preview(id, 5)
	require.NotNil(t, preview)
	assert.Equal(t, []string{"Muscle%", "Severity"}, preview.Table.Columns)
	assert.Equal(t, [][]string{{"22", "2"}}, preview.Head)
}

func TestFailedUploadLeavesNoDataset(t *testing.T) {
	svc, _ := newDatasetService(1 << 20)
	ctx := context.Background()
	id := session.NewID()

	_, err := svc.Upload(ctx, id, "first.csv", strings.NewReader(twoUploadsFirst))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, id, "broken.csv", strings.NewReader("a,b\n\"1,2\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
	assert.Nil(t, svc.Current(id))

	_, err = svc.Upload(ctx, id, "notes.txt", strings.NewReader("hello"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	svc, _ := newDatasetService(16)
	big := bytes.Repeat([]byte("1,2\n"), 20)

	_, err := svc.Upload(context.Background(), session.NewID(), "big.csv", bytes.NewReader(append([]byte("a,b\n"), big...)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload limit")
}

func TestPreviewIncludesNumericSummaries(t *testing.T) {
	svc, _ := newDatasetService(1 << 20)
	id := session.NewID()
	_, err := svc.Upload(context.Background(), id, "bia.csv", strings.NewReader(twoUploadsFirst))
	require.NoError(t, err)

	preview := svc.Preview(id, 2)
	assert.Len(t, preview.Head, 2)
	assert.Equal(t, 3, preview.Table.NumRows())
	require.Len(t, preview.Summaries, 2)
	assert.Equal(t, 35.0, preview.Summaries[0].Mean)

	assert.Nil(t, svc.Preview(session.NewID(), 5))
}

func TestAnalysisRequiresDataset(t *testing.T) {
	runner := &MockAnovaRunner{}
	svc := NewAnalysisService(runner, session.NewMemoryStore(time.Hour, nil))

	_, err := svc.RunForSession(context.Background(), session.NewID(), stats.AnovaRequest{Target: "Severity"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeFitError, errors.GetCode(err))
	runner.AssertNotCalled(t, "RunAnova", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisCatchesRunnerFailures(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, nil)
	id := session.NewID()
	table := dataset.NewTable("t.csv", dataset.FormatCSV, []string{"x", "y"}, [][]string{{"1", "2"}})
	store.Replace(id, table)

	runner := &MockAnovaRunner{}
	runner.On("RunAnova", mock.Anything, table, stats.AnovaRequest{Target: "y"}).Return(nil, fmt.Errorf("lapack failure")).Once()
	runner.On("RunAnova", mock.Anything, table, stats.AnovaRequest{Target: "x"}).Run(func(mock.Arguments) {
		panic("index out of range")
	}).Once()

	svc := NewAnalysisService(runner, store)

	_, err := svc.RunForSession(context.Background(), id, stats.AnovaRequest{Target: "y"})
	assert.Equal(t, errors.CodeFitError, errors.GetCode(err))

	_, err = svc.RunForSession(context.Background(), id, stats.AnovaRequest{Target: "x"})
	assert.Equal(t, errors.CodeFitError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "index out of range")

	runner.AssertExpectations(t)
}

func TestAnalysisWithRealEngine(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, nil)
	id := session.NewID()
	store.Replace(id, dataset.NewTable("t.csv", dataset.FormatCSV, []string{"x", "y"},
		[][]string{{"1", "2"}, {"2", "4"}, {"3", "5"}, {"4", "4"}, {"5", "5"}}))

	svc := NewAnalysisService(engine.NewStatsEngine(nil), store)
	result, err := svc.RunForSession(context.Background(), id, stats.AnovaRequest{Target: "y"})
	require.NoError(t, err)
	assert.Equal(t, 5, result.NObs)
}

func TestPredictFormBuildsRowInSchemaOrder(t *testing.T) {
	m := newMockModel(t, "Fat%", "Muscle%", "ECW_TBW")
	expected := model.InputRow{Names: []string{"Fat%", "Muscle%", "ECW_TBW"}, Values: []float64{35.0, 20.0, 0.4}}
	m.On("Predict", mock.Anything, expected).Return(2.456, nil).Once()

	svc := NewPredictionService(m, nil, nil)
	got, err := svc.PredictForm(context.Background(), map[string]string{
		"Fat%":    "35.0",
		"Muscle%": " 20 ",
		"ECW_TBW": "0.4",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Fat%": 35.0, "Muscle%": 20.0, "ECW_TBW": 0.4}, got.Row.Map())
	assert.Equal(t, "Predicted Severity: 2.46", got.Display())
	m.AssertExpectations(t)
}

func TestPredictAllDefaultsIsDeterministic(t *testing.T) {
	m := newMockModel(t, "a", "b")
	zero := model.InputRow{Names: []string{"a", "b"}, Values: []float64{0, 0}}
	m.On("Predict", mock.Anything, zero).Return(1.5, nil).Twice()

	svc := NewPredictionService(m, nil, nil)
	first, err := svc.PredictForm(context.Background(), map[string]string{})
	require.NoError(t, err)
	second, err := svc.PredictForm(context.Background(), map[string]string{"a": "", "b": "0"})
	require.NoError(t, err)

	assert.Equal(t, first.Display(), second.Display())
	assert.Equal(t, "Predicted Severity: 1.50", first.Display())
	m.AssertExpectations(t)
}

func TestPredictRejectsBadInput(t *testing.T) {
	m := newMockModel(t, "a")
	svc := NewPredictionService(m, nil, nil)

	_, err := svc.PredictForm(context.Background(), map[string]string{"a": "heavy"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.PredictForm(context.Background(), map[string]string{"a": "NaN"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Predict(context.Background(), map[string]float64{"b": 1})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	m.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredictCatchesModelFailures(t *testing.T) {
	m := newMockModel(t, "a")
	m.On("Predict", mock.Anything, mock.Anything).Return(0.0, fmt.Errorf("shape mismatch")).Once()
	m.On("Predict", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("nil coefficients")
	}).Once()

	svc := NewPredictionService(m, nil, nil)

	_, err := svc.Predict(context.Background(), nil)
	assert.Equal(t, errors.CodePredictionError, errors.GetCode(err))

	_, err = svc.Predict(context.Background(), nil)
	assert.Equal(t, errors.CodePredictionError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "nil coefficients")
}

func TestPredictionServiceWithoutModel(t *testing.T) {
	svc := NewPredictionService(nil, fmt.Errorf("open model.json: no such file"), nil)

	assert.False(t, svc.Available())
	_, err := svc.Schema()
	assert.Equal(t, errors.CodeModelUnavailable, errors.GetCode(err))

	_, err = svc.PredictForm(context.Background(), nil)
	assert.Equal(t, errors.CodeModelUnavailable, errors.GetCode(err))
	assert.Contains(t, err.Error(), "model.json")

	assert.False(t, NewPredictionService(nil, nil, nil).Available())
}

func TestMissingFeatures(t *testing.T) {
	svc := NewPredictionService(newMockModel(t, "Fat%", "Muscle%", "ECW_TBW"), nil, nil)
	table := dataset.NewTable("t.csv", dataset.FormatCSV, []string{"Fat%", "Severity"}, nil)

	assert.Equal(t, []string{"Muscle%", "ECW_TBW"}, svc.MissingFeatures(table))
	assert.Nil(t, svc.MissingFeatures(nil))
}

func TestTrainProducesLoadableArtifact(t *testing.T) {
	table := dataset.NewTable("train.csv", dataset.FormatCSV, []string{"x1", "x2", "severity"}, [][]string{
		{"1", "2", "2"},
		{"2", "1", "4.5"},
		{"3", "4", "5"},
		{"4", "3", "7.5"},
		{"5", "5", "8.5"},
	})

	svc := NewTrainingService(engine.NewStatsEngine(nil))
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	a, err := svc.Train(context.Background(), table, "severity", nil)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	assert.Equal(t, "severity", a.Target)
	assert.Equal(t, []string{"x1", "x2"}, a.FeatureNames)
	assert.InDelta(t, 1.0, a.Intercept, 1e-9)
	assert.Equal(t, 5, a.NObs)
	assert.Equal(t, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), a.TrainedAt)
}
