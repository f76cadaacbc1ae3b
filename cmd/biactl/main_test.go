package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"biasev/adapters/artifact"
	"biasev/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainingCSV = `x1,x2,severity
1,2,2
2,1,4.5
3,4,5
4,3,7.5
5,5,8.5
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTrainSchemaPredict(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "train.csv", trainingCSV)
	modelPath := filepath.Join(dir, "model.yaml")

	out, err := execute(t, "train", "--data", data, "--target", "severity", "--out", modelPath)
	require.NoError(t, err)
	assert.Contains(t, out, `Trained model for "severity" on 5 rows`)
	assert.Contains(t, out, "Features: x1, x2")

	saved, err := artifact.Load(modelPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, saved.FeatureNames)
	assert.InDelta(t, 2.0, saved.Coefficients[0], 1e-9)
	assert.InDelta(t, -0.5, saved.Coefficients[1], 1e-9)

	out, err = execute(t, "schema", "--model", modelPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Target: severity")
	assert.Regexp(t, `x1\s+numeric\s+0`, out)
	assert.Less(t, bytes.Index([]byte(out), []byte("x1")), bytes.Index([]byte(out), []byte("x2")))

	out, err = execute(t, "predict", "--model", modelPath, "x1=1", "x2=2")
	require.NoError(t, err)
	assert.Equal(t, "Predicted Severity: 2.00\n", out)

	out, err = execute(t, "predict", "--model", modelPath)
	require.NoError(t, err)
	assert.Equal(t, "Predicted Severity: 1.00\n", out)
}

func TestPredictRejectsBadArguments(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "train.csv", trainingCSV)
	modelPath := filepath.Join(dir, "model.json")
	_, err := execute(t, "train", "--data", data, "--target", "severity", "--out", modelPath)
	require.NoError(t, err)

	for _, args := range [][]string{{"x1"}, {"x1=heavy"}, {"x1=1", "x1=2"}, {"height=180"}} {
		_, err := execute(t, append([]string{"predict", "--model", modelPath}, args...)...)
		require.Error(t, err, args)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), args)
	}

	_, err = execute(t, "predict", "--model", filepath.Join(dir, "missing.json"))
	assert.Equal(t, errors.CodeModelUnavailable, errors.GetCode(err))
}

func TestAnovaCommand(t *testing.T) {
	data := writeFile(t, t.TempDir(), "bia.csv", "x,y\n1,2\n2,4\n3,5\n4,4\n5,5\n")

	out, err := execute(t, "anova", "--data", data, "--target", "y")
	require.NoError(t, err)
	assert.Contains(t, out, "y ~ x (5 observations, 0 dropped)")
	assert.Regexp(t, `x\s+3\.6000\s+1\s+4\.5000`, out)
	assert.Regexp(t, `Residual\s+2\.4000\s+3`, out)

	out, err = execute(t, "anova", "--data", data, "--target", "y", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"n_obs": 5`)

	_, err = execute(t, "anova", "--data", data, "--target", "z")
	assert.Equal(t, errors.CodeFitError, errors.GetCode(err))
}

func TestTrainRequiresFlags(t *testing.T) {
	_, err := execute(t, "train", "--target", "severity")
	assert.ErrorContains(t, err, "data")
}
