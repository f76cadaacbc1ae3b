package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericSchemaKeepsDeclaredOrder(t *testing.T) {
	schema, err := NumericSchema([]string{"Fat%", "Muscle%", "ECW_TBW"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Fat%", "Muscle%", "ECW_TBW"}, schema.Names())
	for _, f := range schema.Fields {
		assert.Equal(t, FieldNumeric, f.Kind)
		assert.Equal(t, 0.0, f.Default)
	}
}

func TestNumericSchemaRejectsBadNames(t *testing.T) {
	_, err := NumericSchema([]string{"a", "a"})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NumericSchema([]string{" "})
	assert.Error(t, err)

	_, err = NumericSchema(nil)
	assert.ErrorContains(t, err, "no features")
}

func TestNewRow(t *testing.T) {
	schema, err := NumericSchema([]string{"Fat%", "Muscle%", "ECW_TBW"})
	require.NoError(t, err)

	row, err := schema.NewRow(map[string]float64{"Fat%": 35.0, "Muscle%": 20.0, "ECW_TBW": 0.4})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Fat%": 35.0, "Muscle%": 20.0, "ECW_TBW": 0.4}, row.Map())
	assert.Equal(t, []float64{35.0, 20.0, 0.4}, row.Values)

	partial, err := schema.NewRow(map[string]float64{"Muscle%": 12})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 12, 0}, partial.Values)

	v, ok := partial.Get("Muscle%")
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	_, err = schema.NewRow(map[string]float64{"Height": 170})
	assert.ErrorContains(t, err, "unknown feature")

	_, err = schema.NewRow(map[string]float64{"Fat%": math.Inf(1)})
	assert.ErrorContains(t, err, "finite")
}

func TestDefaultRowIsAllZero(t *testing.T) {
	schema, err := NumericSchema([]string{"a", "b"})
	require.NoError(t, err)

	row := schema.DefaultRow()
	assert.Equal(t, []string{"a", "b"}, row.Names)
	assert.Equal(t, []float64{0, 0}, row.Values)
}
