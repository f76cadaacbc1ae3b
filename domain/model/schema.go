package model

import (
	"fmt"
	"math"
	"strings"
)

// FieldKind is the value type of a model input field
type FieldKind string

const (
	FieldNumeric FieldKind = "numeric"
)

// Field describes one model input
type Field struct {
	Name    string    `json:"name" yaml:"name"`
	Kind    FieldKind `json:"kind" yaml:"kind"`
	Default float64   `json:"default" yaml:"default"`
}

// Schema is the ordered list of inputs a trained model expects
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// NumericSchema builds a schema of numeric fields defaulting to zero
func NumericSchema(names []string) (Schema, error) {
	seen := make(map[string]bool, len(names))
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return Schema{}, fmt.Errorf("feature name must not be empty")
		}
		if seen[name] {
			return Schema{}, fmt.Errorf("duplicate feature name %q", name)
		}
		seen[name] = true
		fields = append(fields, Field{Name: name, Kind: FieldNumeric, Default: 0})
	}
	if len(fields) == 0 {
		return Schema{}, fmt.Errorf("model declares no features")
	}
	return Schema{Fields: fields}, nil
}

// Names returns the field names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema declares a field
func (s Schema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DefaultRow returns a row with every field at its default value
func (s Schema) DefaultRow() InputRow {
	row := InputRow{Names: s.Names(), Values: make([]float64, len(s.Fields))}
	for i, f := range s.Fields {
		row.Values[i] = f.Default
	}
	return row
}

// NewRow builds a row in schema order. Absent names take the field default;
// names the schema does not declare and non-finite values are rejected.
func (s Schema) NewRow(values map[string]float64) (InputRow, error) {
	for name := range values {
		if !s.Has(name) {
			return InputRow{}, fmt.Errorf("unknown feature %q", name)
		}
	}
	row := s.DefaultRow()
	for i, name := range row.Names {
		v, ok := values[name]
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InputRow{}, fmt.Errorf("feature %q must be a finite number", name)
		}
		row.Values[i] = v
	}
	return row, nil
}

// InputRow is a single prediction record with exactly the schema's features
type InputRow struct {
	Names  []string
	Values []float64
}

// Get returns a feature value by name
func (r InputRow) Get(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Map returns the row as a name to value map
func (r InputRow) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Names))
	for i, n := range r.Names {
		m[n] = r.Values[i]
	}
	return m
}
