package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"biasev/internal/errors"
)

// KindLinear identifies a linear regression artifact
const KindLinear = "linear_regression"

// LinearArtifact is the serialized form of a trained linear severity model
type LinearArtifact struct {
	Kind         string    `json:"kind" yaml:"kind"`
	Target       string    `json:"target,omitempty" yaml:"target,omitempty"`
	FeatureNames []string  `json:"feature_names" yaml:"feature_names"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	NObs         int       `json:"n_obs,omitempty" yaml:"n_obs,omitempty"`
	RSquared     float64   `json:"r_squared,omitempty" yaml:"r_squared,omitempty"`
	TrainedAt    time.Time `json:"trained_at" yaml:"trained_at"`
}

// Validate checks the artifact is internally consistent
func (a *LinearArtifact) Validate() error {
	if a.Kind != KindLinear {
		return fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("model declares no features")
	}
	if len(a.Coefficients) != len(a.FeatureNames) {
		return fmt.Errorf("model has %d coefficients for %d features", len(a.Coefficients), len(a.FeatureNames))
	}
	for i, c := range a.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient for %q is not finite", a.FeatureNames[i])
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	return nil
}

type codec int

const (
	codecJSON codec = iota
	codecYAML
)

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codecJSON, nil
	case ".yaml", ".yml":
		return codecYAML, nil
	default:
		return 0, fmt.Errorf("model artifact %s must be .json, .yaml or .yml", path)
	}
}

// Decode parses artifact bytes with the codec chosen by the path's extension
func Decode(path string, data []byte) (*LinearArtifact, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	var a LinearArtifact
	switch c {
	case codecJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&a)
	case codecYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&a)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Encode serializes an artifact with the codec chosen by the path's extension
func Encode(path string, a *LinearArtifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	if c == codecYAML {
		return yaml.Marshal(a)
	}
	return json.MarshalIndent(a, "", "  ")
}

// Load reads and validates a model artifact from disk. Failures carry the
// MODEL_UNAVAILABLE code.
func Load(path string) (*LinearArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ModelUnavailable(err)
	}
	a, err := Decode(path, data)
	if err != nil {
		return nil, errors.ModelUnavailable(fmt.Errorf("%s: %w", path, err))
	}
	return a, nil
}

// Save writes an artifact to disk
func Save(path string, a *LinearArtifact) error {
	data, err := Encode(path, a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}
