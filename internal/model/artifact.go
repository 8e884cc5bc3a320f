// Package model defines the serialized logistic-regression artifact shared
// between the offline trainer and the serving path, along with the numeric
// primitives (stable sigmoid, median) both sides use.
//
// An Artifact is produced once by training, persisted as JSON, and loaded
// once at service start. After Load it is never mutated, so it may be read
// concurrently by any number of in-flight requests without locking.
package model

import (
	"encoding/json"
	"fmt"
	"os"

	"exodetect/internal/schema"
)

// Artifact bundles everything inference needs: the feature ordering, the
// per-feature imputation and normalization statistics, and the fitted
// parameters. The medians/means/stds maps and the weights slice are all
// aligned to FeatureKeys.
type Artifact struct {
	FeatureKeys []string           `json:"feature_keys"`
	Medians     map[string]float64 `json:"medians"`
	Means       map[string]float64 `json:"means"`
	Stds        map[string]float64 `json:"stds"`
	Weights     []float64          `json:"weights"`
	Bias        float64            `json:"bias"`
}

// Load reads and structurally validates an artifact file. Any failure here is
// fatal for the caller: a service must refuse to start rather than serve with
// a partially initialized model.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}

	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &artifact, nil
}

// Save writes the artifact as JSON.
func (a *Artifact) Save(path string) error {
	if err := a.validate(); err != nil {
		return fmt.Errorf("refusing to save invalid artifact: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

func (a *Artifact) validate() error {
	if len(a.FeatureKeys) == 0 {
		return fmt.Errorf("no feature keys")
	}
	if len(a.FeatureKeys) != len(schema.FeatureKeys) {
		return fmt.Errorf("artifact has %d feature keys, schema defines %d", len(a.FeatureKeys), len(schema.FeatureKeys))
	}
	for i, key := range a.FeatureKeys {
		if key != schema.FeatureKeys[i] {
			return fmt.Errorf("feature key %q at position %d does not match schema key %q", key, i, schema.FeatureKeys[i])
		}
	}
	if len(a.Weights) != len(a.FeatureKeys) {
		return fmt.Errorf("weight count %d does not match feature count %d", len(a.Weights), len(a.FeatureKeys))
	}
	seen := make(map[string]struct{}, len(a.FeatureKeys))
	for _, key := range a.FeatureKeys {
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate feature key %s", key)
		}
		seen[key] = struct{}{}

		if _, ok := a.Medians[key]; !ok {
			return fmt.Errorf("missing median for %s", key)
		}
		if _, ok := a.Means[key]; !ok {
			return fmt.Errorf("missing mean for %s", key)
		}
		std, ok := a.Stds[key]
		if !ok {
			return fmt.Errorf("missing std for %s", key)
		}
		if std == 0 {
			return fmt.Errorf("zero std for %s", key)
		}
	}
	return nil
}

// Normalize z-scores a single feature value using the stored statistics.
func (a *Artifact) Normalize(key string, value float64) float64 {
	return (value - a.Means[key]) / a.Stds[key]
}

// Score computes the linear activation for a complete, schema-ordered vector
// of raw (unnormalized) feature values, falling back to the training median
// for any key absent from the map.
func (a *Artifact) Score(features map[string]float64) float64 {
	activation := a.Bias
	for i, key := range a.FeatureKeys {
		value, ok := features[key]
		if !ok {
			value = a.Medians[key]
		}
		activation += a.Weights[i] * a.Normalize(key, value)
	}
	return activation
}
