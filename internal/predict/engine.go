// Package predict exposes the inference engines that classify a feature
// vector as a confirmed exoplanet (1) or false positive (0). Engines are
// named variants behind a registry; callers select one per request and get a
// hard "engine unavailable" error when the variant is not loaded, never a
// silent fallback.
package predict

import (
	"exodetect/internal/model"
	"exodetect/internal/schema"
)

// Engine variant names accepted in requests.
const (
	EngineLightweight = "lightweight"
	EngineEnsemble    = "ensemble"
)

// Result is a single classification outcome.
type Result struct {
	Prediction  int                  `json:"prediction"`
	Probability float64              `json:"probability"`
	Features    schema.FeatureVector `json:"features"`
}

// Engine classifies one feature map. Implementations must be safe for
// concurrent use; everything they read is immutable after construction.
type Engine interface {
	Name() string
	Predict(features map[string]float64) (Result, error)
}

// Lightweight is the logistic-regression engine backed by the trained
// artifact. Keys absent from the input map fall back to the feature's stored
// training median; this is deliberately looser than the strict request
// validator, so canned or partial records can still be scored.
type Lightweight struct {
	artifact *model.Artifact
}

// NewLightweight wraps a loaded artifact.
func NewLightweight(artifact *model.Artifact) *Lightweight {
	return &Lightweight{artifact: artifact}
}

// Name implements Engine.
func (e *Lightweight) Name() string { return EngineLightweight }

// Predict resolves each schema feature to the provided value or the training
// median, normalizes, and applies the logistic model.
func (e *Lightweight) Predict(features map[string]float64) (Result, error) {
	resolved := make(schema.FeatureVector, len(e.artifact.FeatureKeys))
	for _, key := range e.artifact.FeatureKeys {
		value, ok := features[key]
		if !ok {
			value = e.artifact.Medians[key]
		}
		resolved[key] = value
	}

	probability := model.Sigmoid(e.artifact.Score(resolved))
	prediction := 0
	if probability >= 0.5 {
		prediction = 1
	}
	return Result{
		Prediction:  prediction,
		Probability: probability,
		Features:    resolved,
	}, nil
}
