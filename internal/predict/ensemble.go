package predict

import (
	"encoding/json"
	"fmt"
	"os"

	"exodetect/internal/schema"
)

// ensembleNode is one split or leaf in a serialized decision tree. Nodes are
// stored in a flat array per tree; Left and Right are indices into that
// array, and Feature is -1 on leaves.
type ensembleNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     int     `json:"value"`
}

// Ensemble is the tree-ensemble engine variant. The forest itself is trained
// externally; this type only loads the exported JSON artifact and runs
// majority-vote inference over it.
type Ensemble struct {
	featureKeys []string
	trees       [][]ensembleNode
}

type ensembleArtifact struct {
	FeatureKeys []string         `json:"feature_keys"`
	Trees       [][]ensembleNode `json:"trees"`
}

// LoadEnsemble reads a forest artifact from disk. Callers should treat a
// missing file as "variant not available" rather than a startup failure.
func LoadEnsemble(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ensemble artifact %s: %w", path, err)
	}

	var artifact ensembleArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse ensemble artifact %s: %w", path, err)
	}
	if len(artifact.FeatureKeys) == 0 || len(artifact.Trees) == 0 {
		return nil, fmt.Errorf("ensemble artifact %s has no trees or feature keys", path)
	}
	for t, tree := range artifact.Trees {
		if len(tree) == 0 {
			return nil, fmt.Errorf("ensemble artifact %s: tree %d is empty", path, t)
		}
		for n, node := range tree {
			if node.Feature >= len(artifact.FeatureKeys) {
				return nil, fmt.Errorf("ensemble artifact %s: tree %d node %d references feature %d", path, t, n, node.Feature)
			}
			if node.Feature >= 0 && (node.Left < 0 || node.Left >= len(tree) || node.Right < 0 || node.Right >= len(tree)) {
				return nil, fmt.Errorf("ensemble artifact %s: tree %d node %d has out-of-range children", path, t, n)
			}
		}
	}

	return &Ensemble{featureKeys: artifact.FeatureKeys, trees: artifact.Trees}, nil
}

// Name implements Engine.
func (e *Ensemble) Name() string { return EngineEnsemble }

// Predict walks every tree and votes. Probability is the fraction of trees
// classifying the record as a confirmed planet. Unlike the lightweight
// engine there is no median fallback: the forest has no imputation
// statistics, so every feature key must be present.
func (e *Ensemble) Predict(features map[string]float64) (Result, error) {
	vector := make([]float64, len(e.featureKeys))
	resolved := make(schema.FeatureVector, len(e.featureKeys))
	for i, key := range e.featureKeys {
		value, ok := features[key]
		if !ok {
			return Result{}, fmt.Errorf("ensemble engine requires feature %s", key)
		}
		vector[i] = value
		resolved[key] = value
	}

	votes := 0
	for _, tree := range e.trees {
		if e.classify(tree, vector) == 1 {
			votes++
		}
	}

	probability := float64(votes) / float64(len(e.trees))
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

func (e *Ensemble) classify(tree []ensembleNode, vector []float64) int {
	idx := 0
	// A well-formed tree reaches a leaf in fewer steps than it has nodes;
	// the bound guards against cyclic artifacts.
	for step := 0; step <= len(tree); step++ {
		node := tree[idx]
		if node.Feature < 0 {
			return node.Value
		}
		if vector[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0
}
