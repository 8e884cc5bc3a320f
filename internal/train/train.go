package train

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"exodetect/internal/dataset"
	"exodetect/internal/model"
	"exodetect/internal/schema"
)

// Hyperparams controls the gradient-descent fit. The defaults are fixed:
// there is no early stopping, regularization, or shuffling, so training is
// order-independent and deterministic.
type Hyperparams struct {
	LearningRate float64
	Epochs       int
}

// DefaultHyperparams returns the standard training configuration.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{LearningRate: 0.05, Epochs: 50}
}

// LogisticRegression fits a weight vector and bias by full-batch gradient
// descent on p = sigmoid(bias + w·x). Gradients are accumulated over the
// whole corpus each epoch and snapshotted before any parameter is updated.
func LogisticRegression(matrix [][]float64, labels []float64, hp Hyperparams) ([]float64, float64, error) {
	if len(matrix) == 0 {
		return nil, 0, fmt.Errorf("empty training matrix")
	}
	if len(matrix) != len(labels) {
		return nil, 0, fmt.Errorf("matrix has %d rows but %d labels", len(matrix), len(labels))
	}

	nFeatures := len(matrix[0])
	weights := make([]float64, nFeatures)
	bias := 0.0

	gradW := make([]float64, nFeatures)
	for epoch := 0; epoch < hp.Epochs; epoch++ {
		for i := range gradW {
			gradW[i] = 0
		}
		gradB := 0.0

		for r, sample := range matrix {
			activation := bias
			for i, w := range weights {
				activation += w * sample[i]
			}
			err := model.Sigmoid(activation) - labels[r]

			for i, value := range sample {
				gradW[i] += err * value
			}
			gradB += err
		}

		rate := hp.LearningRate / float64(len(matrix))
		for i := range weights {
			weights[i] -= rate * gradW[i]
		}
		bias -= rate * gradB
	}

	return weights, bias, nil
}

// Summary reports what a Fit call trained on and how well it did on its own
// corpus.
type Summary struct {
	Samples  int
	Accuracy float64
}

// Fit runs the full offline pipeline: preprocess the catalogue, train, and
// assemble the serialized artifact.
func Fit(rows []dataset.Row, hp Hyperparams) (*model.Artifact, Summary, error) {
	corpus, err := Preprocess(rows)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("preprocess: %w", err)
	}

	log.Info().
		Int("samples", len(corpus.Matrix)).
		Int("features", len(schema.FeatureKeys)).
		Float64("learning_rate", hp.LearningRate).
		Int("epochs", hp.Epochs).
		Msg("training logistic regression")

	weights, bias, err := LogisticRegression(corpus.Matrix, corpus.Labels, hp)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("train: %w", err)
	}

	keys := make([]string, len(schema.FeatureKeys))
	copy(keys, schema.FeatureKeys)

	artifact := &model.Artifact{
		FeatureKeys: keys,
		Medians:     corpus.Medians,
		Means:       corpus.Means,
		Stds:        corpus.Stds,
		Weights:     weights,
		Bias:        bias,
	}
	summary := Summary{
		Samples:  len(corpus.Matrix),
		Accuracy: Accuracy(corpus, weights, bias),
	}
	return artifact, summary, nil
}

// Accuracy reports the fraction of corpus rows the fitted parameters label
// correctly at the 0.5 threshold. Training-set accuracy only; there is no
// holdout split in this pipeline.
func Accuracy(corpus *Corpus, weights []float64, bias float64) float64 {
	if len(corpus.Matrix) == 0 {
		return 0
	}
	correct := 0
	for r, sample := range corpus.Matrix {
		activation := bias
		for i, w := range weights {
			activation += w * sample[i]
		}
		label := 0.0
		if model.Sigmoid(activation) >= 0.5 {
			label = 1.0
		}
		if label == corpus.Labels[r] {
			correct++
		}
	}
	return float64(correct) / float64(len(corpus.Matrix))
}
