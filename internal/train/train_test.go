package train

import (
	"fmt"
	"math"
	"testing"

	"exodetect/internal/dataset"
	"exodetect/internal/model"
	"exodetect/internal/schema"
)

// catalogRow builds a catalogue row with every schema feature set to the
// given value and the given disposition.
func catalogRow(disposition string, value float64) dataset.Row {
	row := dataset.Row{"koi_disposition": disposition}
	for _, key := range schema.FeatureKeys {
		row[key] = fmt.Sprintf("%g", value)
	}
	return row
}

func testRows() []dataset.Row {
	return []dataset.Row{
		catalogRow("CONFIRMED", 1),
		catalogRow("CONFIRMED", 2),
		catalogRow("FALSE POSITIVE", -1),
		catalogRow("FALSE POSITIVE", -2),
	}
}

func TestPreprocess_DropsUnrecognizedDispositions(t *testing.T) {
	rows := testRows()
	rows = append(rows, catalogRow("CANDIDATE", 100), catalogRow("", 200))

	corpus, err := Preprocess(rows)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if len(corpus.Matrix) != 4 {
		t.Errorf("matrix rows = %d, want 4 (candidates dropped)", len(corpus.Matrix))
	}
	if len(corpus.Labels) != 4 {
		t.Errorf("labels = %d, want 4", len(corpus.Labels))
	}

	// The dropped rows' values must not leak into the statistics.
	key := schema.FeatureKeys[0]
	if corpus.Medians[key] != 0 {
		t.Errorf("median = %v, want 0 (median of {1,2,-1,-2})", corpus.Medians[key])
	}
}

func TestPreprocess_Labels(t *testing.T) {
	corpus, err := Preprocess(testRows())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	want := []float64{1, 1, 0, 0}
	for i, label := range corpus.Labels {
		if label != want[i] {
			t.Errorf("labels[%d] = %v, want %v", i, label, want[i])
		}
	}
}

func TestPreprocess_MissingValuesImputedWithMedian(t *testing.T) {
	rows := testRows()
	key := schema.FeatureKeys[0]
	rows[0][key] = ""       // empty
	rows[1][key] = "NaN"    // literal nan, any casing
	rows[2][key] = "oops"   // parse failure
	rows[3][key] = "10"     // the only observed value

	corpus, err := Preprocess(rows)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if corpus.Medians[key] != 10 {
		t.Errorf("median = %v, want 10 (single observed value)", corpus.Medians[key])
	}
	// After imputation every row holds 10, so the column is degenerate:
	// mean 10, std floored to 1, normalized values all zero.
	if corpus.Means[key] != 10 {
		t.Errorf("mean = %v, want 10", corpus.Means[key])
	}
	if corpus.Stds[key] != 1.0 {
		t.Errorf("std = %v, want floored 1.0", corpus.Stds[key])
	}
	for r := range corpus.Matrix {
		if corpus.Matrix[r][0] != 0 {
			t.Errorf("normalized value row %d = %v, want 0", r, corpus.Matrix[r][0])
		}
	}
}

func TestPreprocess_StdFloorForConstantFeature(t *testing.T) {
	rows := []dataset.Row{
		catalogRow("CONFIRMED", 7),
		catalogRow("FALSE POSITIVE", 7),
		catalogRow("CONFIRMED", 7),
	}

	corpus, err := Preprocess(rows)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	for _, key := range schema.FeatureKeys {
		if corpus.Stds[key] != 1.0 {
			t.Fatalf("std[%s] = %v, want 1.0 for a constant feature", key, corpus.Stds[key])
		}
		// Normalized value is (v - mean) / 1.0 = 0 for every row.
		if got := corpus.Matrix[0][0]; got != 0 {
			t.Fatalf("normalized constant value = %v, want 0", got)
		}
	}
}

func TestPreprocess_NoRecognizedRows(t *testing.T) {
	if _, err := Preprocess([]dataset.Row{catalogRow("CANDIDATE", 1)}); err == nil {
		t.Fatal("expected error when every row is dropped")
	}
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	corpus, err := Preprocess(testRows())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	hp := DefaultHyperparams()

	w1, b1, err := LogisticRegression(corpus.Matrix, corpus.Labels, hp)
	if err != nil {
		t.Fatalf("first training run failed: %v", err)
	}
	w2, b2, err := LogisticRegression(corpus.Matrix, corpus.Labels, hp)
	if err != nil {
		t.Fatalf("second training run failed: %v", err)
	}

	if b1 != b2 {
		t.Errorf("bias differs across runs: %v vs %v", b1, b2)
	}
	for i := range w1 {
		if w1[i] != w2[i] {
			t.Errorf("weights[%d] differs across runs: %v vs %v", i, w1[i], w2[i])
		}
	}
}

func TestLogisticRegression_SingleEpochByHand(t *testing.T) {
	// One record, one feature: x=1, label=1, zero-initialized parameters.
	// Epoch 1: p = sigmoid(0) = 0.5, error = -0.5,
	// grad_w = -0.5, grad_b = -0.5, rate = 0.05/1,
	// so w = 0.025 and b = 0.025.
	matrix := [][]float64{{1}}
	labels := []float64{1}

	weights, bias, err := LogisticRegression(matrix, labels, Hyperparams{LearningRate: 0.05, Epochs: 1})
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	if math.Abs(weights[0]-0.025) > 1e-15 {
		t.Errorf("weight = %v, want 0.025", weights[0])
	}
	if math.Abs(bias-0.025) > 1e-15 {
		t.Errorf("bias = %v, want 0.025", bias)
	}
}

func TestLogisticRegression_SeparatesTrivialCorpus(t *testing.T) {
	corpus, err := Preprocess(testRows())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	weights, bias, err := LogisticRegression(corpus.Matrix, corpus.Labels, DefaultHyperparams())
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}

	if got := Accuracy(corpus, weights, bias); got != 1.0 {
		t.Errorf("training accuracy = %v, want 1.0 on a linearly separable corpus", got)
	}
}

func TestLogisticRegression_InputValidation(t *testing.T) {
	if _, _, err := LogisticRegression(nil, nil, DefaultHyperparams()); err == nil {
		t.Error("expected error for empty matrix")
	}
	if _, _, err := LogisticRegression([][]float64{{1}}, []float64{1, 0}, DefaultHyperparams()); err == nil {
		t.Error("expected error for label count mismatch")
	}
}

func TestFit_ProducesLoadableArtifact(t *testing.T) {
	artifact, summary, err := Fit(testRows(), DefaultHyperparams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if summary.Samples != 4 {
		t.Errorf("summary samples = %d, want 4", summary.Samples)
	}
	if summary.Accuracy != 1.0 {
		t.Errorf("summary accuracy = %v, want 1.0", summary.Accuracy)
	}
	if len(artifact.Weights) != len(schema.FeatureKeys) {
		t.Errorf("weight count = %d, want %d", len(artifact.Weights), len(schema.FeatureKeys))
	}
	for _, key := range artifact.FeatureKeys {
		if artifact.Stds[key] == 0 {
			t.Errorf("std[%s] is zero in the produced artifact", key)
		}
	}

	// The artifact's probability for a training record must agree with the
	// documented formula applied by hand.
	features := make(map[string]float64, len(schema.FeatureKeys))
	for _, key := range schema.FeatureKeys {
		features[key] = 1
	}
	activation := artifact.Bias
	for i, key := range artifact.FeatureKeys {
		activation += artifact.Weights[i] * (1 - artifact.Means[key]) / artifact.Stds[key]
	}
	want := model.Sigmoid(activation)
	if got := model.Sigmoid(artifact.Score(features)); math.Abs(got-want) > 1e-15 {
		t.Errorf("probability = %v, want %v", got, want)
	}
}
