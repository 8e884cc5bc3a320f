package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"exodetect/internal/schema"
)

// validArtifact builds an artifact covering the full feature schema with
// neutral statistics (mean 0, std 1) and zero weights.
func validArtifact() *Artifact {
	keys := make([]string, len(schema.FeatureKeys))
	copy(keys, schema.FeatureKeys)

	a := &Artifact{
		FeatureKeys: keys,
		Medians:     make(map[string]float64, len(keys)),
		Means:       make(map[string]float64, len(keys)),
		Stds:        make(map[string]float64, len(keys)),
		Weights:     make([]float64, len(keys)),
		Bias:        0,
	}
	for _, key := range keys {
		a.Medians[key] = 0
		a.Means[key] = 0
		a.Stds[key] = 1
	}
	return a
}

func writeArtifact(t *testing.T, a *Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoad_RoundTrip(t *testing.T) {
	want := validArtifact()
	want.Bias = -0.25
	want.Weights[0] = 1.5

	path := writeArtifact(t, want)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Bias != want.Bias {
		t.Errorf("bias = %v, want %v", got.Bias, want.Bias)
	}
	if got.Weights[0] != want.Weights[0] {
		t.Errorf("weights[0] = %v, want %v", got.Weights[0], want.Weights[0])
	}
	if len(got.FeatureKeys) != len(schema.FeatureKeys) {
		t.Errorf("feature key count = %d, want %d", len(got.FeatureKeys), len(schema.FeatureKeys))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing artifact file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed artifact")
	}
}

func TestLoad_RejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{
			name:   "weight length mismatch",
			mutate: func(a *Artifact) { a.Weights = a.Weights[:len(a.Weights)-1] },
		},
		{
			name:   "missing median",
			mutate: func(a *Artifact) { delete(a.Medians, a.FeatureKeys[0]) },
		},
		{
			name:   "missing mean",
			mutate: func(a *Artifact) { delete(a.Means, a.FeatureKeys[3]) },
		},
		{
			name:   "missing std",
			mutate: func(a *Artifact) { delete(a.Stds, a.FeatureKeys[5]) },
		},
		{
			name:   "zero std",
			mutate: func(a *Artifact) { a.Stds[a.FeatureKeys[1]] = 0 },
		},
		{
			name:   "key order diverges from schema",
			mutate: func(a *Artifact) { a.FeatureKeys[0], a.FeatureKeys[1] = a.FeatureKeys[1], a.FeatureKeys[0] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(a)
			path := writeArtifact(t, a)
			if _, err := Load(path); err == nil {
				t.Error("expected structural validation error, got nil")
			}
		})
	}
}

func TestSave_RefusesInvalidArtifact(t *testing.T) {
	a := validArtifact()
	a.Stds[a.FeatureKeys[0]] = 0
	if err := a.Save(filepath.Join(t.TempDir(), "model.json")); err == nil {
		t.Fatal("expected Save to reject a zero std")
	}
}

func TestScore_MedianFallback(t *testing.T) {
	a := validArtifact()
	key := a.FeatureKeys[0]
	a.Medians[key] = 4.0
	a.Weights[0] = 1.0

	// Absent key resolves to the stored median.
	got := a.Score(map[string]float64{})
	if got != 4.0 {
		t.Errorf("Score with fallback = %v, want 4.0", got)
	}

	// Present key wins over the median.
	got = a.Score(map[string]float64{key: 10})
	if got != 10.0 {
		t.Errorf("Score with provided value = %v, want 10.0", got)
	}
}
