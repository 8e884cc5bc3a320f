package predict

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// stumpForest writes a three-tree forest over features a and b. Two trees
// split on a at 5.0 (left leaf 0, right leaf 1); one always votes 1.
func stumpForest(t *testing.T) string {
	t.Helper()

	forest := ensembleArtifact{
		FeatureKeys: []string{"a", "b"},
		Trees: [][]ensembleNode{
			{
				{Feature: 0, Threshold: 5.0, Left: 1, Right: 2},
				{Feature: -1, Value: 0},
				{Feature: -1, Value: 1},
			},
			{
				{Feature: 0, Threshold: 5.0, Left: 1, Right: 2},
				{Feature: -1, Value: 0},
				{Feature: -1, Value: 1},
			},
			{
				{Feature: -1, Value: 1},
			},
		},
	}

	data, err := json.Marshal(forest)
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ensemble.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write forest: %v", err)
	}
	return path
}

func TestEnsemble_MajorityVote(t *testing.T) {
	ensemble, err := LoadEnsemble(stumpForest(t))
	if err != nil {
		t.Fatalf("LoadEnsemble failed: %v", err)
	}
	if ensemble.Name() != EngineEnsemble {
		t.Errorf("name = %s, want %s", ensemble.Name(), EngineEnsemble)
	}

	// a > 5: all three trees vote 1.
	result, err := ensemble.Predict(map[string]float64{"a": 9, "b": 0})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.Probability != 1.0 || result.Prediction != 1 {
		t.Errorf("got p=%v label=%d, want p=1.0 label=1", result.Probability, result.Prediction)
	}

	// a <= 5: only the constant tree votes 1, probability 1/3.
	result, err = ensemble.Predict(map[string]float64{"a": 2, "b": 0})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.Prediction != 0 {
		t.Errorf("prediction = %d, want 0", result.Prediction)
	}
	if result.Probability < 0.33 || result.Probability > 0.34 {
		t.Errorf("probability = %v, want 1/3", result.Probability)
	}
}

func TestEnsemble_RequiresAllFeatures(t *testing.T) {
	ensemble, err := LoadEnsemble(stumpForest(t))
	if err != nil {
		t.Fatalf("LoadEnsemble failed: %v", err)
	}
	if _, err := ensemble.Predict(map[string]float64{"a": 1}); err == nil {
		t.Fatal("expected error for missing feature b")
	}
}

func TestLoadEnsemble_Rejections(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if _, err := LoadEnsemble(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadEnsemble(write("bad.json", "{oops")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := LoadEnsemble(write("empty.json", `{"feature_keys":[],"trees":[]}`)); err == nil {
		t.Error("expected error for empty forest")
	}
	if _, err := LoadEnsemble(write("badref.json", `{"feature_keys":["a"],"trees":[[{"feature":3,"threshold":1,"left":0,"right":0}]]}`)); err == nil {
		t.Error("expected error for out-of-range feature index")
	}
}
