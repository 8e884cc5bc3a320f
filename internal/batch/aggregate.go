package batch

import (
	"encoding/json"

	"exodetect/internal/predict"
	"exodetect/internal/schema"
)

// Item is one record's outcome within a batch. It carries either a
// classification result or an error message, never both, plus the record's
// original position so callers can match results back to their input.
type Item struct {
	Index  int
	Result *predict.Result
	Err    string
}

// MarshalJSON keeps the two item shapes disjoint on the wire:
// {index, prediction, probability, features} or {index, error}.
func (it Item) MarshalJSON() ([]byte, error) {
	if it.Err != "" {
		return json.Marshal(struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		}{Index: it.Index, Error: it.Err})
	}
	return json.Marshal(struct {
		Index       int                  `json:"index"`
		Prediction  int                  `json:"prediction"`
		Probability float64              `json:"probability"`
		Features    schema.FeatureVector `json:"features"`
	}{
		Index:       it.Index,
		Prediction:  it.Result.Prediction,
		Probability: it.Result.Probability,
		Features:    it.Result.Features,
	})
}

// Run validates and classifies every record independently. A malformed
// record gets an error item and never aborts the rest; output order equals
// input order.
func Run(records []interface{}, registry *predict.Registry, engineName string) []Item {
	engine, engineErr := registry.Get(engineName)

	items := make([]Item, len(records))
	for i, raw := range records {
		items[i] = classify(raw, engine, engineErr, i)
	}
	return items
}

func classify(raw interface{}, engine predict.Engine, engineErr error, index int) Item {
	record, ok := raw.(map[string]interface{})
	if !ok {
		return Item{Index: index, Err: "record must be a JSON object"}
	}

	features, err := schema.Validate(schema.RawRecord(record))
	if err != nil {
		return Item{Index: index, Err: err.Error()}
	}

	if engineErr != nil {
		return Item{Index: index, Err: engineErr.Error()}
	}

	result, err := engine.Predict(features)
	if err != nil {
		return Item{Index: index, Err: err.Error()}
	}
	return Item{Index: index, Result: &result}
}
