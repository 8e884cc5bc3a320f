package api

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"exodetect/internal/schema"
)

// LoadSample reads the bundled example KOI record. Leakage columns are
// stripped and non-numeric values dropped, so the result is a partial
// feature map suitable for the engines' median-fallback path.
func LoadSample(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample record %s: %w", path, err)
	}

	var record schema.RawRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse sample record %s: %w", path, err)
	}

	sample := make(map[string]float64)
	for key, value := range schema.StripLeakage(record) {
		number, ok := sampleValue(value)
		if !ok {
			continue
		}
		sample[key] = number
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("sample record %s has no numeric features", path)
	}
	return sample, nil
}

func sampleValue(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, false
		}
		return value, true
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}
