package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError reports why an input record cannot be turned into a
// complete feature vector. It is always a caller fault.
type ValidationError struct {
	Missing []string // schema keys absent from the record
	Reason  string   // set when values are present but unusable
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing features: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// Validate converts a raw record into a complete FeatureVector or fails.
// All missing schema keys are reported in a single error. Present values must
// convert to finite float64s; extra keys are silently dropped.
func Validate(record RawRecord) (FeatureVector, error) {
	var missing []string
	for _, key := range FeatureKeys {
		if _, ok := record[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	features := make(FeatureVector, len(FeatureKeys))
	for _, key := range FeatureKeys {
		value, err := toFloat(record[key])
		if err != nil {
			return nil, &ValidationError{Reason: "all feature values must be numeric"}
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, &ValidationError{Reason: fmt.Sprintf("feature %s must be finite", key)}
		}
		features[key] = value
	}
	return features, nil
}

// toFloat accepts the value shapes JSON decoding and CSV parsing produce.
func toFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		return value.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
