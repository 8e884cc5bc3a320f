// Package train turns the raw KOI catalogue into a normalized training
// corpus and fits the logistic-regression parameters served at inference
// time. Training is fully deterministic: the same catalogue, schema order,
// and hyperparameters always produce bit-identical weights.
package train

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"exodetect/internal/dataset"
	"exodetect/internal/model"
	"exodetect/internal/schema"
)

// Corpus is the fully imputed and z-score-normalized training matrix with
// its parallel label vector and the statistics needed to reproduce the same
// transform at inference time.
type Corpus struct {
	Matrix  [][]float64 // rows aligned to Labels, columns to schema.FeatureKeys
	Labels  []float64   // 1.0 = CONFIRMED, 0.0 = FALSE POSITIVE
	Medians map[string]float64
	Means   map[string]float64
	Stds    map[string]float64
}

// Preprocess filters the catalogue to rows with a recognized disposition,
// imputes missing values with per-feature medians, and normalizes every
// column to zero mean and unit variance. A column with zero sample variance
// keeps std=1.0 so degenerate features contribute nothing after centering
// instead of dividing by zero.
func Preprocess(rows []dataset.Row) (*Corpus, error) {
	keys := schema.FeatureKeys

	var (
		samples [][]float64 // NaN marks a missing value until imputation
		labels  []float64
	)
	observed := make(map[string][]float64, len(keys))

	for _, row := range rows {
		var label float64
		switch row.Disposition() {
		case dataset.DispositionConfirmed:
			label = 1.0
		case dataset.DispositionFalsePositive:
			label = 0.0
		default:
			continue
		}
		labels = append(labels, label)

		sample := make([]float64, len(keys))
		for i, key := range keys {
			value, ok := parseValue(row[key])
			if !ok {
				sample[i] = math.NaN()
				continue
			}
			sample[i] = value
			observed[key] = append(observed[key], value)
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no rows with a recognized disposition")
	}

	medians := make(map[string]float64, len(keys))
	for _, key := range keys {
		medians[key] = model.Median(observed[key])
	}

	// Impute, then accumulate means over the complete matrix.
	means := make(map[string]float64, len(keys))
	for _, sample := range samples {
		for i, key := range keys {
			if math.IsNaN(sample[i]) {
				sample[i] = medians[key]
			}
			means[key] += sample[i]
		}
	}
	count := float64(len(samples))
	for _, key := range keys {
		means[key] /= count
	}

	stds := make(map[string]float64, len(keys))
	for _, sample := range samples {
		for i, key := range keys {
			diff := sample[i] - means[key]
			stds[key] += diff * diff
		}
	}
	denom := math.Max(count-1, 1)
	for _, key := range keys {
		if stds[key] == 0 {
			stds[key] = 1.0
			continue
		}
		stds[key] = math.Sqrt(stds[key] / denom)
	}

	for _, sample := range samples {
		for i, key := range keys {
			sample[i] = (sample[i] - means[key]) / stds[key]
		}
	}

	return &Corpus{
		Matrix:  samples,
		Labels:  labels,
		Medians: medians,
		Means:   means,
		Stds:    stds,
	}, nil
}

// parseValue reports whether raw holds a usable numeric value. Empty strings,
// the literal "nan" in any casing, and unparseable text are all missing, not
// zero.
func parseValue(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
