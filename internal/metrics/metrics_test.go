package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.Predictions.Inc()
	m.Predictions.Inc()
	m.BatchRecords.Add(5)
	m.ModelAge.Set(120)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.BatchRecords))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.ModelAge))
}

func TestNewWithRegistry_IsolatedRegistries(t *testing.T) {
	// Two registries must not share collectors; duplicate registration in a
	// shared registry would panic inside promauto.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.Predictions.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Predictions))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Predictions))
}

func TestMetrics_Gathered(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	m.PredictionScores.Observe(0.87)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]struct{}, len(families))
	for _, family := range families {
		names[family.GetName()] = struct{}{}
	}
	assert.Contains(t, names, "predictions_total")
	assert.Contains(t, names, "prediction_scores")
	assert.Contains(t, names, "model_age_seconds")
}
