package anomaly

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAveragePathLength(t *testing.T) {
	assert.Zero(t, averagePathLength(0))
	assert.Zero(t, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 1.2073923, averagePathLength(3), 1e-6)
	assert.InDelta(t, 10.2447709, averagePathLength(256), 1e-6)
}

func TestPercentile(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	// Линейная интерполяция между порядковыми статистиками
	assert.InDelta(t, 5.95, percentile(values, 5), 1e-9)
	assert.InDelta(t, 50.5, percentile(values, 50), 1e-9)
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 100.0, percentile(values, 100))

	assert.Equal(t, 2.0, percentile([]float64{3, 1, 2}, 50))
	assert.Equal(t, 7.0, percentile([]float64{7}, 42))
	assert.Zero(t, percentile(nil, 50))
}

func TestTrainRequiresData(t *testing.T) {
	_, err := Train(nil, DefaultConfig())
	assert.Error(t, err)

	_, err = Train([][]float64{{1, 100}}, DefaultConfig())
	assert.Error(t, err)
}

func TestTrainDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = 25
	cfg.SyntheticSamples = 300

	samples := SyntheticTrainingSet(cfg.SyntheticSamples, rand.New(rand.NewSource(cfg.Seed)))

	first, err := Train(samples, cfg)
	require.NoError(t, err)
	second, err := Train(samples, cfg)
	require.NoError(t, err)

	probe := []float64{4, 500}
	assert.Equal(t, first.ScoreSamples(probe), second.ScoreSamples(probe))
	assert.Equal(t, first.Offset, second.Offset)
	assert.Equal(t, first.Psi, second.Psi)
}

// Лес, обученный на профиле нормального поведения, отделяет типичную
// сделку от экстремальной: типичная выше порога, экстремальная ниже
func TestForestSeparatesAnomalies(t *testing.T) {
	cfg := DefaultConfig()
	samples := SyntheticTrainingSet(cfg.SyntheticSamples, rand.New(rand.NewSource(cfg.Seed)))

	forest, err := Train(samples, cfg)
	require.NoError(t, err)

	normal := forest.Decision([]float64{2, 1000})
	extreme := forest.Decision([]float64{50, 1000})

	assert.Greater(t, normal, 0.0, "типичная сделка не должна считаться аномалией")
	assert.Less(t, extreme, 0.0, "экстремальное количество должно считаться аномалией")
	assert.Greater(t, normal, extreme)
}

// Оценка ScoreSamples лежит в [-1, 0) для любой точки
func TestScoreSamplesRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = 25
	cfg.SyntheticSamples = 300

	samples := SyntheticTrainingSet(cfg.SyntheticSamples, rand.New(rand.NewSource(cfg.Seed)))
	forest, err := Train(samples, cfg)
	require.NoError(t, err)

	for _, x := range samples {
		score := forest.ScoreSamples(x)
		assert.GreaterOrEqual(t, score, -1.0)
		assert.Less(t, score, 0.0)
	}
}

func TestForestJSONRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = 10
	cfg.SyntheticSamples = 200

	samples := SyntheticTrainingSet(cfg.SyntheticSamples, rand.New(rand.NewSource(cfg.Seed)))
	forest, err := Train(samples, cfg)
	require.NoError(t, err)
	forest.Source = SourceSynthetic

	data, err := json.Marshal(forest)
	require.NoError(t, err)

	var restored Forest
	require.NoError(t, json.Unmarshal(data, &restored))

	if diff := cmp.Diff(forest, &restored); diff != "" {
		t.Errorf("модель изменилась после сериализации (-было +стало):\n%s", diff)
	}

	probe := []float64{50, 1000}
	assert.Equal(t, forest.Decision(probe), restored.Decision(probe))
}
