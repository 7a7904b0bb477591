package anomaly

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/smartflow-dq/smartflow/utils"
)

// DataService готовит обучающие выборки для переобучения леса
type DataService struct {
	source SampleSource
	cfg    Config
	logger *utils.PipelineLogger
}

func NewDataService(source SampleSource, cfg Config, logger *utils.PipelineLogger) *DataService {
	return &DataService{
		source: source,
		cfg:    cfg,
		logger: logger,
	}
}

// SyntheticTrainingSet генерирует профиль нормального поведения для
// холодного старта: количество от 1 до 9 единиц, цена за единицу от
// 100 до 1999
func SyntheticTrainingSet(n int, rng *rand.Rand) [][]float64 {
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{
			float64(rng.Intn(9) + 1),
			float64(rng.Intn(1900) + 100),
		}
	}
	return samples
}

// TrainingSet возвращает выборку для обучения: историю принятых фактов,
// когда накоплено достаточно строк, иначе синтетические данные
func (s *DataService) TrainingSet(ctx context.Context) ([][]float64, string, error) {
	if s.source != nil {
		samples, err := s.source.RecentSamples(ctx, s.cfg.MaxTrainSamples)
		if err != nil {
			return nil, "", fmt.Errorf("ошибка при выборке истории транзакций: %w", err)
		}
		if len(samples) >= s.cfg.MinRealSamples {
			return samples, SourceHistory, nil
		}
		s.logger.Debug("Истории недостаточно (%d строк при минимуме %d), обучение на синтетических данных",
			len(samples), s.cfg.MinRealSamples)
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	return SyntheticTrainingSet(s.cfg.SyntheticSamples, rng), SourceSynthetic, nil
}
