package anomaly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smartflow-dq/smartflow/utils"
)

// Processor управляет жизненным циклом модели аномалий: холодный старт,
// фоновое переобучение и сохранение на диск
type Processor struct {
	detector *Detector
	data     *DataService
	cfg      Config
	logger   *utils.PipelineLogger
}

func NewProcessor(detector *Detector, source SampleSource, cfg Config, logger *utils.PipelineLogger) *Processor {
	return &Processor{
		detector: detector,
		data:     NewDataService(source, cfg, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Initialize готовит модель при старте сервиса: загружает ее с диска,
// а при отсутствии файла обучает и сохраняет новую
func (p *Processor) Initialize(ctx context.Context) error {
	err := p.detector.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	p.logger.Info("⚠️ Файл модели %s не найден, обучаем новую модель", p.cfg.ModelPath)
	return p.Retrain(ctx)
}

// Retrain обучает лес заново и атомарно подменяет активную модель.
// Прежняя модель продолжает обслуживать конвейер до конца обучения
func (p *Processor) Retrain(ctx context.Context) error {
	startTime := time.Now()
	p.logger.Info("🔄 Начинаем переобучение модели аномалий...")

	samples, source, err := p.data.TrainingSet(ctx)
	if err != nil {
		return fmt.Errorf("ошибка подготовки обучающей выборки: %w", err)
	}

	forest, err := Train(samples, p.cfg)
	if err != nil {
		return err
	}
	forest.Source = source

	p.detector.Swap(forest)
	if err := p.detector.Save(); err != nil {
		return err
	}

	p.logger.Info("✅ Модель аномалий обучена за %v (строк: %d, источник: %s, порог: %.4f)",
		time.Since(startTime), forest.SampleCount, source, forest.Offset)
	return nil
}
