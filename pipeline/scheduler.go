package pipeline

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/smartflow-dq/smartflow/utils"
)

// Retrainer переобучает модель аномалий
type Retrainer interface {
	Retrain(ctx context.Context) error
}

// CacheRefresher обновляет кэш справочников
type CacheRefresher interface {
	Refresh(ctx context.Context) error
}

// Maintenance — фоновое обслуживание конвейера: периодическое
// переобучение модели аномалий и обновление кэша измерений
type Maintenance struct {
	retrainer    Retrainer
	refresher    CacheRefresher
	retrainEvery time.Duration
	refreshEvery time.Duration
	logger       *utils.PipelineLogger
}

func NewMaintenance(retrainer Retrainer, refresher CacheRefresher,
	retrainEvery, refreshEvery time.Duration, logger *utils.PipelineLogger) *Maintenance {
	return &Maintenance{
		retrainer:    retrainer,
		refresher:    refresher,
		retrainEvery: retrainEvery,
		refreshEvery: refreshEvery,
		logger:       logger,
	}
}

// Start запускает планировщик и блокируется до отмены контекста
func (m *Maintenance) Start(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	m.logger.Info("Запуск фонового обслуживания (переобучение: %v, обновление кэша: %v)",
		m.retrainEvery, m.refreshEvery)

	_, err := scheduler.Every(m.retrainEvery).Do(func() {
		m.logger.Info("Запланированное переобучение модели аномалий")
		if err := m.retrainer.Retrain(context.Background()); err != nil {
			m.logger.Error("Ошибка при плановом переобучении модели: %v", err)
		}
	})
	if err != nil {
		m.logger.Error("Ошибка при настройке переобучения: %v", err)
	}

	_, err = scheduler.Every(m.refreshEvery).Do(func() {
		if err := m.refresher.Refresh(context.Background()); err != nil {
			m.logger.Error("Ошибка при плановом обновлении кэша измерений: %v", err)
			return
		}
		m.logger.Debug("Кэш измерений обновлен")
	})
	if err != nil {
		m.logger.Error("Ошибка при настройке обновления кэша: %v", err)
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	m.logger.Info("Фоновое обслуживание остановлено")
}
