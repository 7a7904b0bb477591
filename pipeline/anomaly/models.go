package anomaly

import (
	"context"
	"time"
)

// Источники обучающих выборок
const (
	SourceSynthetic = "synthetic"
	SourceHistory   = "history"
)

// Config определяет параметры изолирующего леса
type Config struct {
	// Путь к сериализованной модели
	ModelPath string

	// Количество деревьев в ансамбле
	Trees int

	// Размер подвыборки для построения одного дерева
	SampleSize int

	// Ожидаемая доля аномалий в обучающих данных; задает порог отсечения
	Contamination float64

	// Количество синтетических строк для холодного старта
	SyntheticSamples int

	// Минимум реальных фактов, начиная с которого обучение идет на истории
	MinRealSamples int

	// Максимум фактов, извлекаемых из истории для переобучения
	MaxTrainSamples int

	// Зерно генератора случайных чисел: одинаковое зерно дает
	// одинаковый лес на одних и тех же данных
	Seed int64
}

// DefaultConfig возвращает параметры леса по умолчанию
func DefaultConfig() Config {
	return Config{
		ModelPath:        "isolation_forest.json",
		Trees:            100,
		SampleSize:       256,
		Contamination:    0.05,
		SyntheticSamples: 1000,
		MinRealSamples:   200,
		MaxTrainSamples:  5000,
		Seed:             42,
	}
}

// SampleSource поставляет реальные обучающие выборки из истории фактов
type SampleSource interface {
	// RecentSamples возвращает векторы признаков [количество, цена за единицу]
	// последних неаномальных транзакций
	RecentSamples(ctx context.Context, limit int) ([][]float64, error)
}

// treeNode — узел изолирующего дерева. Узел без потомков является
// листом; Size хранит число обучающих точек, осевших в узле
type treeNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Size      int      `json:"size"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// Forest — обученный изолирующий лес вместе с порогом отсечения.
// Структура сериализуется в JSON и переживает перезапуск сервиса
type Forest struct {
	Trees       []*treeNode `json:"trees"`
	Psi         int         `json:"psi"`
	Offset      float64     `json:"offset"`
	SampleCount int         `json:"sample_count"`
	Source      string      `json:"source"`
	TrainedAt   time.Time   `json:"trained_at"`
}
