package anomaly

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/smartflow-dq/smartflow/utils"
)

// Detector — потокобезопасная обертка над обученным лесом с
// персистентностью на диске. Конвейер читает модель под RLock,
// фоновое переобучение подменяет ее атомарно
type Detector struct {
	modelPath string
	logger    *utils.PipelineLogger

	mu     sync.RWMutex
	forest *Forest
}

func NewDetector(modelPath string, logger *utils.PipelineLogger) *Detector {
	return &Detector{
		modelPath: modelPath,
		logger:    logger,
	}
}

// Load читает сериализованную модель с диска и делает ее активной
func (d *Detector) Load() error {
	data, err := os.ReadFile(d.modelPath)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла модели: %w", err)
	}

	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return fmt.Errorf("ошибка разбора файла модели %s: %w", d.modelPath, err)
	}
	if len(forest.Trees) == 0 {
		return fmt.Errorf("файл модели %s не содержит деревьев", d.modelPath)
	}

	d.Swap(&forest)
	d.logger.Info("✅ Модель аномалий загружена из %s (деревьев: %d, порог: %.4f)",
		d.modelPath, len(forest.Trees), forest.Offset)
	return nil
}

// Save сериализует активную модель на диск
func (d *Detector) Save() error {
	forest := d.Model()
	if forest == nil {
		return fmt.Errorf("нет обученной модели для сохранения")
	}

	data, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("ошибка сериализации модели: %w", err)
	}
	if err := os.WriteFile(d.modelPath, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла модели: %w", err)
	}
	return nil
}

// Swap атомарно подменяет активную модель
func (d *Detector) Swap(forest *Forest) {
	d.mu.Lock()
	d.forest = forest
	d.mu.Unlock()
}

// Model возвращает активную модель; nil, если модель еще не обучена
func (d *Detector) Model() *Forest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.forest
}

// Check оценивает транзакцию по признакам [количество, цена за единицу].
// Отрицательная оценка означает аномалию: транзакция помечается, но не
// отклоняется. Без активной модели оценка нейтральна
func (d *Detector) Check(qty int, unitPrice float64) (float64, bool) {
	forest := d.Model()
	if forest == nil {
		return 1.0, false
	}

	score := forest.Decision([]float64{float64(qty), unitPrice})
	return score, score < 0
}
