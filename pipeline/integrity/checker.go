package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartflow-dq/smartflow/database"
	"github.com/smartflow-dq/smartflow/models"
)

// Resolution — результат сопоставления разобранной транзакции со
// справочниками. Нулевой идентификатор означает, что сущность не
// распознана
type Resolution struct {
	ItemID   int
	ClientID int
	Log      models.NormalizationLog
}

// Checker связывает нормализацию названий с поиском суррогатных ключей
// в таблицах измерений
type Checker struct {
	normalizer *Normalizer
	items      ItemSource
	clients    ClientSource
}

func NewChecker(normalizer *Normalizer, items ItemSource, clients ClientSource) *Checker {
	return &Checker{
		normalizer: normalizer,
		items:      items,
		clients:    clients,
	}
}

// Resolve нормализует названия товара и клиента и находит их
// идентификаторы. Отсутствие сущности в справочнике не является
// ошибкой: соответствующий идентификатор остается нулевым, решение об
// отклонении принимает конвейер
func (c *Checker) Resolve(ctx context.Context, parsed *models.ParsedTransaction) (*Resolution, error) {
	res := &Resolution{}

	if canonical, ok := c.normalizer.NormalizeItem(parsed.Item); ok {
		res.Log.NormalizedItem = canonical
		id, err := c.items.FindItemIDByName(ctx, canonical)
		switch {
		case err == nil:
			res.ItemID = id
		case errors.Is(err, database.ErrNotFound):
			// справочник изменился между обновлениями кэша
		default:
			return res, fmt.Errorf("ошибка при поиске идентификатора товара: %w", err)
		}
	}

	if canonical, ok := c.normalizer.NormalizeClient(parsed.Client); ok {
		res.Log.NormalizedClient = canonical
		id, err := c.clients.FindClientIDByName(ctx, canonical)
		switch {
		case err == nil:
			res.ClientID = id
		case errors.Is(err, database.ErrNotFound):
		default:
			return res, fmt.Errorf("ошибка при поиске идентификатора клиента: %w", err)
		}
	}

	return res, nil
}
