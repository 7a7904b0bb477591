package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartflow-dq/smartflow/models"
)

// Обязательные поля разобранной транзакции
var requiredFields = []string{"item", "qty", "client"}

// ValidateStructure — первая линия защиты конвейера: проверяет
// структурную целостность данных, полученных от LLM-парсера, без
// обращений к базе данных. Возвращает список ошибок; пустой список
// означает валидные данные. Тексты ошибок попадают в конверт ответа,
// поэтому остаются английскими
func ValidateStructure(data map[string]any) []string {
	var errs []string

	if len(data) == 0 {
		return append(errs, "input data is empty")
	}

	// 1. Наличие обязательных полей
	for _, field := range requiredFields {
		if value, ok := data[field]; !ok || value == nil {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	// 2. Типы и значения
	if qty, ok := asInt(data["qty"]); !ok {
		errs = append(errs, "field qty must be an integer")
	} else if qty <= 0 {
		errs = append(errs, "field qty must be greater than zero")
	}

	for _, field := range []string{"item", "client"} {
		if s, ok := data[field].(string); !ok || strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("field %s must be a non-empty string", field))
		}
	}

	return errs
}

// asInt приводит значение поля qty к целому числу. Числа из ответа LLM
// декодируются как json.Number, mock-парсер возвращает int. Дробные
// значения целым числом не считаются
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// ToTransaction преобразует проверенную карту в типизированную
// транзакцию. Поле action необязательно и по умолчанию пустое
func ToTransaction(data map[string]any) (*models.ParsedTransaction, error) {
	qty, ok := asInt(data["qty"])
	if !ok {
		return nil, fmt.Errorf("поле qty не является целым числом: %v", data["qty"])
	}

	item, ok := data["item"].(string)
	if !ok {
		return nil, fmt.Errorf("поле item не является строкой: %v", data["item"])
	}

	client, ok := data["client"].(string)
	if !ok {
		return nil, fmt.Errorf("поле client не является строкой: %v", data["client"])
	}

	action, _ := data["action"].(string)

	return &models.ParsedTransaction{
		Item:   item,
		Qty:    qty,
		Client: client,
		Action: action,
	}, nil
}
