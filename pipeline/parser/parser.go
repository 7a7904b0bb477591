package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smartflow-dq/smartflow/utils"
)

// Parser извлекает структурированную транзакцию из свободного текста.
// Возвращаемая карта еще не проверена: структурной валидацией
// занимается следующий шаг конвейера
type Parser interface {
	Parse(ctx context.Context, rawText string) (map[string]any, error)
}

// Config определяет параметры LLM-парсера
type Config struct {
	// Ключ API; пустое значение переводит парсер в mock-режим
	APIKey string

	// Имя модели Gemini
	Model string

	// Количество попыток вызова
	MaxAttempts int

	// Фиксированная пауза между попытками
	RetryWait time.Duration

	// Таймаут одного вызова
	Timeout time.Duration
}

// DefaultConfig возвращает параметры парсера по умолчанию
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxAttempts: 2,
		RetryWait:   2 * time.Second,
		Timeout:     10 * time.Second,
	}
}

// New выбирает реализацию парсера: Gemini при наличии ключа API,
// иначе локальный mock-режим
func New(ctx context.Context, cfg Config, logger *utils.PipelineLogger) (Parser, error) {
	if cfg.APIKey == "" {
		logger.Info("⚠️ GEMINI_API_KEY не задан, парсер работает в MOCK-режиме")
		return NewMockParser(), nil
	}
	return NewLLMParser(ctx, cfg, logger)
}

// Шаблон запроса на извлечение полей. Модель обязана вернуть чистый
// JSON без Markdown-обрамления
const extractionPrompt = `You are a Data Extraction API.
Extract the following fields from the user input:
- item (string): The product name.
- qty (integer): The quantity.
- client (string): The client/customer name.
- action (string): The action taken (e.g., sold, returned, ordered).

User Input: "%s"

Return ONLY raw JSON. Do not include markdown formatting or explanations.
Example Output: {"item": "iPhone 15", "qty": 5, "client": "Client A", "action": "sold"}`

// cleanJSONString снимает Markdown-ограждения, которыми модель иногда
// оборачивает ответ вопреки инструкции
func cleanJSONString(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// decodeObject разбирает JSON-объект, сохраняя числа как json.Number,
// чтобы валидатор мог отличить целые значения от дробных
func decodeObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("ошибка разбора JSON из ответа модели: %w", err)
	}
	return data, nil
}
