package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/smartflow-dq/smartflow/utils"
)

// LLMParser извлекает транзакцию вызовом Gemini в режиме JSON-ответа.
// После исчерпания попыток парсер деградирует в mock-режим, чтобы
// недоступность LLM не останавливала прием транзакций
type LLMParser struct {
	client      *genai.Client
	model       string
	maxAttempts int
	retryWait   time.Duration
	timeout     time.Duration
	fallback    *MockParser
	logger      *utils.PipelineLogger
}

func NewLLMParser(ctx context.Context, cfg Config, logger *utils.PipelineLogger) (*LLMParser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &LLMParser{
		client:      client,
		model:       cfg.Model,
		maxAttempts: maxAttempts,
		retryWait:   cfg.RetryWait,
		timeout:     cfg.Timeout,
		fallback:    NewMockParser(),
		logger:      logger,
	}, nil
}

// Parse вызывает Gemini с фиксированной паузой между попытками
func (p *LLMParser) Parse(ctx context.Context, rawText string) (map[string]any, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(p.retryWait)
		}

		data, err := p.generate(ctx, rawText)
		if err == nil {
			return data, nil
		}
		lastErr = err
		p.logger.Error("Попытка %d/%d вызова Gemini не удалась: %v", attempt, p.maxAttempts, err)
	}

	p.logger.Error("⚠️ Gemini недоступен (%v), переключаемся на MOCK-режим", lastErr)
	return p.fallback.Parse(ctx, rawText)
}

func (p *LLMParser) generate(ctx context.Context, rawText string) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(extractionPrompt, rawText), genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(callCtx, p.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка вызова Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("пустой ответ модели")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return decodeObject(cleanJSONString(sb.String()))
}

// Close освобождает клиента Gemini.
// Клиент google.golang.org/genai работает поверх HTTP и не имеет метода Close —
// освобождать нечего.
func (p *LLMParser) Close() error {
	return nil
}
