package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Таблицы ключевых слов mock-режима: распознаются товары и клиенты
// демонстрационного каталога
var (
	mockItems = []struct{ keyword, canonical string }{
		{"iphone", "iPhone 15"},
		{"dell", "Dell XPS"},
		{"macbook", "MacBook Pro"},
	}

	mockClients = []struct{ keyword, canonical string }{
		{"techcorp", "TechCorp"},
		{"client a", "Client A"},
		{"alphallc", "AlphaLLC"},
	}

	firstNumber = regexp.MustCompile(`\b\d+\b`)
)

// MockParser извлекает транзакцию по ключевым словам без обращения к
// LLM. Используется при отсутствии ключа API и как резерв при
// недоступности Gemini; количеством считается первое число в тексте
type MockParser struct{}

func NewMockParser() *MockParser {
	return &MockParser{}
}

func (p *MockParser) Parse(ctx context.Context, rawText string) (map[string]any, error) {
	lowered := strings.ToLower(rawText)

	item := "Unknown Item"
	for _, candidate := range mockItems {
		if strings.Contains(lowered, candidate.keyword) {
			item = candidate.canonical
			break
		}
	}

	client := "Unknown Client"
	for _, candidate := range mockClients {
		if strings.Contains(lowered, candidate.keyword) {
			client = candidate.canonical
			break
		}
	}

	qty := 1
	if match := firstNumber.FindString(rawText); match != "" {
		if n, err := strconv.Atoi(match); err == nil {
			qty = n
		}
	}

	return map[string]any{
		"item":   item,
		"qty":    qty,
		"client": client,
		"action": "sold (MOCK)",
	}, nil
}
