package integrity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
)

// ItemSource описывает доступ к справочнику товаров
type ItemSource interface {
	ListItemNames(ctx context.Context) ([]string, error)
	FindItemIDByName(ctx context.Context, name string) (int, error)
}

// ClientSource описывает доступ к справочнику клиентов
type ClientSource interface {
	ListClientNames(ctx context.Context) ([]string, error)
	FindClientIDByName(ctx context.Context, name string) (int, error)
}

// Normalizer приводит свободные написания названий товаров и клиентов
// к каноническим именам из таблиц измерений. Справочники кэшируются в
// памяти, чтобы обработка запроса не ходила в базу за списками;
// Refresh обновляет кэш по расписанию
type Normalizer struct {
	items   ItemSource
	clients ClientSource
	cutoff  float64

	mu          sync.RWMutex
	itemNames   []string
	clientNames []string
}

// NewNormalizer создает нормализатор с порогом нечеткого совпадения.
// Кэш пуст до первого вызова Refresh
func NewNormalizer(items ItemSource, clients ClientSource, cutoff float64) *Normalizer {
	return &Normalizer{
		items:   items,
		clients: clients,
		cutoff:  cutoff,
	}
}

// Refresh перечитывает справочники из базы данных. При ошибке прежний
// кэш остается нетронутым, чтобы конвейер продолжал работать на
// последних известных данных
func (n *Normalizer) Refresh(ctx context.Context) error {
	itemNames, err := n.items.ListItemNames(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при загрузке справочника товаров: %w", err)
	}

	clientNames, err := n.clients.ListClientNames(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при загрузке справочника клиентов: %w", err)
	}

	n.mu.Lock()
	n.itemNames = itemNames
	n.clientNames = clientNames
	n.mu.Unlock()

	return nil
}

// NormalizeItem возвращает каноническое название товара и признак того,
// что совпадение найдено
func (n *Normalizer) NormalizeItem(input string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return bestMatch(input, n.itemNames, n.cutoff)
}

// NormalizeClient возвращает каноническое имя клиента и признак того,
// что совпадение найдено
func (n *Normalizer) NormalizeClient(input string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return bestMatch(input, n.clientNames, n.cutoff)
}

// bestMatch сперва ищет точное совпадение без учета регистра, затем
// ближайшее по Левенштейну имя со сходством не ниже порога
func bestMatch(input string, reference []string, cutoff float64) (string, bool) {
	cleaned := strings.TrimSpace(input)
	if cleaned == "" {
		return "", false
	}
	lowered := strings.ToLower(cleaned)

	for _, name := range reference {
		if lowered == strings.ToLower(name) {
			return name, true
		}
	}

	best := ""
	bestScore := 0.0
	for _, name := range reference {
		score := levenshtein.Match(lowered, strings.ToLower(name), nil)
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	if bestScore >= cutoff {
		return best, true
	}

	return "", false
}
