package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartflow-dq/smartflow/database"
)

// StockReader читает остаток и цену товара
type StockReader interface {
	GetItemStock(ctx context.Context, itemID int) (int, float64, error)
}

// CreditReader читает кредитный лимит клиента
type CreditReader interface {
	GetClientCreditLimit(ctx context.Context, clientID int) (float64, error)
}

// Approval — вердикт бизнес-правил. Reason заполняется английским
// текстом, который попадает в конверт ответа при отказе
type Approval struct {
	Allowed    bool
	Reason     string
	UnitPrice  float64
	TotalPrice float64
}

// Engine применяет бизнес-правила к уже распознанной транзакции:
// достаточно ли товара на складе и укладывается ли сумма сделки в
// кредитный лимит клиента
type Engine struct {
	stocks  StockReader
	credits CreditReader
}

func NewEngine(stocks StockReader, credits CreditReader) *Engine {
	return &Engine{stocks: stocks, credits: credits}
}

// CheckTransaction проверяет правила в фиксированном порядке: сначала
// остаток, затем кредитный лимит. Нарушение правила не является
// ошибкой — ошибка возвращается только при сбое инфраструктуры
func (e *Engine) CheckTransaction(ctx context.Context, itemID, clientID, qty int) (*Approval, error) {
	stock, unitPrice, err := e.stocks.GetItemStock(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return &Approval{Reason: fmt.Sprintf("Item ID %d not found in DB.", itemID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении остатка товара: %w", err)
	}

	if qty > stock {
		return &Approval{
			Reason:    fmt.Sprintf("Insufficient Stock. Requested: %d, Available: %d", qty, stock),
			UnitPrice: unitPrice,
		}, nil
	}

	total := float64(qty) * unitPrice

	limit, err := e.credits.GetClientCreditLimit(ctx, clientID)
	if errors.Is(err, database.ErrNotFound) {
		return &Approval{Reason: fmt.Sprintf("Client ID %d not found in DB.", clientID), UnitPrice: unitPrice}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении кредитного лимита: %w", err)
	}

	if total > limit {
		return &Approval{
			Reason:     fmt.Sprintf("Credit Limit Exceeded. Total: %.2f, Limit: %.2f", total, limit),
			UnitPrice:  unitPrice,
			TotalPrice: total,
		}, nil
	}

	return &Approval{
		Allowed:    true,
		Reason:     "Stock Available",
		UnitPrice:  unitPrice,
		TotalPrice: total,
	}, nil
}
