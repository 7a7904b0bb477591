// routes/transaction_handlers.go
package routes

import (
	"context"
	"net/http"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
)

// RecentTransactionsSource отдает последние зафиксированные транзакции
type RecentTransactionsSource interface {
	FetchRecent(ctx context.Context, limit int) ([]models.TransactionRecord, error)
}

const recentTransactionsLimit = 10

// TransactionsHandler отдает последние транзакции для дашборда.
// Недоступность базы не валит дашборд: клиент получает пустой список.
func TransactionsHandler(transactions RecentTransactionsSource, logger *utils.PipelineLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := transactions.FetchRecent(r.Context(), recentTransactionsLimit)
		if err != nil {
			logger.Error("❌ Ошибка при получении последних транзакций: %v", err)
			records = nil
		}
		if records == nil {
			records = []models.TransactionRecord{}
		}
		writeJSON(w, http.StatusOK, records, logger)
	}
}
