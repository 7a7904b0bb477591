// routes/api_routes.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/smartflow-dq/smartflow/middleware"
	"github.com/smartflow-dq/smartflow/utils"
	"github.com/smartflow-dq/smartflow/websocket"
)

// SetupRoutes настраивает все маршруты API и WebSocket
func SetupRoutes(router *mux.Router, pipe TransactionProcessor, transactions RecentTransactionsSource, feed *websocket.Manager, allowedOrigin string, logger *utils.PipelineLogger) {
	// Применяем CORS middleware
	router.Use(middleware.CORSMiddleware(allowedOrigin))

	// Проверка состояния сервиса
	router.HandleFunc("/", HealthHandler()).Methods("GET")

	// Прием сырого текста транзакции
	router.HandleFunc("/process/", ProcessHandler(pipe, logger)).Methods("POST", "OPTIONS")

	// Последние транзакции для дашборда
	router.HandleFunc("/transactions/", TransactionsHandler(transactions, logger)).Methods("GET", "OPTIONS")

	// WebSocket живой ленты
	router.HandleFunc("/ws/feed", feed.HandleFeed)
}
