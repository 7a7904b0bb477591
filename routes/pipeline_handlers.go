// routes/pipeline_handlers.go
package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
)

// TransactionProcessor прогоняет сырой текст через конвейер качества данных
type TransactionProcessor interface {
	Process(ctx context.Context, rawText string) *models.PipelineResult
}

// ProcessRequest структура тела запроса на прием транзакции
type ProcessRequest struct {
	Text string `json:"text"`
}

// ErrorResponse структура ответа при отклоненном HTTP-запросе
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthHandler сообщает, что сервис в строю
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "online",
			"system": "SmartFlow v1.5",
		}, nil)
	}
}

// ProcessHandler принимает сырой текст и возвращает конверт результата.
// Любой исход конвейера — это HTTP 200: отказ шага описывается полем
// error внутри конверта. 400 возвращается только на пустой ввод.
func ProcessHandler(pipe TransactionProcessor, logger *utils.PipelineLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Input text cannot be empty."}, logger)
			return
		}

		// Текст передается как есть: хэш идемпотентности считается по сырому вводу
		result := pipe.Process(r.Context(), req.Text)
		writeJSON(w, http.StatusOK, result, logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}, logger *utils.PipelineLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("❌ Ошибка при кодировании JSON-ответа: %v", err)
	}
}
