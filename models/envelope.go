package models

import (
	"time"
)

// Статусы итогового конверта ответа
const (
	StatusSuccess  = "SUCCESS"
	StatusRejected = "REJECTED"
)

// TransactionData представляет полезную нагрузку успешного ответа
type TransactionData struct {
	ItemID       int     `json:"item_id"`
	ClientID     int     `json:"client_id"`
	Quantity     int     `json:"quantity"`
	TotalPrice   float64 `json:"total_price"`
	AnomalyScore float64 `json:"anomaly_score"`
	IsFlagged    bool    `json:"is_flagged"`
}

// NormalizationLog представляет результат нормализации сущностей
type NormalizationLog struct {
	NormalizedItem   string `json:"normalized_item"`
	NormalizedClient string `json:"normalized_client"`
}

// PipelineLogs собирает промежуточные артефакты шагов конвейера:
// сырой JSON парсера, итог нормализации и ML-оценку
type PipelineLogs struct {
	ParsedJSON    map[string]any    `json:"parsed_json,omitempty"`
	Normalization *NormalizationLog `json:"normalization,omitempty"`
	MLScore       *float64          `json:"ml_score,omitempty"`
}

// PipelineResult представляет итоговый конверт обработки одного запроса.
// Конверт возвращается с HTTP 200 и при SUCCESS, и при REJECTED:
// причина отказа передаётся внутри, а не кодом ответа
type PipelineResult struct {
	RequestID string           `json:"request_id"`
	Status    string           `json:"status"`
	Error     *string          `json:"error"`
	Data      *TransactionData `json:"data"`
	Logs      PipelineLogs     `json:"logs"`
}

// FeedEvent представляет событие живой ленты, рассылаемое по WebSocket
// после каждого терминального исхода конвейера
type FeedEvent struct {
	Type         string    `json:"type"`
	RequestID    string    `json:"request_id"`
	Status       string    `json:"status"`
	Item         string    `json:"item,omitempty"`
	Client       string    `json:"client,omitempty"`
	Quantity     int       `json:"quantity,omitempty"`
	TotalPrice   float64   `json:"total_price,omitempty"`
	AnomalyScore float64   `json:"anomaly_score,omitempty"`
	IsFlagged    bool      `json:"is_flagged,omitempty"`
	Error        *string   `json:"error,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// RejectedResult строит конверт отказа с заданной причиной
func RejectedResult(requestID, reason string, logs PipelineLogs) *PipelineResult {
	return &PipelineResult{
		RequestID: requestID,
		Status:    StatusRejected,
		Error:     &reason,
		Data:      nil,
		Logs:      logs,
	}
}

// SuccessResult строит конверт успешной обработки
func SuccessResult(requestID string, data *TransactionData, logs PipelineLogs) *PipelineResult {
	return &PipelineResult{
		RequestID: requestID,
		Status:    StatusSuccess,
		Error:     nil,
		Data:      data,
		Logs:      logs,
	}
}
