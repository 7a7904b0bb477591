package processor

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/smartflow-dq/smartflow/models"
)

// RequestHash вычисляет ключ идемпотентности: hex-представление
// SHA-256 от исходного текста запроса
func RequestHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NewIngestionRecord объединяет два этапа подготовки записи журнала приёма:
// 1. Вычисление ключа идемпотентности по исходному тексту (RequestHash)
// 2. Сжатие исходного текста для архивного хранения (CompressPayload)
func NewIngestionRecord(rawText, requestID, status, errorMessage string) models.IngestionRecord {
	return models.IngestionRecord{
		RequestHash:  RequestHash(rawText),
		RequestID:    requestID,
		Status:       status,
		ErrorMessage: errorMessage,
		RawPayload:   CompressPayload([]byte(rawText)),
	}
}
