package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
)

// IngestionRepository отвечает за журнал приёма и гарантию идемпотентности
type IngestionRepository struct {
	db     *sql.DB
	logger *utils.PipelineLogger
}

// NewIngestionRepository создает новый экземпляр IngestionRepository
func NewIngestionRepository(db *sql.DB, logger *utils.PipelineLogger) *IngestionRepository {
	return &IngestionRepository{
		db:     db,
		logger: logger,
	}
}

// HasAccepted проверяет, была ли уже принята транзакция с таким хешем.
// Отклонённые попытки повтор не блокируют
func (r *IngestionRepository) HasAccepted(ctx context.Context, requestHash string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM ingestion_log WHERE request_hash = ? AND status = ? LIMIT 1",
		requestHash, models.IngestionAccepted,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке идемпотентности: %w", err)
	}
	return true, nil
}

// Log записывает терминальный исход обработки запроса в журнал приёма
func (r *IngestionRepository) Log(ctx context.Context, rec models.IngestionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingestion_log (request_hash, request_id, status, error_message, raw_payload)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.RequestHash, rec.RequestID, rec.Status, rec.ErrorMessage, rec.RawPayload,
	)
	if err != nil {
		return fmt.Errorf("ошибка при записи журнала приёма: %w", err)
	}
	return nil
}

// insertIngestionRecord вставляет запись журнала внутри транзакции факта
func insertIngestionRecord(ctx context.Context, tx *sql.Tx, rec models.IngestionRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ingestion_log (request_hash, request_id, status, error_message, raw_payload)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.RequestHash, rec.RequestID, rec.Status, rec.ErrorMessage, rec.RawPayload,
	)
	if err != nil {
		return fmt.Errorf("ошибка при записи журнала приёма: %w", err)
	}
	return nil
}
