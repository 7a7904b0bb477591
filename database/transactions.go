package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
)

// TransactionRepository отвечает за фактовую таблицу звёздной схемы
type TransactionRepository struct {
	db     *sql.DB
	logger *utils.PipelineLogger
}

// NewTransactionRepository создает новый экземпляр TransactionRepository
func NewTransactionRepository(db *sql.DB, logger *utils.PipelineLogger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// SaveTransaction атомарно фиксирует принятую транзакцию: вставка строки
// фактов, списание остатка и запись журнала приёма выполняются в одной
// SQL-транзакции. Любая ошибка откатывает всё
func (r *TransactionRepository) SaveTransaction(ctx context.Context, fact models.TransactionFact, ingestion models.IngestionRecord) (int64, error) {
	startTime := time.Now()

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO fact_sales_transactions
		(client_id, item_id, quantity, total_price, anomaly_score, is_flagged, data_source, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	txStmt := tx.Stmt(stmt)
	defer txStmt.Close()

	res, err := txStmt.ExecContext(ctx,
		fact.ClientID,
		fact.ItemID,
		fact.Quantity,
		fact.TotalPrice,
		fact.AnomalyScore,
		fact.IsFlagged,
		fact.DataSource,
		fact.RequestID,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("ошибка при вставке строки фактов: %w", err)
	}

	if err := decrementStock(ctx, tx, fact.ItemID, fact.Quantity); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := insertIngestionRecord(ctx, tx, ingestion); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID транзакции: %w", err)
	}

	r.logger.Debug("Транзакция %d зафиксирована за %v", id, time.Since(startTime))
	return id, nil
}

// FetchRecent возвращает последние транзакции, соединённые с измерениями
func (r *TransactionRepository) FetchRecent(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.transaction_id, i.item_name, c.client_name, f.quantity,
		       f.total_price, f.anomaly_score, f.is_flagged, f.transaction_date
		FROM fact_sales_transactions f
		JOIN dim_items i ON f.item_id = i.item_id
		JOIN dim_clients c ON f.client_id = c.client_id
		ORDER BY f.transaction_date DESC, f.transaction_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе последних транзакций: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		err := rows.Scan(
			&rec.TransactionID,
			&rec.ItemName,
			&rec.ClientName,
			&rec.Quantity,
			&rec.TotalPrice,
			&rec.AnomalyScore,
			&rec.IsFlagged,
			&rec.TransactionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании транзакции: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по транзакциям: %w", err)
	}

	return records, nil
}

// RecentSamples возвращает признаки последних непомеченных фактов
// для переобучения детектора: [количество, цена за единицу]
func (r *TransactionRepository) RecentSamples(ctx context.Context, limit int) ([][]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT quantity, total_price
		FROM fact_sales_transactions
		WHERE is_flagged = 0 AND quantity > 0
		ORDER BY transaction_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выборке обучающих данных: %w", err)
	}
	defer rows.Close()

	var samples [][]float64
	for rows.Next() {
		var qty int
		var total float64
		if err := rows.Scan(&qty, &total); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании обучающей строки: %w", err)
		}
		samples = append(samples, []float64{float64(qty), total / float64(qty)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по обучающим данным: %w", err)
	}

	return samples, nil
}
