package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartflow-dq/smartflow/utils"
)

// ClientRepository отвечает за доступ к измерению клиентов
type ClientRepository struct {
	db     *sql.DB
	logger *utils.PipelineLogger
}

// NewClientRepository создает новый экземпляр ClientRepository
func NewClientRepository(db *sql.DB, logger *utils.PipelineLogger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// ListClientNames возвращает канонические имена всех клиентов измерения
func (r *ClientRepository) ListClientNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT client_name FROM dim_clients ORDER BY client_id")
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе имен клиентов: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании имени клиента: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по клиентам: %w", err)
	}

	return names, nil
}

// FindClientIDByName возвращает ID клиента по каноническому имени
func (r *ClientRepository) FindClientIDByName(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		"SELECT client_id FROM dim_clients WHERE client_name = ?", name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка при поиске клиента %q: %w", name, err)
	}
	return id, nil
}

// GetClientCreditLimit возвращает кредитный лимит клиента
func (r *ClientRepository) GetClientCreditLimit(ctx context.Context, clientID int) (float64, error) {
	var limit float64
	err := r.db.QueryRowContext(ctx,
		"SELECT credit_limit FROM dim_clients WHERE client_id = ?", clientID,
	).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка при запросе кредитного лимита клиента %d: %w", clientID, err)
	}
	return limit, nil
}
