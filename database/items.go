package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartflow-dq/smartflow/utils"
)

// ItemRepository отвечает за доступ к измерению товаров
type ItemRepository struct {
	db     *sql.DB
	logger *utils.PipelineLogger
}

// NewItemRepository создает новый экземпляр ItemRepository
func NewItemRepository(db *sql.DB, logger *utils.PipelineLogger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// ListItemNames возвращает канонические имена всех товаров измерения
func (r *ItemRepository) ListItemNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT item_name FROM dim_items ORDER BY item_id")
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе имен товаров: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании имени товара: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по товарам: %w", err)
	}

	return names, nil
}

// FindItemIDByName возвращает ID товара по каноническому имени
func (r *ItemRepository) FindItemIDByName(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		"SELECT item_id FROM dim_items WHERE item_name = ?", name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка при поиске товара %q: %w", name, err)
	}
	return id, nil
}

// GetItemStock возвращает текущий остаток и цену товара
func (r *ItemRepository) GetItemStock(ctx context.Context, itemID int) (int, float64, error) {
	var stock int
	var price float64
	err := r.db.QueryRowContext(ctx,
		"SELECT current_stock, unit_price FROM dim_items WHERE item_id = ?", itemID,
	).Scan(&stock, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка при запросе остатка товара %d: %w", itemID, err)
	}
	return stock, price, nil
}

// decrementStock списывает остаток внутри транзакции записи факта.
// Остаток не может уйти в минус: при гонке запросов списание отклоняется
func decrementStock(ctx context.Context, tx *sql.Tx, itemID, qty int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE dim_items SET current_stock = current_stock - ? WHERE item_id = ? AND current_stock >= ?",
		qty, itemID, qty,
	)
	if err != nil {
		return fmt.Errorf("ошибка при списании остатка товара %d: %w", itemID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке списания остатка: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}
