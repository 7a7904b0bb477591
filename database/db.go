// database/db.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/smartflow-dq/smartflow/utils"
)

// Ошибки уровня хранилища, на которые опирается конвейер
var (
	ErrNotFound          = errors.New("запись не найдена")
	ErrInsufficientStock = errors.New("недостаточный остаток на складе")
)

// Bootstrap проверяет структуру звёздной схемы и наполняет измерения
// справочными данными при первом запуске
func Bootstrap(ctx context.Context, db *sql.DB, logger *utils.PipelineLogger) error {
	if err := createTablesIfNotExist(ctx, db); err != nil {
		logger.Error("Ошибка создания таблиц: %v", err)
		return err
	}

	if err := seedReferenceData(ctx, db, logger); err != nil {
		logger.Error("Ошибка наполнения измерений: %v", err)
		return err
	}

	logger.Info("✅ Структура базы данных проверена и актуализирована")
	return nil
}

// Создание необходимых таблиц, если они не существуют
func createTablesIfNotExist(ctx context.Context, db *sql.DB) error {
	createDimItems := `
	CREATE TABLE IF NOT EXISTS dim_items (
		item_id INT AUTO_INCREMENT PRIMARY KEY,
		item_name VARCHAR(100) NOT NULL UNIQUE,
		current_stock INT NOT NULL DEFAULT 0,
		unit_price DECIMAL(10,2) NOT NULL DEFAULT 0.00
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	createDimClients := `
	CREATE TABLE IF NOT EXISTS dim_clients (
		client_id INT AUTO_INCREMENT PRIMARY KEY,
		client_name VARCHAR(100) NOT NULL UNIQUE,
		credit_limit DECIMAL(12,2) NOT NULL DEFAULT 0.00
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	createFactTable := `
	CREATE TABLE IF NOT EXISTS fact_sales_transactions (
		transaction_id INT AUTO_INCREMENT PRIMARY KEY,
		client_id INT NOT NULL,
		item_id INT NOT NULL,
		quantity INT NOT NULL,
		total_price DECIMAL(12,2) NOT NULL,
		anomaly_score DOUBLE NOT NULL DEFAULT 0,
		is_flagged TINYINT(1) NOT NULL DEFAULT 0,
		data_source VARCHAR(32) NOT NULL,
		request_id CHAR(36) NOT NULL,
		transaction_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (client_id) REFERENCES dim_clients(client_id),
		FOREIGN KEY (item_id) REFERENCES dim_items(item_id),
		INDEX idx_transaction_date (transaction_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	createIngestionLog := `
	CREATE TABLE IF NOT EXISTS ingestion_log (
		log_id INT AUTO_INCREMENT PRIMARY KEY,
		request_hash CHAR(64) NOT NULL,
		request_id CHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error_message VARCHAR(512) NOT NULL DEFAULT '',
		raw_payload BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_request_hash (request_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	tables := []struct {
		name string
		ddl  string
	}{
		{"dim_items", createDimItems},
		{"dim_clients", createDimClients},
		{"fact_sales_transactions", createFactTable},
		{"ingestion_log", createIngestionLog},
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("ошибка создания таблицы %s: %w", table.name, err)
		}
	}

	return nil
}

// Наполнение измерений справочными данными при пустой базе
func seedReferenceData(ctx context.Context, db *sql.DB, logger *utils.PipelineLogger) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dim_items").Scan(&count); err != nil {
		return fmt.Errorf("ошибка проверки измерения товаров: %w", err)
	}
	if count > 0 {
		return nil
	}

	items := []struct {
		name  string
		stock int
		price float64
	}{
		{"iPhone 15", 50, 999.99},
		{"Dell XPS", 30, 1199.99},
		{"MacBook Pro", 20, 1999.99},
	}

	clients := []struct {
		name  string
		limit float64
	}{
		{"Client A", 10000.00},
		{"TechCorp", 50000.00},
		{"AlphaLLC", 25000.00},
	}

	for _, item := range items {
		_, err := db.ExecContext(ctx,
			"INSERT INTO dim_items (item_name, current_stock, unit_price) VALUES (?, ?, ?)",
			item.name, item.stock, item.price,
		)
		if err != nil {
			return fmt.Errorf("ошибка вставки товара %s: %w", item.name, err)
		}
	}

	for _, client := range clients {
		_, err := db.ExecContext(ctx,
			"INSERT INTO dim_clients (client_name, credit_limit) VALUES (?, ?)",
			client.name, client.limit,
		)
		if err != nil {
			return fmt.Errorf("ошибка вставки клиента %s: %w", client.name, err)
		}
	}

	logger.Info("Измерения наполнены справочными данными: %d товаров, %d клиентов", len(items), len(clients))
	return nil
}
