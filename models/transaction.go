package models

import (
	"time"
)

// Источник данных, записываемый в каждую строку фактов
const DataSourceAPI = "API_V1"

// ParsedTransaction представляет структурированную транзакцию,
// извлечённую LLM из свободного текста
type ParsedTransaction struct {
	Item   string `json:"item"`
	Qty    int    `json:"qty"`
	Client string `json:"client"`
	Action string `json:"action"`
}

// TransactionFact представляет строку фактовой таблицы звёздной схемы
type TransactionFact struct {
	ClientID     int
	ItemID       int
	Quantity     int
	TotalPrice   float64
	AnomalyScore float64
	IsFlagged    bool
	DataSource   string
	RequestID    string
}

// TransactionRecord представляет факт, соединённый с измерениями,
// для выдачи последних транзакций через API
type TransactionRecord struct {
	TransactionID   int       `json:"transaction_id"`
	ItemName        string    `json:"item_name"`
	ClientName      string    `json:"client_name"`
	Quantity        int       `json:"quantity"`
	TotalPrice      float64   `json:"total_price"`
	AnomalyScore    float64   `json:"anomaly_score"`
	IsFlagged       bool      `json:"is_flagged"`
	TransactionDate time.Time `json:"transaction_date"`
}

// Статусы записей журнала приёма
const (
	IngestionAccepted  = "accepted"
	IngestionRejected  = "rejected"
	IngestionDuplicate = "duplicate"
)

// IngestionRecord представляет запись журнала приёма: хеш идемпотентности,
// итоговый статус и сжатый исходный текст запроса
type IngestionRecord struct {
	RequestHash  string
	RequestID    string
	Status       string
	ErrorMessage string
	RawPayload   []byte
}
