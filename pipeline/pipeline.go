package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/pipeline/integrity"
	"github.com/smartflow-dq/smartflow/pipeline/logic"
	"github.com/smartflow-dq/smartflow/pipeline/parser"
	"github.com/smartflow-dq/smartflow/pipeline/validator"
	"github.com/smartflow-dq/smartflow/processor"
	"github.com/smartflow-dq/smartflow/utils"
)

// Причины отказа, попадающие в конверт ответа
const (
	msgDuplicate    = "Duplicate Transaction Detected (Idempotency Guard)."
	msgParseFailed  = "LLM failed to parse input."
	msgCommitFailed = "Database Commit Failed."
)

// Тип событий живой ленты
const feedEventType = "pipeline_result"

// TransactionStore атомарно фиксирует принятую транзакцию
type TransactionStore interface {
	SaveTransaction(ctx context.Context, fact models.TransactionFact, ingestion models.IngestionRecord) (int64, error)
}

// IngestionStore ведет журнал приема запросов
type IngestionStore interface {
	HasAccepted(ctx context.Context, requestHash string) (bool, error)
	Log(ctx context.Context, rec models.IngestionRecord) error
}

// EntityResolver сопоставляет разобранную транзакцию со справочниками
type EntityResolver interface {
	Resolve(ctx context.Context, parsed *models.ParsedTransaction) (*integrity.Resolution, error)
}

// RuleEngine применяет бизнес-правила к распознанной транзакции
type RuleEngine interface {
	CheckTransaction(ctx context.Context, itemID, clientID, qty int) (*logic.Approval, error)
}

// AnomalyScorer оценивает аномальность транзакции
type AnomalyScorer interface {
	Check(qty int, unitPrice float64) (float64, bool)
}

// FeedPublisher рассылает события живой ленты
type FeedPublisher interface {
	BroadcastEvent(event models.FeedEvent)
}

// Pipeline — конвейер контроля качества данных. Каждый запрос проходит
// фиксированную последовательность шагов: идемпотентность, извлечение
// структуры, структурная валидация, сопоставление со справочниками,
// бизнес-правила, оценка аномальности и атомарная фиксация
type Pipeline struct {
	parser       parser.Parser
	resolver     EntityResolver
	rules        RuleEngine
	scorer       AnomalyScorer
	transactions TransactionStore
	ingestion    IngestionStore
	feed         FeedPublisher
	logger       *utils.PipelineLogger
}

func New(
	p parser.Parser,
	resolver EntityResolver,
	rules RuleEngine,
	scorer AnomalyScorer,
	transactions TransactionStore,
	ingestion IngestionStore,
	feed FeedPublisher,
	logger *utils.PipelineLogger,
) *Pipeline {
	return &Pipeline{
		parser:       p,
		resolver:     resolver,
		rules:        rules,
		scorer:       scorer,
		transactions: transactions,
		ingestion:    ingestion,
		feed:         feed,
		logger:       logger,
	}
}

// Process обрабатывает один запрос от начала до конца и всегда
// возвращает конверт: любой отказ — это REJECTED с причиной, а не
// ошибка транспортного уровня. Каждый терминальный исход архивируется
// в журнале приема и публикуется в живую ленту
func (p *Pipeline) Process(ctx context.Context, rawText string) *models.PipelineResult {
	requestID := uuid.NewString()
	startTime := time.Now()
	p.logger.LogPipelineStart(requestID)

	var logs models.PipelineLogs
	event := models.FeedEvent{Type: feedEventType, RequestID: requestID}

	// Шаг 1. Идемпотентность: повтор уже принятого текста отклоняется.
	// Сбой проверки не блокирует прием — запрос обрабатывается как новый
	requestHash := processor.RequestHash(rawText)
	duplicate, err := p.ingestion.HasAccepted(ctx, requestHash)
	if err != nil {
		p.logger.Error("Ошибка проверки идемпотентности для запроса %s: %v", requestID, err)
	}
	if duplicate {
		p.logger.LogStage(requestID, "idempotency", "повтор запроса с хешем %s", requestHash)
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionDuplicate, event,
			models.RejectedResult(requestID, msgDuplicate, logs))
	}

	// Шаг 2. Извлечение структуры из свободного текста
	parsed, err := p.parser.Parse(ctx, rawText)
	if err != nil {
		p.logger.Error("Парсер не справился с запросом %s: %v", requestID, err)
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, msgParseFailed, logs))
	}
	logs.ParsedJSON = parsed
	p.logger.LogStage(requestID, "parse", "извлечено: %v", parsed)

	// Шаг 3. Структурная валидация
	if errs := validator.ValidateStructure(parsed); len(errs) > 0 {
		reason := fmt.Sprintf("Structural Error: [%s]", strings.Join(errs, "; "))
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, reason, logs))
	}

	tx, err := validator.ToTransaction(parsed)
	if err != nil {
		p.logger.Error("Непредставимая структура в запросе %s: %v", requestID, err)
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, "Structural Error: [invalid field types]", logs))
	}
	event.Quantity = tx.Qty

	// Шаг 4. Сопоставление со справочниками: нераспознанная сущность
	// отклоняет запрос, сбой поиска приравнивается к нераспознанной
	resolution, err := p.resolver.Resolve(ctx, tx)
	if err != nil {
		p.logger.Error("Ошибка сопоставления сущностей для запроса %s: %v", requestID, err)
	}
	if resolution == nil {
		resolution = &integrity.Resolution{}
	}
	if resolution.Log != (models.NormalizationLog{}) {
		normLog := resolution.Log
		logs.Normalization = &normLog
	}
	event.Item = resolution.Log.NormalizedItem
	event.Client = resolution.Log.NormalizedClient

	if resolution.ItemID == 0 || resolution.ClientID == 0 {
		reason := fmt.Sprintf("Unknown Entity. Item_ID: %s, Client_ID: %s",
			idOrNone(resolution.ItemID), idOrNone(resolution.ClientID))
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, reason, logs))
	}

	// Шаг 5. Бизнес-правила: остаток на складе и кредитный лимит
	approval, err := p.rules.CheckTransaction(ctx, resolution.ItemID, resolution.ClientID, tx.Qty)
	if err != nil {
		p.logger.Error("Ошибка проверки бизнес-правил для запроса %s: %v", requestID, err)
		approval = &logic.Approval{Reason: "Database Error."}
	}
	if !approval.Allowed {
		reason := "Business Rule Violation: " + approval.Reason
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, reason, logs))
	}

	// Шаг 6. Оценка аномальности: помечает транзакцию, но не отклоняет
	score, flagged := p.scorer.Check(tx.Qty, approval.UnitPrice)
	logs.MLScore = &score
	event.AnomalyScore = score
	event.IsFlagged = flagged
	if flagged {
		p.logger.Info("⚠️ Запрос %s помечен как аномалия (оценка: %.4f)", requestID, score)
	}

	// Шаг 7. Атомарная фиксация: строка фактов, списание остатка и
	// журнальная запись в одной транзакции базы данных
	fact := models.TransactionFact{
		ClientID:     resolution.ClientID,
		ItemID:       resolution.ItemID,
		Quantity:     tx.Qty,
		TotalPrice:   approval.TotalPrice,
		AnomalyScore: score,
		IsFlagged:    flagged,
		DataSource:   models.DataSourceAPI,
		RequestID:    requestID,
	}
	accepted := processor.NewIngestionRecord(rawText, requestID, models.IngestionAccepted, "")
	if _, err := p.transactions.SaveTransaction(ctx, fact, accepted); err != nil {
		p.logger.Error("Ошибка фиксации транзакции для запроса %s: %v", requestID, err)
		return p.finish(ctx, rawText, requestID, startTime, models.IngestionRejected, event,
			models.RejectedResult(requestID, msgCommitFailed, logs))
	}

	event.TotalPrice = approval.TotalPrice
	data := &models.TransactionData{
		ItemID:       resolution.ItemID,
		ClientID:     resolution.ClientID,
		Quantity:     tx.Qty,
		TotalPrice:   approval.TotalPrice,
		AnomalyScore: score,
		IsFlagged:    flagged,
	}

	// Журнальная запись создана вместе с фактом, отдельная архивация не нужна
	return p.finish(ctx, rawText, requestID, startTime, "", event,
		models.SuccessResult(requestID, data, logs))
}

// finish завершает обработку: архивирует исход в журнале приема,
// публикует событие в ленту и пишет итоговый лог. Пустой ingestStatus
// означает, что журнальная запись уже зафиксирована атомарно с фактом
func (p *Pipeline) finish(ctx context.Context, rawText, requestID string, startTime time.Time,
	ingestStatus string, event models.FeedEvent, result *models.PipelineResult) *models.PipelineResult {

	if ingestStatus != "" {
		errorMessage := ""
		if result.Error != nil {
			errorMessage = *result.Error
		}
		record := processor.NewIngestionRecord(rawText, requestID, ingestStatus, errorMessage)
		if err := p.ingestion.Log(ctx, record); err != nil {
			p.logger.Error("Ошибка записи журнала приема для запроса %s: %v", requestID, err)
		}
	}

	event.Status = result.Status
	event.Error = result.Error
	event.ProcessedAt = time.Now().UTC()
	p.feed.BroadcastEvent(event)

	p.logger.LogPipelineComplete(requestID, result.Status, time.Since(startTime))
	return result
}

func idOrNone(id int) string {
	if id == 0 {
		return "none"
	}
	return strconv.Itoa(id)
}
