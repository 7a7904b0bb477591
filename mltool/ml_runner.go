package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/smartflow-dq/smartflow/config"
	"github.com/smartflow-dq/smartflow/database"
	"github.com/smartflow-dq/smartflow/pipeline/anomaly"
	"github.com/smartflow-dq/smartflow/pipeline/parser"
	"github.com/smartflow-dq/smartflow/utils"
)

// MLRunner — служебная утилита вокруг детектора аномалий: обучение
// модели на истории фактов, оценка отдельной пары признаков и проверка
// доступности LLM-парсера без запуска сервера
type MLRunner struct {
	config    *config.Config
	db        *sql.DB
	logger    *utils.PipelineLogger
	detector  *anomaly.Detector
	processor *anomaly.Processor
}

// NewMLRunner создает новый экземпляр MLRunner с подключением к базе
func NewMLRunner(configPath string) (*MLRunner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	logger := utils.NewPipelineLogger(cfg.LogFile, cfg.EnableDetailedLogging)
	logger.Info("Инициализация ML Runner")

	db, err := config.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	if err := database.Bootstrap(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подготовки структуры базы данных: %w", err)
	}

	txRepo := database.NewTransactionRepository(db, logger)
	detector := anomaly.NewDetector(cfg.Anomaly.ModelPath, logger)
	processor := anomaly.NewProcessor(detector, txRepo, anomalyConfig(cfg), logger)

	return &MLRunner{
		config:    cfg,
		db:        db,
		logger:    logger,
		detector:  detector,
		processor: processor,
	}, nil
}

// Close закрывает соединение с базой данных
func (r *MLRunner) Close() {
	r.logger.Info("Завершение работы ML Runner")
	if r.db != nil {
		r.db.Close()
	}
	r.logger.Sync()
}

func anomalyConfig(cfg *config.Config) anomaly.Config {
	return anomaly.Config{
		ModelPath:        cfg.Anomaly.ModelPath,
		Trees:            cfg.Anomaly.Trees,
		SampleSize:       cfg.Anomaly.SampleSize,
		Contamination:    cfg.Anomaly.Contamination,
		SyntheticSamples: cfg.Anomaly.SyntheticSamples,
		MinRealSamples:   cfg.Anomaly.MinRealSamples,
		MaxTrainSamples:  cfg.Anomaly.MaxTrainSamples,
		Seed:             42,
	}
}

// RunTrain обучает модель на истории фактов (или синтетике при пустой
// базе) и сохраняет ее на диск
func RunTrain(configPath string) {
	runner, err := NewMLRunner(configPath)
	if err != nil {
		log.Fatalf("Ошибка при создании ML Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.processor.Retrain(context.Background()); err != nil {
		log.Fatalf("Ошибка при обучении модели: %v", err)
	}

	model := runner.detector.Model()
	fmt.Printf("Модель сохранена в %s\n", runner.config.Anomaly.ModelPath)
	fmt.Printf("  деревьев:  %d\n", len(model.Trees))
	fmt.Printf("  выборка:   %d строк (%s)\n", model.SampleCount, model.Source)
	fmt.Printf("  порог:     %.6f\n", model.Offset)
}

// RunScore оценивает одну пару признаков сохраненной моделью.
// База данных не требуется: модель читается с диска
func RunScore(configPath string, qty int, price float64) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := utils.NewPipelineLogger(cfg.LogFile, false)
	defer logger.Sync()

	detector := anomaly.NewDetector(cfg.Anomaly.ModelPath, logger)
	if err := detector.Load(); err != nil {
		log.Fatalf("Модель не загружена (сначала выполните -mode train): %v", err)
	}

	score, flagged := detector.Check(qty, price)
	model := detector.Model()

	fmt.Printf("Признаки: количество=%d, цена за единицу=%.2f\n", qty, price)
	fmt.Printf("Оценка:   %.6f\n", score)
	if flagged {
		fmt.Println("Вердикт:  ⚠️ АНОМАЛИЯ")
	} else {
		fmt.Println("Вердикт:  ✅ норма")
	}
	fmt.Printf("Модель:   %d деревьев, обучена %s (%s, %d строк)\n",
		len(model.Trees), model.TrainedAt.Format("2006-01-02 15:04:05"), model.Source, model.SampleCount)
}

// RunCheck прогоняет пробный текст через LLM-парсер и печатает
// извлеченную структуру. Без ключа API используется mock-режим
func RunCheck(configPath, text string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := utils.NewPipelineLogger(cfg.LogFile, true)
	defer logger.Sync()

	ctx := context.Background()
	p, err := parser.New(ctx, parser.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		MaxAttempts: cfg.Gemini.MaxAttempts,
		RetryWait:   cfg.Gemini.RetryWait.Std(),
		Timeout:     cfg.Gemini.Timeout.Std(),
	}, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации парсера: %v", err)
	}

	if _, ok := p.(*parser.MockParser); ok {
		fmt.Println("Режим парсера: MOCK (ключ API не задан)")
	} else {
		fmt.Printf("Режим парсера: Gemini (%s)\n", cfg.Gemini.Model)
	}

	parsed, err := p.Parse(ctx, text)
	if err != nil {
		log.Fatalf("Ошибка разбора текста: %v", err)
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		log.Fatalf("Ошибка форматирования результата: %v", err)
	}

	fmt.Printf("Вход:  %s\n", text)
	fmt.Printf("Выход: %s\n", pretty)
}

func main() {
	// Параметры командной строки
	modePtr := flag.String("mode", "train", "Режим работы: train, score или check")
	configPtr := flag.String("config", "config.yaml", "Путь к файлу конфигурации")
	qtyPtr := flag.Int("qty", 2, "Количество для оценки (только для режима score)")
	pricePtr := flag.Float64("price", 999.99, "Цена за единицу для оценки (только для режима score)")
	textPtr := flag.String("text", "Sold 2 iPhone 15s to Client A", "Пробный текст (только для режима check)")

	flag.Parse()

	log.Println("Запуск ML Runner в режиме:", *modePtr)

	switch *modePtr {
	case "train":
		RunTrain(*configPtr)
	case "score":
		RunScore(*configPtr, *qtyPtr, *pricePtr)
	case "check":
		RunCheck(*configPtr, *textPtr)
	default:
		log.Println("Неизвестный режим работы:", *modePtr)
		log.Println("Доступные режимы: train, score, check")
		os.Exit(1)
	}

	log.Println("ML Runner завершил работу")
}
