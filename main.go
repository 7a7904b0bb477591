// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/smartflow-dq/smartflow/config"
	"github.com/smartflow-dq/smartflow/database"
	"github.com/smartflow-dq/smartflow/pipeline"
	"github.com/smartflow-dq/smartflow/pipeline/anomaly"
	"github.com/smartflow-dq/smartflow/pipeline/integrity"
	"github.com/smartflow-dq/smartflow/pipeline/logic"
	"github.com/smartflow-dq/smartflow/pipeline/parser"
	"github.com/smartflow-dq/smartflow/routes"
	"github.com/smartflow-dq/smartflow/utils"
	"github.com/smartflow-dq/smartflow/websocket"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	port := flag.Int("port", 0, "переопределение порта сервера")
	flag.Parse()

	fmt.Println("Запуск сервера SmartFlow...")

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Не удалось загрузить конфигурацию: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := utils.NewPipelineLogger(cfg.LogFile, cfg.EnableDetailedLogging)
	defer logger.Sync()

	// Инициализация базы данных
	db, err := config.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Не удалось инициализировать базу данных: %v", err)
	}
	defer db.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Проверяем структуру звёздной схемы и наполняем справочники
	if err := database.Bootstrap(rootCtx, db, logger); err != nil {
		log.Fatalf("❌ Не удалось подготовить структуру базы данных: %v", err)
	}

	// Репозитории звёздной схемы
	itemRepo := database.NewItemRepository(db, logger)
	clientRepo := database.NewClientRepository(db, logger)
	txRepo := database.NewTransactionRepository(db, logger)
	ingestionRepo := database.NewIngestionRepository(db, logger)

	// Нормализация сущностей поверх кэша справочников
	normalizer := integrity.NewNormalizer(itemRepo, clientRepo, cfg.Integrity.FuzzyCutoff)
	if err := normalizer.Refresh(rootCtx); err != nil {
		log.Fatalf("❌ Не удалось загрузить справочники: %v", err)
	}
	checker := integrity.NewChecker(normalizer, itemRepo, clientRepo)

	// Бизнес-правила склада и кредитных лимитов
	engine := logic.NewEngine(itemRepo, clientRepo)

	// Детектор аномалий: загружаем модель или обучаем с нуля
	anomalyCfg := anomaly.Config{
		ModelPath:        cfg.Anomaly.ModelPath,
		Trees:            cfg.Anomaly.Trees,
		SampleSize:       cfg.Anomaly.SampleSize,
		Contamination:    cfg.Anomaly.Contamination,
		SyntheticSamples: cfg.Anomaly.SyntheticSamples,
		MinRealSamples:   cfg.Anomaly.MinRealSamples,
		MaxTrainSamples:  cfg.Anomaly.MaxTrainSamples,
		Seed:             42,
	}
	detector := anomaly.NewDetector(cfg.Anomaly.ModelPath, logger)
	mlProcessor := anomaly.NewProcessor(detector, txRepo, anomalyCfg, logger)
	if err := mlProcessor.Initialize(rootCtx); err != nil {
		log.Fatalf("❌ Не удалось подготовить модель аномалий: %v", err)
	}

	// LLM-парсер: Gemini при наличии ключа, иначе mock-режим
	llmParser, err := parser.New(rootCtx, parser.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		MaxAttempts: cfg.Gemini.MaxAttempts,
		RetryWait:   cfg.Gemini.RetryWait.Std(),
		Timeout:     cfg.Gemini.Timeout.Std(),
	}, logger)
	if err != nil {
		log.Fatalf("❌ Не удалось инициализировать LLM-парсер: %v", err)
	}

	// Запускаем менеджер живой ленты WebSocket
	wsManager := websocket.NewManager(logger)
	go wsManager.Run(rootCtx)

	// Собираем конвейер контроля качества данных
	pipe := pipeline.New(llmParser, checker, engine, detector, txRepo, ingestionRepo, wsManager, logger)

	// Фоновое обслуживание: переобучение модели и обновление кэша измерений
	maintenance := pipeline.NewMaintenance(mlProcessor, normalizer,
		cfg.Anomaly.RetrainInterval.Std(), cfg.Integrity.RefreshInterval.Std(), logger)
	go maintenance.Start(rootCtx)

	// Создаем маршрутизатор
	router := mux.NewRouter()
	dashboardOrigin := fmt.Sprintf("http://localhost:%d", cfg.Server.DashboardPort)
	routes.SetupRoutes(router, pipe, txRepo, wsManager, dashboardOrigin, logger)

	// Настраиваем сервер
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		log.Printf("✅ Сервер SmartFlow запущен на http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Ошибка запуска сервера: %v", err)
		}
	}()

	// Канал для сигналов завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Ожидаем сигнал завершения
	<-stop
	log.Println("⚠️ Получен сигнал завершения, закрываем соединения...")

	// Останавливаем фоновые задачи и отключаем подписчиков ленты
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Ошибка остановки сервера: %v", err)
	}

	if closer, ok := llmParser.(io.Closer); ok {
		closer.Close()
	}

	// Закрываем соединение с базой данных
	if err := db.Close(); err != nil {
		log.Printf("❌ Ошибка закрытия соединения с БД: %v", err)
	} else {
		log.Println("✅ Соединение с БД закрыто")
	}

	log.Println("👋 Сервер остановлен")
}
