package utils

import (
	"log"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PipelineLogger представляет логгер конвейера обработки транзакций
type PipelineLogger struct {
	sugar *zap.SugaredLogger
}

// NewPipelineLogger создает новый экземпляр логгера конвейера.
// Вывод дублируется в stdout и в лог-файл; verbose включает уровень debug
func NewPipelineLogger(logFile string, verbose bool) *PipelineLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}

	return &PipelineLogger{sugar: logger.Sugar()}
}

// NewNopLogger возвращает логгер, отбрасывающий все сообщения (для тестов)
func NewNopLogger() *PipelineLogger {
	return &PipelineLogger{sugar: zap.NewNop().Sugar()}
}

// Info логирует информационное сообщение
func (l *PipelineLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Error логирует сообщение об ошибке
func (l *PipelineLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug логирует отладочное сообщение
func (l *PipelineLogger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Sync сбрасывает буферизованные записи перед завершением процесса
func (l *PipelineLogger) Sync() {
	_ = l.sugar.Sync()
}

// LogPipelineStart логирует начало обработки запроса
func (l *PipelineLogger) LogPipelineStart(requestID string) {
	l.Info("Начало обработки запроса %s", requestID)
}

// LogPipelineComplete логирует завершение обработки запроса
func (l *PipelineLogger) LogPipelineComplete(requestID, status string, duration time.Duration) {
	l.Info("Запрос %s обработан. Статус: %s. Длительность: %v", requestID, status, duration)
}

// LogStage логирует событие отдельного шага конвейера
func (l *PipelineLogger) LogStage(requestID, stage, format string, v ...interface{}) {
	args := append([]interface{}{requestID, stage}, v...)
	l.Debug("[%s] %s: "+format, args...)
}
