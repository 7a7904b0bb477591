package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration оборачивает time.Duration для разбора строк вида "5m" из YAML
type Duration time.Duration

// UnmarshalYAML разбирает длительность из строкового значения
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("некорректная длительность %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std возвращает стандартный time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config содержит конфигурацию сервиса SmartFlow
type Config struct {
	// Конфигурация HTTP-сервера
	Server ServerConfig `yaml:"server"`

	// Конфигурация подключения к базе данных (звёздная схема)
	Database DatabaseConfig `yaml:"database"`

	// Конфигурация LLM-парсера
	Gemini GeminiConfig `yaml:"gemini"`

	// Конфигурация детектора аномалий
	Anomaly AnomalyConfig `yaml:"anomaly"`

	// Конфигурация нормализации сущностей
	Integrity IntegrityConfig `yaml:"integrity"`

	// Файл лога (дублирует stdout)
	LogFile string `yaml:"log_file"`

	// Включение/отключение подробного логирования
	EnableDetailedLogging bool `yaml:"enable_detailed_logging"`
}

// ServerConfig содержит настройки HTTP-сервера
type ServerConfig struct {
	// Порт backend-сервиса
	Port int `yaml:"port"`

	// Порт внешнего дашборда (используется для CORS-ограничения)
	DashboardPort int `yaml:"dashboard_port"`

	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// GeminiConfig содержит настройки LLM-парсера
type GeminiConfig struct {
	// Ключ API; пустое значение переводит парсер в mock-режим
	APIKey string `yaml:"api_key"`

	// Имя модели Gemini
	Model string `yaml:"model"`

	// Количество попыток вызова LLM
	MaxAttempts int `yaml:"max_attempts"`

	// Фиксированная пауза между попытками
	RetryWait Duration `yaml:"retry_wait"`

	// Таймаут одного вызова
	Timeout Duration `yaml:"timeout"`
}

// AnomalyConfig содержит настройки изолирующего леса
type AnomalyConfig struct {
	// Путь к сериализованной модели
	ModelPath string `yaml:"model_path"`

	// Количество деревьев в ансамбле
	Trees int `yaml:"trees"`

	// Размер подвыборки для построения одного дерева
	SampleSize int `yaml:"sample_size"`

	// Ожидаемая доля аномалий в обучающих данных
	Contamination float64 `yaml:"contamination"`

	// Количество синтетических строк для холодного обучения
	SyntheticSamples int `yaml:"synthetic_samples"`

	// Минимум реальных фактов для обучения на истории
	MinRealSamples int `yaml:"min_real_samples"`

	// Максимум фактов, извлекаемых для переобучения
	MaxTrainSamples int `yaml:"max_train_samples"`

	// Интервал фонового переобучения
	RetrainInterval Duration `yaml:"retrain_interval"`
}

// IntegrityConfig содержит настройки нормализации сущностей
type IntegrityConfig struct {
	// Порог принятия нечеткого совпадения (0..1]
	FuzzyCutoff float64 `yaml:"fuzzy_cutoff"`

	// Интервал фонового обновления кэша измерений
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Значения конфигурации по умолчанию
var (
	DefaultServerConfig = ServerConfig{
		Port:          8000,
		DashboardPort: 8501,
		ReadTimeout:   Duration(15 * time.Second),
		WriteTimeout:  Duration(15 * time.Second),
		IdleTimeout:   Duration(60 * time.Second),
	}

	DefaultDatabaseConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "",
		DBName:   "smartflow",
	}

	DefaultGeminiConfig = GeminiConfig{
		APIKey:      "",
		Model:       "gemini-1.5-flash",
		MaxAttempts: 2,
		RetryWait:   Duration(2 * time.Second),
		Timeout:     Duration(10 * time.Second),
	}

	DefaultAnomalyConfig = AnomalyConfig{
		ModelPath:        "isolation_forest.json",
		Trees:            100,
		SampleSize:       256,
		Contamination:    0.05,
		SyntheticSamples: 1000,
		MinRealSamples:   200,
		MaxTrainSamples:  5000,
		RetrainInterval:  Duration(6 * time.Hour),
	}

	DefaultIntegrityConfig = IntegrityConfig{
		FuzzyCutoff:     0.5,
		RefreshInterval: Duration(10 * time.Minute),
	}
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Server:                DefaultServerConfig,
		Database:              DefaultDatabaseConfig,
		Gemini:                DefaultGeminiConfig,
		Anomaly:               DefaultAnomalyConfig,
		Integrity:             DefaultIntegrityConfig,
		LogFile:               "smartflow.log",
		EnableDetailedLogging: true,
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (если он существует), затем переменные окружения
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("ошибка разбора файла конфигурации %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides применяет переменные окружения поверх файла.
// Поддерживается пять переменных развертывания: DB_HOST, DB_NAME,
// DB_USER, DB_PASSWORD и GEMINI_API_KEY
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("некорректный порт сервера: %d", c.Server.Port)
	}
	if c.Server.DashboardPort <= 0 || c.Server.DashboardPort > 65535 {
		return fmt.Errorf("некорректный порт дашборда: %d", c.Server.DashboardPort)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("не задан хост или имя базы данных")
	}
	if c.Gemini.MaxAttempts < 1 {
		return fmt.Errorf("количество попыток LLM должно быть не меньше 1, получено %d", c.Gemini.MaxAttempts)
	}
	if c.Anomaly.ModelPath == "" {
		return fmt.Errorf("не задан путь к файлу модели")
	}
	if c.Anomaly.Trees <= 0 || c.Anomaly.SampleSize <= 1 {
		return fmt.Errorf("некорректные параметры леса: trees=%d, sample_size=%d", c.Anomaly.Trees, c.Anomaly.SampleSize)
	}
	if c.Anomaly.Contamination <= 0 || c.Anomaly.Contamination > 0.5 {
		return fmt.Errorf("contamination должен лежать в (0, 0.5], получено %v", c.Anomaly.Contamination)
	}
	if c.Integrity.FuzzyCutoff <= 0 || c.Integrity.FuzzyCutoff > 1 {
		return fmt.Errorf("порог нечеткого совпадения должен лежать в (0, 1], получено %v", c.Integrity.FuzzyCutoff)
	}
	return nil
}
