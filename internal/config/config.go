// Пакет config — загрузка и валидация конфигурации User Admin
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации User Admin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend (REST API пользователей) ---

	// Базовый URL backend, всегда с завершающим "/"
	BackendURL string
	// Таймаут HTTP-запросов к backend
	BackendTimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с backend (опционально)
	BackendCACertPath string
	// Проверять ответы backend по встроенному OpenAPI-контракту
	BackendValidateResponses bool

	// --- Сессии UI ---

	// Ключ шифрования session cookie (пустой — случайный ключ)
	SessionSecret string
	// Время жизни сессии (cookie и рабочего пространства каталога)
	SessionTTL time.Duration
	// Secure flag для cookie
	SecureCookie bool
	// Максимальное количество рабочих пространств в LRU
	WorkspaceCacheSize int

	// --- JWT (опционально) ---

	// URL JWKS endpoint; если задан — токен при входе проверяется по подписи
	JWTJWKSURL string
	// Ожидаемый issuer JWT (опционально)
	JWTIssuer string
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- PostgreSQL (журнал действий, опционально) ---

	// Хост PostgreSQL; пустой — журнал отключён
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Не проверять TLS-сертификат backend в HTTP checker
	// (по умолчанию true, если задан UA_BACKEND_CA_CERT_PATH)
	DephealthTLSSkipVerify bool

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("UA_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("UA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("UA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("UA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("UA_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("UA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("UA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend ---

	// UA_BACKEND_URL — обязательный
	backendURL, err := getEnvRequired("UA_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL, err = normalizeBaseURL(backendURL)
	if err != nil {
		return nil, fmt.Errorf("UA_BACKEND_URL: %w", err)
	}

	cfg.BackendTimeout, err = getEnvDuration("UA_BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UA_BACKEND_TIMEOUT: %w", err)
	}
	if cfg.BackendTimeout <= 0 {
		return nil, fmt.Errorf("UA_BACKEND_TIMEOUT: значение должно быть положительным")
	}

	cfg.BackendCACertPath = getEnvDefault("UA_BACKEND_CA_CERT_PATH", "")

	cfg.BackendValidateResponses, err = getEnvBool("UA_BACKEND_VALIDATE_RESPONSES", true)
	if err != nil {
		return nil, fmt.Errorf("UA_BACKEND_VALIDATE_RESPONSES: %w", err)
	}

	// --- Сессии UI ---

	cfg.SessionSecret = getEnvDefault("UA_SESSION_SECRET", "")

	cfg.SessionTTL, err = getEnvDuration("UA_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("UA_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < time.Minute {
		return nil, fmt.Errorf("UA_SESSION_TTL: значение %s меньше минимума 1m", cfg.SessionTTL)
	}

	// UA_SECURE_COOKIE — по умолчанию true, если backend работает по https
	cfg.SecureCookie, err = getEnvBool("UA_SECURE_COOKIE", strings.HasPrefix(cfg.BackendURL, "https"))
	if err != nil {
		return nil, fmt.Errorf("UA_SECURE_COOKIE: %w", err)
	}

	cfg.WorkspaceCacheSize, err = getEnvInt("UA_WORKSPACE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("UA_WORKSPACE_CACHE_SIZE: %w", err)
	}
	if cfg.WorkspaceCacheSize < 1 || cfg.WorkspaceCacheSize > 100000 {
		return nil, fmt.Errorf("UA_WORKSPACE_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.WorkspaceCacheSize)
	}

	// --- JWT ---

	cfg.JWTJWKSURL = getEnvDefault("UA_JWT_JWKS_URL", "")
	cfg.JWTIssuer = getEnvDefault("UA_JWT_ISSUER", "")
	cfg.JWKSRefreshInterval, err = getEnvDuration("UA_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("UA_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("UA_DB_HOST", "")
	if cfg.DBHost != "" {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("UA_DEPHEALTH_GROUP", "user-admin")
	cfg.DephealthCheckInterval, err = getEnvDuration("UA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthTLSSkipVerify, err = getEnvBool("UA_DEPHEALTH_TLS_SKIP_VERIFY", cfg.BackendCACertPath != "")
	if err != nil {
		return nil, fmt.Errorf("UA_DEPHEALTH_TLS_SKIP_VERIFY: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("UA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase загружает параметры PostgreSQL (только если задан UA_DB_HOST).
func loadDatabase(cfg *Config) error {
	var err error

	cfg.DBPort, err = getEnvInt("UA_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("UA_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("UA_DB_NAME")
	if err != nil {
		return err
	}

	cfg.DBUser, err = getEnvRequired("UA_DB_USER")
	if err != nil {
		return err
	}

	cfg.DBPassword, err = getEnvRequired("UA_DB_PASSWORD")
	if err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("UA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("UA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	return nil
}

// JournalEnabled сообщает, включён ли журнал действий в PostgreSQL.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

// DatabaseDSN возвращает URL подключения к PostgreSQL.
// Пользователь и пароль экранируются: пароль может содержать пробелы и кавычки.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// normalizeBaseURL проверяет URL и добавляет завершающий "/".
// Пути endpoint'ов backend ("Auth/login", "User/users") относительные.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("недопустимая схема %q, допустимые: http, https", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("в URL %q отсутствует хост", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
