// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// а godotenv — чтобы подхватить локальный .env (если он есть).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8001"`
	APIPrefix           string        `envconfig:"API_PREFIX" default:"/api"`
	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`

	// --- Storage ---
	// postgres — основной режим; memory — для локальной разработки и демо без БД.
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	// Сколько ждём хранилище на одну операцию, прежде чем ответить 503.
	StorageTimeout time.Duration `envconfig:"STORAGE_TIMEOUT" default:"5s"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"karma"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"ethical_karma"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (кеш каталога, необязателен) ---
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Catalog ---
	// Заполнять пустой каталог демо-товарами при старте.
	SeedCatalog bool `envconfig:"SEED_CATALOG" default:"true"`

	// --- Karma ---
	// Расписание сверки кэшированных балансов с журналом (формат cron или @every).
	KarmaReconcileSchedule string `envconfig:"KARMA_RECONCILE_SCHEDULE" default:"@every 30m"`

	// --- Rate Limiting ---
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`

	// --- Feature Flags ---
	FeatureReconcileEnabled bool `envconfig:"FEATURE_RECONCILE_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled — включён ли кеш каталога.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORAGE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT должен быть > 0")
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX должен начинаться с /")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS и RATE_LIMIT_BURST должны быть > 0")
	}
	if c.FeatureReconcileEnabled {
		if _, err := cron.ParseStandard(c.KarmaReconcileSchedule); err != nil {
			return fmt.Errorf("KARMA_RECONCILE_SCHEDULE: %w", err)
		}
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения, заполняет структуру Config.
func Load() (*Config, error) {
	// Уже выставленные переменные окружения .env не перетирает.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.APIPrefix = strings.TrimRight(strings.TrimSpace(cfg.APIPrefix), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
