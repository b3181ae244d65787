package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config конфигурация сервиса
type Config struct {
	Environment   string `env:"ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`
	DBDSN         string `env:"DB_DSN"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`

	// Часовой пояс школы: в нём считаются "сегодня", день недели и слоты сессий
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	UnreadCacheTTL time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"15s"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`
	// Базовый адрес фронтенда для ссылок в сообщениях Telegram
	PublicURL string `env:"PUBLIC_URL"`

	RequireDeclaredSlot     bool          `env:"BOOKING_REQUIRE_DECLARED_SLOT" envDefault:"false"`
	TemplateRefreshInterval time.Duration `env:"TEMPLATE_REFRESH_INTERVAL" envDefault:"0s"`
}

func Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Parse()
}

// Parse читает конфигурацию только из переменных окружения процесса
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Environment = normalizeEnv(cfg.Environment)

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.TemplateRefreshInterval < 0 {
		return nil, fmt.Errorf("TEMPLATE_REFRESH_INTERVAL must not be negative")
	}

	return &cfg, nil
}

// Location возвращает часовой пояс школы (уже проверен в Parse)
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
