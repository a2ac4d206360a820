package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"rescue-bot/internal/domain/entity"
)

type Config struct {
	TelegramToken     string        `env:"TELEGRAM_TOKEN"`
	AnalysisURL       string        `env:"ANALYSIS_URL" envDefault:"http://localhost:8000/animal/test-gemini/"`
	UploadTimeout     time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"60s"`
	LocationTimeout   time.Duration `env:"LOCATION_TIMEOUT" envDefault:"15s"`
	PromptTimeout     time.Duration `env:"PROMPT_TIMEOUT" envDefault:"2m"`
	FallbackLatitude  float64       `env:"FALLBACK_LATITUDE" envDefault:"12.9716"`
	FallbackLongitude float64       `env:"FALLBACK_LONGITUDE" envDefault:"77.5946"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// Fallback координаты, которые подставляются при ошибке геолокации
func (c *Config) Fallback() entity.Coordinates {
	return entity.Coordinates{Latitude: c.FallbackLatitude, Longitude: c.FallbackLongitude}
}

// SlogLevel уровень логирования из LOG_LEVEL
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
