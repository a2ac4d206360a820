package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rescue-bot/config"
	telegram "rescue-bot/internal/api"
	"rescue-bot/internal/container"
	"rescue-bot/internal/infrastructure/analysis"
	"rescue-bot/internal/infrastructure/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Клиент сервиса анализа
	client := analysis.NewClient(cfg.AnalysisURL, cfg.UploadTimeout)

	// Собираем сервисы приложения
	appContainer := container.New(userRepo, client, cfg.LocationTimeout, cfg.Fallback())

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, cfg.PromptTimeout)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Bot is running...")
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}
