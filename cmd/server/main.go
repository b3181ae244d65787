package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/counseling_scheduler/internal/app"
	"github.com/Freeeeeet/counseling_scheduler/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting counseling scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("redis", cfg.RedisEnabled()),
		zap.Bool("telegram", cfg.TelegramEnabled()))

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Service stopped")
}
