package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/bodyshop/internal/config"
	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/queue/workers"
	"github.com/nikhilbhutani/bodyshop/internal/storage"
	"github.com/nikhilbhutani/bodyshop/internal/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	const concurrency = 5
	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	if cfg.Storage.SupabaseURL != "" {
		images := storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
		registry.Register(queue.TypeGalleryImageCleanup, workers.NewGalleryCleanupWorker(images))
	} else {
		slog.Warn("storage not configured, gallery image cleanup disabled")
	}
	if cfg.Webhook.URL != "" {
		registry.Register(queue.TypeWebhookDeliver, workers.NewWebhookWorker(webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret)))
	} else {
		slog.Warn("webhook URL not configured, webhook delivery disabled")
	}

	slog.Info("starting worker", "concurrency", concurrency, "task_types", registry.Types())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
