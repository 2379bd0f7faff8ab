package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/logger"
	"zone-alerts-vms/be/services"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// The notifier drains the alert notification stream filled by the API and
// delivers each entry to Telegram. It must share UPLOAD_DIR with the API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "zone-alerts-notifier")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Redis.Addr == "" {
		zlog.Fatal("REDIS_ADDR is required for the notifier")
	}
	telegram := services.NewTelegramClient(cfg.Telegram, zlog)
	if !telegram.Enabled() {
		zlog.Fatal("TELEGRAM_BOT_TOKEN is required for the notifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	hostname, _ := os.Hostname()
	worker := services.NewStreamWorker(client, cfg.Redis.Stream, cfg.Redis.Group, hostname, telegram, zlog)

	zlog.Info("Notifier started",
		zap.String("stream", cfg.Redis.Stream),
		zap.String("group", cfg.Redis.Group),
		zap.String("consumer", hostname),
	)
	if err := worker.Run(ctx); err != nil {
		zlog.Fatal("Notifier stopped", zap.Error(err))
	}
	zlog.Info("Notifier stopped")
}
