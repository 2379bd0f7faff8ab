package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/database"
	"zone-alerts-vms/be/logger"
	"zone-alerts-vms/be/middleware"
	"zone-alerts-vms/be/routes"
	"zone-alerts-vms/be/services"
	"zone-alerts-vms/be/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "zone-alerts-api")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("Invalid configuration", zap.Error(err))
	}

	cipher, err := utils.NewCipher(cfg.Auth.FernetKey)
	if err != nil {
		zlog.Fatal("Invalid FERNET_KEY", zap.Error(err))
	}

	db, err := database.Initialize(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := services.NewBlobStore(ctx, cfg.Blob, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		zlog.Fatal("Failed to create upload directory", zap.Error(err))
	}

	notifier, closeNotifier := newNotifier(ctx, cfg, zlog)
	defer closeNotifier()

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.Setup(routes.Deps{
		Config:   cfg,
		DB:       db,
		Cipher:   cipher,
		Blobs:    blobs,
		Notifier: notifier,
		RTSP:     services.NewRTSPService(cfg.RTSP, zlog),
		Metrics:  middleware.NewMetrics(),
		Logger:   zlog,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
}

// newNotifier picks the Redis Stream when REDIS_ADDR is set and falls back
// to in-process delivery otherwise. Without a bot token nothing is sent.
func newNotifier(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.Dispatcher, func()) {
	if cfg.Telegram.BotToken == "" {
		zlog.Warn("TELEGRAM_BOT_TOKEN not set, alert notifications disabled")
		return nil, func() {}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zlog.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		zlog.Info("Notifications queued on Redis stream", zap.String("stream", cfg.Redis.Stream))
		return services.NewStreamDispatcher(client, cfg.Redis.Stream), func() { client.Close() }
	}

	local := services.NewLocalDispatcher(services.NewTelegramClient(cfg.Telegram, zlog), zlog)
	return local, local.Wait
}
