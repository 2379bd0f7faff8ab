package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Blob     BlobConfig
	Telegram TelegramConfig
	Redis    RedisConfig
	RTSP     RTSPConfig
	Uploads  UploadsConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

// AuthConfig holds the two process-wide secrets: the token signing secret
// and the Fernet key used for user ids inside tokens and camera credentials.
type AuthConfig struct {
	SigningSecret string
	FernetKey     string
}

type LogConfig struct {
	Level  string
	Format string
}

type BlobConfig struct {
	ConnectionString string
	Container        string
	SASExpiry        time.Duration
}

type TelegramConfig struct {
	BotToken   string
	APIBaseURL string
}

// RedisConfig is optional. With an empty Addr notifications are delivered
// in-process instead of through the stream worker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
}

type RTSPConfig struct {
	ProbeTimeout time.Duration
}

type UploadsConfig struct {
	Dir string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "5020"),
			GinMode: getEnv("GIN_MODE", "debug"),
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS",
				"http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000")),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "zone_alerts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		Auth: AuthConfig{
			SigningSecret: getEnv("SECRET_KEY", ""),
			FernetKey:     getEnv("FERNET_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Blob: BlobConfig{
			ConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			Container:        getEnv("CONTAINER_NAME", "videos"),
			SASExpiry:        getDuration("BLOB_SAS_EXPIRY", 30*24*time.Hour),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIBaseURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			Stream:   getEnv("NOTIFY_STREAM", "alerts:notifications"),
			Group:    getEnv("NOTIFY_GROUP", "notifier"),
		},
		RTSP: RTSPConfig{
			ProbeTimeout: getDuration("RTSP_PROBE_TIMEOUT", 5*time.Second),
		},
		Uploads: UploadsConfig{
			Dir: getEnv("UPLOAD_DIR", os.TempDir()),
		},
	}
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.SigningSecret == "" {
		errs = append(errs, errors.New("SECRET_KEY is not set"))
	}
	if c.Auth.FernetKey == "" {
		errs = append(errs, errors.New("FERNET_KEY is not set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
