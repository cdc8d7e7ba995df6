package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env               string
	HTTPPort          string
	DBDriver          string
	DatabaseURL       string
	RedisAddr         string
	QueueBackend      string
	JWTIssuer         string
	JWTSigningKey     string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	OperatorPasscode  string
	RateLimitPerMin   int
	ReminderInterval  time.Duration
	ReminderDedup     bool
	NotifyWebhookURL  string
	WorkerMetricsPort string
	PhotoDir          string
	Cloudinary        Cloudinary
}

// Cloudinary credentials; photo uploads go to disk when CloudName is empty.
type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all credentials are present.
func (c Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads an optional .env file, then the environment, with defaults for local use.
func Load() App {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "err", err)
	}
	return App{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8081"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:       getEnv("DATABASE_URL", "./data/tuition.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:      getEnv("QUEUE_BACKEND", "memory"),
		JWTIssuer:         getEnv("JWT_ISSUER", "tuition-manager"),
		JWTSigningKey:     getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:         durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:        durationEnv("REFRESH_TTL", 24*time.Hour),
		OperatorPasscode:  getEnv("OPERATOR_PASSCODE", "change-me"),
		RateLimitPerMin:   intEnv("RATE_LIMIT_PER_MIN", 120),
		ReminderInterval:  durationEnv("REMINDER_INTERVAL", time.Minute),
		ReminderDedup:     boolEnv("REMINDER_DEDUP", false),
		NotifyWebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
		PhotoDir:          getEnv("PHOTO_DIR", "./data/student_photos"),
		Cloudinary: Cloudinary{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "tuition/students"),
		},
	}
}

// Production reports a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("invalid duration, using fallback", "key", key, "err", err, "fallback", fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		slog.Warn("invalid bool, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		slog.Warn("invalid int, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}
