package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string
	HTTPPort    string
	NodeID      int64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Single-tenant fallbacks. DefaultGroupID scopes member lookups when a
	// webhook cannot resolve a tenant; TelegramGroupID is the chat members are
	// kicked from when no group row is configured.
	DefaultGroupID  int64
	TelegramGroupID int64

	TelegramBotToken    string
	TelegramAdminChatID int64

	PaymentProvider        string
	MercadoPagoAccessToken string
	CaktoAPIKey            string

	CheckoutURL     string
	TrialDays       int
	GracePeriodDays int

	DispatchInterval   time.Duration
	DispatchBatchSize  int
	MaxAttempts        int
	StuckTimeout       time.Duration
	GraceSweepInterval time.Duration
	ReconcileInterval  time.Duration
	ReconcileCallDelay time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "membrosd"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		HTTPPort:    getenv("HTTP_PORT", "8080"),
		NodeID:      getenvInt64("NODE_ID", 1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "membros"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		DefaultGroupID:  getenvInt64("DEFAULT_GROUP_ID", 0),
		TelegramGroupID: getenvInt64("TELEGRAM_GROUP_ID", 0),

		TelegramBotToken:    strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN", "")),
		TelegramAdminChatID: getenvInt64("TELEGRAM_ADMIN_CHAT_ID", 0),

		PaymentProvider:        strings.ToLower(getenv("PAYMENT_PROVIDER", "mercadopago")),
		MercadoPagoAccessToken: strings.TrimSpace(getenv("MERCADOPAGO_ACCESS_TOKEN", "")),
		CaktoAPIKey:            strings.TrimSpace(getenv("CAKTO_API_KEY", "")),

		CheckoutURL:     getenv("CHECKOUT_URL", ""),
		TrialDays:       getenvInt("TRIAL_DAYS", 7),
		GracePeriodDays: getenvInt("GRACE_PERIOD_DAYS", 3),

		DispatchInterval:   getenvDuration("DISPATCH_INTERVAL", 30*time.Second),
		DispatchBatchSize:  getenvInt("DISPATCH_BATCH_SIZE", 10),
		MaxAttempts:        getenvInt("WEBHOOK_MAX_ATTEMPTS", 5),
		StuckTimeout:       getenvDuration("WEBHOOK_STUCK_TIMEOUT", 10*time.Minute),
		GraceSweepInterval: getenvDuration("GRACE_SWEEP_INTERVAL", 24*time.Hour),
		ReconcileInterval:  getenvDuration("RECONCILE_INTERVAL", 24*time.Hour),
		ReconcileCallDelay: getenvDuration("RECONCILE_CALL_DELAY", 100*time.Millisecond),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
