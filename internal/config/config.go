package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Identity IdentityConfig
	Billing  BillingConfig
	SMTP     SMTPConfig
	Usage    UsageConfig
}

type AppConfig struct {
	Port               string
	PublicAppURL       string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type IdentityConfig struct {
	PublishableKey string
	SecretKey      string
	WebhookSecret  string
	APIBaseURL     string
	JWTSecret      string
}

type BillingConfig struct {
	SecretKey      string
	WebhookSecret  string
	MonthlyPriceId string
	YearlyPriceId  string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// UsageConfig is the single authoritative limit table. The defaults are the
// product limits; env overrides exist for staging experiments.
type UsageConfig struct {
	FreeLimit    int
	MonthlyLimit int
	YearlyLimit  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			PublicAppURL:       getEnv("PUBLIC_APP_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Identity: IdentityConfig{
			PublishableKey: getEnv("IDENTITY_PUBLISHABLE_KEY", ""),
			SecretKey:      getEnv("IDENTITY_SECRET_KEY", ""),
			WebhookSecret:  getEnv("IDENTITY_WEBHOOK_SECRET", ""),
			APIBaseURL:     getEnv("IDENTITY_API_BASE_URL", "https://api.clerk.com/v1"),
			JWTSecret:      getEnv("IDENTITY_JWT_SECRET", ""),
		},
		Billing: BillingConfig{
			SecretKey:      getEnv("BILLING_SECRET_KEY", ""),
			WebhookSecret:  getEnv("BILLING_WEBHOOK_SECRET", ""),
			MonthlyPriceId: getEnv("BILLING_MONTHLY_PRICE_ID", ""),
			YearlyPriceId:  getEnv("BILLING_YEARLY_PRICE_ID", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "TextBehind"),
		},
		Usage: UsageConfig{
			FreeLimit:    getEnvAsInt("USAGE_LIMIT_FREE", 6),
			MonthlyLimit: getEnvAsInt("USAGE_LIMIT_MONTHLY", 1000),
			YearlyLimit:  getEnvAsInt("USAGE_LIMIT_YEARLY", 10000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
