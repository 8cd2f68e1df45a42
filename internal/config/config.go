package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds all runtime configuration, loaded once at process start
// and passed explicitly to the components that need it.
type Settings struct {
	// HTTP
	Port     string
	BasePath string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration

	// Email provider
	EmailProvider       string
	EmailFromAddress    string
	EmailFromName       string
	EmailInboundAddress string
	PostmarkServerToken string
	ResendAPIKey        string

	// Webhook security
	WebhookUsername string
	WebhookPassword string

	// Worker
	PollInterval     time.Duration
	BatchSize        int
	MaxRetryAttempts int
	MaxCampaignSteps int

	// RabbitMQ
	RabbitMQHost string
	RabbitMQPort string
	RabbitMQUser string
	RabbitMQPass string
}

// Load reads settings from environment variables, applying defaults that
// work for local development
func Load() *Settings {
	return &Settings{
		Port:     GetEnv("PORT", "8080"),
		BasePath: GetEnv("BASE_PATH", "/api/v1"),

		DBHost:     GetEnv("DB_HOST", ""),
		DBPort:     GetEnv("DB_PORT", ""),
		DBUser:     GetEnv("DB_USER", ""),
		DBPassword: GetEnv("DB_PASSWORD", ""),
		DBName:     GetEnv("DB_NAME", ""),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),

		JWTSecret:      GetEnv("JWT_SECRET", "default-secret-key-change-in-production"),
		AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),

		EmailProvider:       GetEnv("EMAIL_PROVIDER", "postmark"),
		EmailFromAddress:    GetEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:       GetEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailInboundAddress: GetEnv("EMAIL_INBOUND_ADDRESS", ""),
		PostmarkServerToken: GetEnv("POSTMARK_SERVER_TOKEN", ""),
		ResendAPIKey:        GetEnv("RESEND_API_KEY", ""),

		WebhookUsername: GetEnv("WEBHOOK_USERNAME", ""),
		WebhookPassword: GetEnv("WEBHOOK_PASSWORD", ""),

		PollInterval:     time.Duration(GetEnvAsInt("WORKER_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		BatchSize:        GetEnvAsInt("WORKER_BATCH_SIZE", 100),
		MaxRetryAttempts: GetEnvAsInt("MAX_RETRY_ATTEMPTS", 3),
		MaxCampaignSteps: GetEnvAsInt("MAX_CAMPAIGN_STEPS", 3),

		RabbitMQHost: GetEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort: GetEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser: GetEnv("RABBITMQ_USER", "guest"),
		RabbitMQPass: GetEnv("RABBITMQ_PASS", "guest"),
	}
}

// DatabaseDSN builds the Postgres connection string
func (s *Settings) DatabaseDSN() (string, error) {
	if s.DBHost == "" || s.DBPort == "" || s.DBUser == "" || s.DBPassword == "" || s.DBName == "" {
		return "", fmt.Errorf("missing required database environment variables. Please check your .env file")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName, s.DBSSLMode), nil
}

// RabbitMQURL builds the AMQP connection string
func (s *Settings) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", s.RabbitMQUser, s.RabbitMQPass, s.RabbitMQHost, s.RabbitMQPort)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an int or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
