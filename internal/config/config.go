package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL        string
	ArchiveDatabaseURL string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// HistoryWindow is how many recent turns are read per request.
	HistoryWindow int
	// ResolverWindow is how many of those turns the general flow searches for slots.
	ResolverWindow int
	// TurnTTL bounds how long the recent-turn window lives in Redis.
	TurnTTL time.Duration

	ClinicID       string
	ClinicTimezone string
	ClinicHolidays []string
	SupportPhone   string

	PatientJWTSecret   string
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	RequestTimeout     time.Duration

	AWSRegion                 string
	AWSAccessKeyID            string
	AWSSecretAccessKey        string
	AWSEndpointOverride       string
	ReservationEventsQueueURL string
	// TurnArchiveTable is a DynamoDB table used as the turn archive when no
	// archive database is configured.
	TurnArchiveTable string
	// OutboxInlineDelivery runs the outbox deliverer inside the API process.
	OutboxInlineDelivery bool
}

// Load reads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:        databaseURL,
		ArchiveDatabaseURL: getEnv("ARCHIVE_DATABASE_URL", databaseURL),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		HistoryWindow:  getEnvAsInt("HISTORY_WINDOW", 10),
		ResolverWindow: getEnvAsInt("RESOLVER_WINDOW", 10),
		TurnTTL:        getEnvAsDuration("TURN_TTL", 24*time.Hour),

		ClinicID:       getEnv("CLINIC_ID", "default"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "Asia/Seoul"),
		ClinicHolidays: getEnvAsList("CLINIC_HOLIDAYS"),
		SupportPhone:   getEnv("SUPPORT_PHONE", "1577-3330"),

		PatientJWTSecret:   getEnv("PATIENT_JWT_SECRET", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),

		AWSRegion:                 getEnv("AWS_REGION", "ap-northeast-2"),
		AWSAccessKeyID:            getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:       getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ReservationEventsQueueURL: getEnv("RESERVATION_EVENTS_QUEUE_URL", ""),
		TurnArchiveTable:          getEnv("TURN_ARCHIVE_TABLE", ""),
		OutboxInlineDelivery:      getEnvAsBool("OUTBOX_INLINE_DELIVERY", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
