package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Authentication tunables
	SessionTimeout   time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	ResetTokenTTL    time.Duration
	SessionSecret    string
	SecureCookies    bool
	PermissionsFile  string

	// Per-IP limit for the public auth endpoints, requests per minute
	LoginRateLimit int

	// Password reset email (SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// Activity events broker, optional
	AMQPURL      string
	AMQPExchange string

	LogLevel   string
	Debug      bool
	APIVersion string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("PORT", "8080"),
		DatabaseType:     getEnv("DB_TYPE", "sqlite"),
		DatabasePath:     getEnv("DB_PATH", "./tutorhub.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SessionTimeout:   getEnvSeconds("SESSION_TIMEOUT", time.Hour),
		MaxLoginAttempts: getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  getEnvSeconds("LOCKOUT_DURATION", 15*time.Minute),
		ResetTokenTTL:    getEnvSeconds("RESET_TOKEN_TTL", time.Hour),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SecureCookies:    getEnvBool("SECURE_COOKIES", false),
		PermissionsFile:  getEnv("PERMISSIONS_FILE", ""),
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 30),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:     getEnv("SES_FROM_EMAIL", ""),
		SESFromName:      getEnv("SES_FROM_NAME", "Tutorhub"),
		AppBaseURL:       strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "tutorhub.activity"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Debug:            getEnvBool("DEBUG", false),
		APIVersion:       getEnv("API_VERSION", "1.0"),
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be set to at least 32 characters")
	}
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DatabaseType)
	}
	if c.MaxLoginAttempts < 1 {
		return errors.New("MAX_LOGIN_ATTEMPTS must be at least 1")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvSeconds reads a whole number of seconds, the unit the auth constants are documented in.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return time.Duration(value) * time.Second
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
