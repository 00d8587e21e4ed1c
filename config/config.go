package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	AppEnv          string
	ServerPort      int
	DatabaseURL     string
	RedisURL        string
	TaskBackend     string
	JWTSecret       string
	JWTTTL          time.Duration
	SessionTTL      time.Duration
	SendGridAPIKey  string
	MailFrom        string
	ShutdownTimeout time.Duration
}

// Load reads a .env file outside production, then builds the config from
// the environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing..")
		}
	}
	return LoadConfig()
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnvString("APP_ENV", "development"),
		ServerPort:      getEnvInt("PORT", 8080),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        getEnvString("REDIS_URL", "redis://localhost:6379/0"),
		TaskBackend:     getEnvString("TASK_BACKEND", BackendPostgres),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          getEnvDuration("JWT_TTL", 24*time.Hour),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		MailFrom:        getEnvString("MAIL_FROM", "donotreply@todolist.local"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Address returns the server address in host:port format
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.ServerPort)
	}

	c.TaskBackend = strings.ToLower(strings.TrimSpace(c.TaskBackend))
	if c.TaskBackend != BackendPostgres && c.TaskBackend != BackendMemory {
		return fmt.Errorf("invalid task backend '%s': must be %s or %s", c.TaskBackend, BackendPostgres, BackendMemory)
	}

	// accounts live in postgres whatever the task backend is
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("REDIS_URL cannot be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid jwt ttl %v: must be positive", c.JWTTTL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid session ttl %v: must be positive", c.SessionTTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout)
	}
	return nil
}
