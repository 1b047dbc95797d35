package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	SecretKey     string // Signing key for session and reset tokens
	BaseURL       string // Public URL used in emailed links
	PostsPerPage  int
	ResetTokenTTL int // Seconds a password-reset token stays valid
	SMTPHost      string
	SMTPPort      int
	SMTPFrom      string
	DigestCron    string // Cron expression for the feed digest job
	AllowedOrigin string
	DigestEnabled bool
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "25"))
	if err != nil {
		return nil, err
	}
	perPage, err := strconv.Atoi(getEnv("POSTS_PER_PAGE", "25"))
	if err != nil {
		return nil, err
	}
	resetTTL, err := strconv.Atoi(getEnv("RESET_TOKEN_TTL_SECONDS", "600"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./microblog.db"),
		SecretKey:     getEnv("SECRET_KEY", "you-will-never-guess"),
		BaseURL:       getEnv("APP_BASE_URL", "http://localhost:8080"),
		PostsPerPage:  perPage,
		ResetTokenTTL: resetTTL,
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      smtpPort,
		SMTPFrom:      getEnv("SMTP_FROM", "no-reply@microblog.local"),
		DigestCron:    getEnv("DIGEST_CRON", "0 8 * * *"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		DigestEnabled: getEnv("DIGEST_ENABLED", "false") == "true",
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
