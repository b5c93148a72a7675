// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	Env      string // "development", "production", "testing"
	LogLevel string

	// SeedRequests inserts sample pending design requests into an empty
	// queue at startup. Opt-in; refused in production.
	SeedRequests bool

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible) for the persistent daily quota counter.
	// Optional: an empty host keeps the counter in memory.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for screenshots
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Folder    string
	S3PublicURL string

	// AI provider settings
	AIProvider     string // "gemini", "openai", "claude", "mistral"
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	ClaudeKey      string
	ClaudeModel    string
	ClaudeBaseURL  string
	MistralKey     string
	MistralModel   string
	MistralBaseURL string

	// Rate limits and retries for model calls
	AIRPM            int
	AIRPD            int
	MaxRetryAttempts int

	// Batch behaviour
	BatchDelay     time.Duration
	ThumbnailWidth int
	RecipeCatalog  string
	ChromePath     string

	// Completed-request webhook (optional)
	RequestNotifyURL    string
	RequestNotifySecret string

	// Telegram promotion (optional)
	TelegramToken  string
	TelegramChatID int64
	SiteURL        string
}

// Load reads configuration from environment variables, applying defaults
// where appropriate. Returns an error if credentials the batch cannot run
// without are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		SeedRequests: envBool("SEED_SAMPLE_REQUESTS"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "designforge"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "designforge"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "auto"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "designs"),
		S3Folder:    envOrDefault("S3_FOLDER", "screenshots"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		AIProvider:     strings.ToLower(envOrDefault("AI_PROVIDER", "gemini")),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:  envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		ClaudeKey:      os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:    envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-6"),
		ClaudeBaseURL:  envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),

		AIRPM:            envIntOrDefault("AI_RPM", 10),
		AIRPD:            envIntOrDefault("AI_RPD", 250),
		MaxRetryAttempts: envIntOrDefault("MAX_RETRY_ATTEMPTS", 3),

		BatchDelay:     time.Duration(envIntOrDefault("BATCH_DELAY_SECONDS", 2)) * time.Second,
		ThumbnailWidth: envIntOrDefault("THUMBNAIL_WIDTH", 480),
		RecipeCatalog:  os.Getenv("RECIPE_CATALOG"),
		ChromePath:     os.Getenv("CHROME_PATH"),

		RequestNotifyURL:    os.Getenv("REQUEST_NOTIFY_URL"),
		RequestNotifySecret: os.Getenv("REQUEST_NOTIFY_SECRET"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		SiteURL:       strings.TrimRight(os.Getenv("SITE_URL"), "/"),
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY must be set")
	}

	if cfg.ProviderKey(cfg.AIProvider) == "" {
		return nil, fmt.Errorf("no API key configured for AI_PROVIDER %q", cfg.AIProvider)
	}

	if cfg.AIRPM < 1 {
		return nil, fmt.Errorf("AI_RPM must be at least 1, got %d", cfg.AIRPM)
	}
	if cfg.AIRPD < 1 {
		return nil, fmt.Errorf("AI_RPD must be at least 1, got %d", cfg.AIRPD)
	}
	if cfg.MaxRetryAttempts < 1 {
		cfg.MaxRetryAttempts = 1
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.SeedRequests {
			return nil, fmt.Errorf("SEED_SAMPLE_REQUESTS cannot be enabled in production")
		}
	}

	return cfg, nil
}

// ProviderKey returns the API key configured for the named provider.
func (c *Config) ProviderKey(name string) string {
	switch name {
	case "openai":
		return c.OpenAIKey
	case "gemini":
		return c.GeminiKey
	case "claude":
		return c.ClaudeKey
	case "mistral":
		return c.MistralKey
	}
	return ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// HasValkey reports whether a Valkey host was configured.
func (c *Config) HasValkey() bool {
	return c.ValkeyHost != ""
}

// HasTelegram reports whether Telegram promotion is configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOrDefault reads an integer environment variable, returning fallback
// when unset or unparsable.
func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envBool reports whether key is set to a true value ("1", "true", "yes").
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
