package config

import (
	"strings"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads.
var allEnvVars = []string{
	"APP_ENV", "LOG_LEVEL", "SEED_SAMPLE_REQUESTS",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_FOLDER", "S3_PUBLIC_URL",
	"AI_PROVIDER",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"CLAUDE_API_KEY", "CLAUDE_MODEL", "CLAUDE_BASE_URL",
	"MISTRAL_API_KEY", "MISTRAL_MODEL", "MISTRAL_BASE_URL",
	"AI_RPM", "AI_RPD", "MAX_RETRY_ATTEMPTS",
	"BATCH_DELAY_SECONDS", "THUMBNAIL_WIDTH", "RECIPE_CATALOG", "CHROME_PATH",
	"REQUEST_NOTIFY_URL", "REQUEST_NOTIFY_SECRET",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SITE_URL",
}

// clearEnv sets every variable to "" which envOrDefault treats as unset.
// t.Setenv restores the previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

// setRequired provides the minimum credentials Load insists on.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("S3_ACCESS_KEY", "access")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s: got %q, want %q", field, got, want)
		}
	}

	check("Env", cfg.Env, "development")
	check("LogLevel", cfg.LogLevel, "info")
	check("DBHost", cfg.DBHost, "localhost")
	check("DBUser", cfg.DBUser, "designforge")
	check("DBName", cfg.DBName, "designforge")
	check("S3Region", cfg.S3Region, "auto")
	check("S3Bucket", cfg.S3Bucket, "designs")
	check("S3Folder", cfg.S3Folder, "screenshots")
	check("AIProvider", cfg.AIProvider, "gemini")
	check("GeminiBaseURL", cfg.GeminiBaseURL, "https://generativelanguage.googleapis.com")
	check("OpenAIBaseURL", cfg.OpenAIBaseURL, "https://api.openai.com/v1")
	check("MistralBaseURL", cfg.MistralBaseURL, "https://api.mistral.ai/v1")

	if cfg.AIRPM != 10 || cfg.AIRPD != 250 {
		t.Errorf("rate limits: got rpm=%d rpd=%d, want 10/250", cfg.AIRPM, cfg.AIRPD)
	}
	if cfg.MaxRetryAttempts != 3 {
		t.Errorf("MaxRetryAttempts: got %d, want 3", cfg.MaxRetryAttempts)
	}
	if cfg.BatchDelay != 2*time.Second {
		t.Errorf("BatchDelay: got %v, want 2s", cfg.BatchDelay)
	}
	if cfg.ThumbnailWidth != 480 {
		t.Errorf("ThumbnailWidth: got %d, want 480", cfg.ThumbnailWidth)
	}
	if cfg.HasValkey() {
		t.Error("HasValkey: expected false without VALKEY_HOST")
	}
	if cfg.HasTelegram() {
		t.Error("HasTelegram: expected false without token")
	}
	if cfg.SeedRequests {
		t.Error("SeedRequests: expected false unless explicitly enabled")
	}
}

func TestLoad_SeedRequests(t *testing.T) {
	tests := []struct {
		env   string
		value string
		want  bool
	}{
		{"development", "", false},
		{"development", "true", true},
		{"development", "1", true},
		{"development", "YES", true},
		{"development", "no", false},
		{"testing", "true", true},
	}
	for _, tt := range tests {
		clearEnv(t)
		setRequired(t)
		t.Setenv("APP_ENV", tt.env)
		t.Setenv("SEED_SAMPLE_REQUESTS", tt.value)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%s, %q): %v", tt.env, tt.value, err)
		}
		if cfg.SeedRequests != tt.want {
			t.Errorf("SeedRequests(%s, %q) = %v, want %v", tt.env, tt.value, cfg.SeedRequests, tt.want)
		}
	}
}

func TestLoad_SeedRequestsRefusedInProduction(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("SEED_SAMPLE_REQUESTS", "true")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SEED_SAMPLE_REQUESTS") {
		t.Fatalf("expected seeding to be refused in production, got %v", err)
	}
}

func TestLoad_MissingStorageCredentials(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("S3_SECRET_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing S3 secret")
	}
	if !strings.Contains(err.Error(), "S3_SECRET_KEY") {
		t.Errorf("error should name the missing variable, got %q", err)
	}
}

func TestLoad_MissingProviderKey(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("AI_PROVIDER", "claude")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when the active provider has no key")
	}
	if !strings.Contains(err.Error(), "claude") {
		t.Errorf("error should name the provider, got %q", err)
	}
}

func TestLoad_ProviderCaseInsensitive(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("AIProvider: got %q, want %q", cfg.AIProvider, "openai")
	}
}

func TestLoad_RateLimitOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("AI_RPM", "5")
	t.Setenv("AI_RPD", "100")
	t.Setenv("MAX_RETRY_ATTEMPTS", "0")
	t.Setenv("BATCH_DELAY_SECONDS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIRPM != 5 || cfg.AIRPD != 100 {
		t.Errorf("rate limits: got %d/%d, want 5/100", cfg.AIRPM, cfg.AIRPD)
	}
	if cfg.MaxRetryAttempts != 1 {
		t.Errorf("MaxRetryAttempts: got %d, want clamp to 1", cfg.MaxRetryAttempts)
	}
	if cfg.BatchDelay != 2*time.Second {
		t.Errorf("BatchDelay: got %v, want fallback 2s", cfg.BatchDelay)
	}
}

func TestLoad_InvalidRPM(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("AI_RPM", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for AI_RPM=0")
	}
}

func TestLoad_TelegramChatID(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234567890")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramChatID != -1001234567890 {
		t.Errorf("TelegramChatID: got %d", cfg.TelegramChatID)
	}
	if !cfg.HasTelegram() {
		t.Error("HasTelegram: expected true")
	}

	t.Setenv("TELEGRAM_CHAT_ID", "@channel")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}

func TestLoad_ProductionRequiresPassword(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for default password in production")
	}

	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with password: %v", err)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d"}
	want := "postgres://u:p@h:1/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
