// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Generative service providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Horizon bounds shared by config validation and request validation.
const (
	MinForecastDays = 7
	MaxForecastDays = 365
)

// Config holds application configuration.
type Config struct {
	ServerAddr   string        `mapstructure:"SERVER_ADDR"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`

	StoreBackend  string `mapstructure:"STORE_BACKEND"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RunMigrations bool   `mapstructure:"RUN_MIGRATIONS"`

	ArchiveBucket string `mapstructure:"ARCHIVE_BUCKET"`
	ArchivePrefix string `mapstructure:"ARCHIVE_PREFIX"`
	AWSRegion     string `mapstructure:"AWS_REGION"`

	AIProvider        string `mapstructure:"AI_PROVIDER"`
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string `mapstructure:"GEMINI_MODEL"`
	AnthropicAPIKey   string `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel    string `mapstructure:"ANTHROPIC_MODEL"`
	BedrockModel      string `mapstructure:"BEDROCK_MODEL"`
	AIMaxOutputTokens int    `mapstructure:"AI_MAX_OUTPUT_TOKENS"`

	ForecastDefaultDays int    `mapstructure:"FORECAST_DEFAULT_DAYS"`
	ForecastMaxHistory  int    `mapstructure:"FORECAST_MAX_HISTORY"`
	ForecastSchedule    string `mapstructure:"FORECAST_SCHEDULE"`

	MaxUploadBytes int `mapstructure:"MAX_UPLOAD_BYTES"`
}

var defaults = map[string]any{
	"SERVER_ADDR":           ":3000",
	"READ_TIMEOUT":          30 * time.Second,
	"WRITE_TIMEOUT":         120 * time.Second,
	"LOG_LEVEL":             "info",
	"STORE_BACKEND":         BackendPostgres,
	"DATABASE_URL":          "",
	"RUN_MIGRATIONS":        true,
	"ARCHIVE_BUCKET":        "",
	"ARCHIVE_PREFIX":        "uploads/",
	"AWS_REGION":            "us-east-1",
	"AI_PROVIDER":           ProviderGemini,
	"GEMINI_API_KEY":        "",
	"GEMINI_MODEL":          "gemini-1.5-flash",
	"ANTHROPIC_API_KEY":     "",
	"ANTHROPIC_MODEL":       "claude-3-sonnet-20240229",
	"BEDROCK_MODEL":         "global.anthropic.claude-sonnet-4-20250514-v1:0",
	"AI_MAX_OUTPUT_TOKENS":  4000,
	"FORECAST_DEFAULT_DAYS": 30,
	"FORECAST_MAX_HISTORY":  730,
	"FORECAST_SCHEDULE":     "",
	"MAX_UPLOAD_BYTES":      10 << 20,
}

// Load reads an optional .env file into the process environment and then
// resolves every key from the environment, falling back to defaults.
// envFiles defaults to ".env"; a missing file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	return cfg, nil
}

// Validate checks the configuration for values the service cannot start with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AIProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("config: GEMINI_API_KEY is required for the %s provider", ProviderGemini)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("config: ANTHROPIC_API_KEY is required for the %s provider", ProviderAnthropic)
		}
	case ProviderBedrock:
		if c.BedrockModel == "" {
			return fmt.Errorf("config: BEDROCK_MODEL is required for the %s provider", ProviderBedrock)
		}
	default:
		return fmt.Errorf("config: unknown AI_PROVIDER %q", c.AIProvider)
	}

	if c.ForecastDefaultDays < MinForecastDays || c.ForecastDefaultDays > MaxForecastDays {
		return fmt.Errorf("config: FORECAST_DEFAULT_DAYS must be between %d and %d, got %d",
			MinForecastDays, MaxForecastDays, c.ForecastDefaultDays)
	}
	if c.ForecastMaxHistory < 0 {
		return fmt.Errorf("config: FORECAST_MAX_HISTORY must not be negative")
	}
	if c.AIMaxOutputTokens <= 0 {
		return fmt.Errorf("config: AI_MAX_OUTPUT_TOKENS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
