// Package config aggregates the application configuration loaded from
// environment variables and validates the values that would otherwise
// fail at first request time.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jobhunterui/cvgen/core/server"
	"github.com/jobhunterui/cvgen/integration/redis"
)

// Supported CV generation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config is the root application configuration.
type Config struct {
	// Environment selects logger formatting: "development" or "production".
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Server server.Config
	Redis  redis.Config

	// Quota settings. When Redis.ConnectionURL is empty the service falls
	// back to the in-memory store.
	FreeDailyQuota    int           `env:"FREE_DAILY_QUOTA" envDefault:"5"`
	PremiumDailyQuota int           `env:"PREMIUM_DAILY_QUOTA" envDefault:"50"`
	QuotaFailOpen     bool          `env:"QUOTA_FAIL_OPEN" envDefault:"false"`
	QuotaTimezone     string        `env:"QUOTA_TIMEZONE" envDefault:"UTC"`
	QuotaPeriod       time.Duration `env:"QUOTA_PERIOD" envDefault:"24h"`

	// Provider selection and credentials.
	Provider     string `env:"CV_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// AllowedOrigins configures CORS. Entries may end with "*" to match a
	// prefix, e.g. "chrome-extension://*".
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,https://jobhunterui.github.io,chrome-extension://*"`
}

// Validation errors returned by Validate.
var (
	ErrUnknownProvider = errors.New("unknown CV provider")
	ErrMissingAPIKey   = errors.New("missing provider API key")
	ErrInvalidQuota    = errors.New("quota limits must be positive")
	ErrInvalidTimezone = errors.New("invalid quota timezone")
)

// Validate checks the configuration for errors that should abort startup.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for provider %q", ErrMissingAPIKey, c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for provider %q", ErrMissingAPIKey, c.Provider)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.FreeDailyQuota <= 0 || c.PremiumDailyQuota <= 0 {
		return ErrInvalidQuota
	}

	if _, err := time.LoadLocation(c.QuotaTimezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.QuotaTimezone)
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
