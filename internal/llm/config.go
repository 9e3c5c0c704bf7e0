package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable read by ConfigFromEnv.
const EnvPrefix = "FINTUTOR_"

// Config selects the vendor and carries per-purpose overrides.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter", "mock".
	Provider string `env:"LLM_PROVIDER"`

	Anthropic  AnthropicConfig  `envPrefix:"ANTHROPIC_"`
	OpenAI     OpenAIConfig     `envPrefix:"OPENAI_"`
	Gemini     GeminiConfig     `envPrefix:"GEMINI_"`
	OpenRouter OpenRouterConfig `envPrefix:"OPENROUTER_"`
	Retry      RetryConfig      `envPrefix:"LLM_RETRY_"`

	// Tutor and Grading override what the orchestrator and the evaluator
	// ask for. Zero values leave the caller's setting alone.
	Tutor   PurposeConfig `envPrefix:"TUTOR_"`
	Grading PurposeConfig `envPrefix:"GRADING_"`
}

type AnthropicConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

type GeminiConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

type OpenRouterConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"` // default https://openrouter.ai/api/v1
}

// PurposeConfig tunes one purpose. Model swaps the vendor model for that
// purpose only, e.g. a cheaper model for grading.
type PurposeConfig struct {
	Model       string   `env:"MODEL"`
	MaxTokens   int      `env:"MAX_TOKENS"`
	Temperature *float64 `env:"TEMPERATURE"`
}

// IsZero reports whether c overrides nothing.
func (c PurposeConfig) IsZero() bool {
	return c.Model == "" && c.MaxTokens == 0 && c.Temperature == nil
}

// RetryConfig configures retries of retryable failures. MaxAttempts of 0 or
// 1 disables them so the tutor and grader fall back at once.
type RetryConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS"`
	InitialWait time.Duration `env:"INITIAL_WAIT"`
	MaxWait     time.Duration `env:"MAX_WAIT"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "anthropic/claude-haiku-4-5"},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
		},
	}
}

// ConfigFromEnv builds a Config from FINTUTOR_ variables over the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse llm env: %w", err)
	}
	return cfg, nil
}

// DiscoverConfig looks for the vendors' own API key variables, in the
// order Anthropic, OpenAI, Gemini, OpenRouter, and selects the first
// vendor found. Per-purpose overrides and retry settings are copied from
// base.
func DiscoverConfig(base Config) (Config, bool) {
	cfg := base
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// For returns the overrides of one purpose.
func (c Config) For(p Purpose) PurposeConfig {
	switch p {
	case PurposeTutor:
		return c.Tutor
	case PurposeGrading:
		return c.Grading
	default:
		return PurposeConfig{}
	}
}

// Validate checks that the selected vendor has a key and the overrides are
// in range.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	case "mock":
		key = "-"
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if key == "" {
		return Fail(FailureNotConfigured, c.Provider, fmt.Errorf("%s%s_API_KEY is not set", EnvPrefix, envName(c.Provider)))
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry max attempts must not be negative, got %d", c.Retry.MaxAttempts)
	}
	for _, p := range Purposes() {
		pc := c.For(p)
		if pc.MaxTokens < 0 {
			return fmt.Errorf("%s max tokens must not be negative, got %d", p, pc.MaxTokens)
		}
		if pc.Temperature != nil && (*pc.Temperature < 0 || *pc.Temperature > 1) {
			return fmt.Errorf("%s temperature must be within [0, 1], got %g", p, *pc.Temperature)
		}
	}
	return nil
}

func envName(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI"
	case "gemini":
		return "GEMINI"
	case "openrouter":
		return "OPENROUTER"
	default:
		return "ANTHROPIC"
	}
}
