package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/fintutor/internal/logger"
)

// NewProvider builds the provider stack for cfg:
//
//	caller → router → retry → logging → vendor
//
// Each purpose with a model override gets its own vendor client; the rest
// share the default one. Logging is skipped when events is nil, and retry
// when cfg.Retry.MaxAttempts is at most one.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decorate := func(p Provider) Provider {
		if events != nil {
			p = WithLogging(p, events, log)
		}
		if cfg.Retry.MaxAttempts > 1 {
			p = WithRetry(p, cfg.Retry)
		}
		return p
	}

	base, err := vendor(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	router := NewRouter(decorate(base))
	for _, purpose := range Purposes() {
		tuning := cfg.For(purpose)
		if tuning.IsZero() {
			continue
		}
		var p Provider
		if tuning.Model != "" {
			v, err := vendor(ctx, cfg, tuning.Model)
			if err != nil {
				return nil, fmt.Errorf("%s model: %w", purpose, err)
			}
			p = decorate(v)
		}
		router.Route(purpose, p, tuning)
	}
	return router, nil
}

// vendor builds the bare client for cfg.Provider, optionally with a
// different model.
func vendor(ctx context.Context, cfg Config, model string) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		c := cfg.Anthropic
		if model != "" {
			c.Model = model
		}
		p, err = NewAnthropicProvider(c)
	case "openai":
		c := cfg.OpenAI
		if model != "" {
			c.Model = model
		}
		p, err = NewOpenAIProvider(c)
	case "gemini":
		c := cfg.Gemini
		if model != "" {
			c.Model = model
		}
		p, err = NewGeminiProvider(ctx, c)
	case "openrouter":
		c := cfg.OpenRouter
		if model != "" {
			c.Model = model
		}
		p, err = NewOpenRouterProvider(c)
	case "mock":
		p = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}

// NewProviderFromEnv reads FINTUTOR_ variables and, when the selected
// vendor has no key, falls back to the vendors' own API key variables.
func NewProviderFromEnv(ctx context.Context, events EventRecorder, log *logger.Logger) (*Router, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); KindOf(err) == FailureNotConfigured {
		if discovered, ok := DiscoverConfig(cfg); ok {
			cfg = discovered
		}
	}
	return NewProvider(ctx, cfg, events, log)
}
