package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider retries retryable failures with doubling backoff and
// jitter. A malformed reply is retried once at most; rate limits wait for
// the vendor's Retry-After when it is given.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p. Attempts below one are treated as one.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	malformedSeen := false

	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := KindOf(err)
		if !kind.Retryable() {
			return nil, err
		}
		if kind == FailureMalformed {
			if malformedSeen {
				return nil, err
			}
			malformedSeen = true
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, Fail(FailureCanceled, ProviderName(r.inner), ctx.Err())
		case <-time.After(r.backoff(attempt, err)):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Name() string { return ProviderName(r.inner) }

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		if r.config.MaxWait > 0 && e.RetryAfter > r.config.MaxWait {
			return r.config.MaxWait
		}
		return e.RetryAfter
	}

	wait := r.config.InitialWait << attempt
	if wait > r.config.MaxWait || wait <= 0 {
		wait = r.config.MaxWait
	}
	// ±20% jitter
	jitter := time.Duration(float64(wait) * 0.2 * (2*rand.Float64() - 1))
	return max(wait+jitter, 0)
}
