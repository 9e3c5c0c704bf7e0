package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, ""},
		{"typed", Fail(FailureRejected, "openai", errors.New("bad key")), FailureRejected},
		{"wrapped", fmt.Errorf("tutor: %w", Fail(FailureRateLimited, "anthropic", nil)), FailureRateLimited},
		{"canceled", context.Canceled, FailureCanceled},
		{"deadline", fmt.Errorf("ask: %w", context.DeadlineExceeded), FailureCanceled},
		{"untyped", errors.New("connection refused"), FailureUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFailureKindPolicy(t *testing.T) {
	retryable := []FailureKind{FailureUnavailable, FailureRateLimited, FailureMalformed}
	final := []FailureKind{FailureNotConfigured, FailureRejected, FailureCanceled}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), k)
	}
	for _, k := range final {
		assert.False(t, k.Retryable(), k)
	}
	assert.True(t, FailureCanceled.Expected())
	assert.True(t, FailureNotConfigured.Expected())
	assert.False(t, FailureUnavailable.Expected())
}

func TestStatusFailure(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")

	e := statusFailure("anthropic", http.StatusTooManyRequests, h, errors.New("slow down"))
	assert.Equal(t, FailureRateLimited, e.Kind)
	assert.Equal(t, 3*time.Second, e.RetryAfter)

	assert.Equal(t, FailureRejected, statusFailure("x", http.StatusForbidden, nil, nil).Kind)
	assert.Equal(t, FailureUnavailable, statusFailure("x", http.StatusServiceUnavailable, nil, nil).Kind)
	assert.Equal(t, FailureUnavailable, statusFailure("x", 0, nil, nil).Kind)
	assert.Equal(t, FailureRejected, statusFailure("x", http.StatusConflict, nil, nil).Kind)
	assert.Zero(t, statusFailure("x", http.StatusTooManyRequests, nil, nil).RetryAfter)
}

func TestErrorMessage(t *testing.T) {
	err := Fail(FailureUnavailable, "gemini", errors.New("dial tcp: refused"))
	assert.Equal(t, "gemini: unavailable: dial tcp: refused", err.Error())
	assert.Equal(t, "not_configured", Fail(FailureNotConfigured, "", nil).Error())
}
