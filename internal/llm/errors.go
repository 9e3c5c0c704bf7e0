package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// FailureKind classifies why a model call produced nothing usable. Every
// kind ends in the caller's fallback path; the kind decides whether a
// retry is worth it and how loudly the failure is logged.
type FailureKind string

const (
	// FailureNotConfigured: no provider or credentials.
	FailureNotConfigured FailureKind = "not_configured"
	// FailureUnavailable: network error or vendor 5xx.
	FailureUnavailable FailureKind = "unavailable"
	// FailureRateLimited: vendor 429.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureRejected: vendor refused the request (bad key, unknown model).
	FailureRejected FailureKind = "rejected"
	// FailureMalformed: a reply arrived but cannot be used.
	FailureMalformed FailureKind = "malformed"
	// FailureCanceled: the caller went away first.
	FailureCanceled FailureKind = "canceled"
)

// Retryable reports whether another attempt may succeed.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureUnavailable, FailureRateLimited, FailureMalformed:
		return true
	default:
		return false
	}
}

// Expected reports whether the failure is routine enough to log below warn.
func (k FailureKind) Expected() bool {
	return k == FailureCanceled || k == FailureNotConfigured
}

// Error is the failure type returned by providers.
type Error struct {
	Kind       FailureKind
	Provider   string
	RetryAfter time.Duration // only for FailureRateLimited
	Err        error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = e.Provider + ": " + prefix
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail builds an *Error of the given kind.
func Fail(kind FailureKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// KindOf classifies any error returned from Generate. Context errors are
// canceled; errors that are not *Error count as unavailable.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureCanceled
	}
	return FailureUnavailable
}

// statusFailure maps a vendor HTTP status onto a failure kind.
func statusFailure(provider string, status int, header http.Header, err error) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: FailureRateLimited, Provider: provider, RetryAfter: retryAfter(header), Err: err}
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusNotFound, status == http.StatusBadRequest:
		return Fail(FailureRejected, provider, err)
	case status == 0 || status >= 500:
		return Fail(FailureUnavailable, provider, err)
	default:
		return Fail(FailureRejected, provider, err)
	}
}

// transportFailure classifies an error that carries no vendor status.
func transportFailure(provider string, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fail(FailureCanceled, provider, err)
	}
	return Fail(FailureUnavailable, provider, err)
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
