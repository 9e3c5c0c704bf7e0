package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("provider configured", "provider", "anthropic", "api_key", "sk-live-123", "jwt_token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "anthropic" {
		t.Fatalf("provider = %v, want anthropic", fields["provider"])
	}
	if fields["api_key"] != "[REDACTED]" {
		t.Fatalf("api_key = %v, want redacted", fields["api_key"])
	}
	if fields["jwt_token"] != "[REDACTED]" {
		t.Fatalf("jwt_token = %v, want redacted", fields["jwt_token"])
	}
}

func TestRedactsJWTShapedValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("request", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJsZWFybmVyIn0.sig")

	log.Warn("rejected")

	fields := logs.All()[0].ContextMap()
	if fields["request"] != "[REDACTED]" {
		t.Fatalf("request = %v, want redacted", fields["request"])
	}
}

func TestOddKeyValuesKeepTrailingKey(t *testing.T) {
	got := Nop().sanitize([]any{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("sanitize = %v", got)
	}
}
