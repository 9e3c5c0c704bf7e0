package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINTUTOR_ADDR", "")
	t.Setenv("FINTUTOR_MAX_QUESTIONS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 8, cfg.MaxQuestions)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FINTUTOR_ADDR", "127.0.0.1:9000")
	t.Setenv("FINTUTOR_MAX_QUESTIONS", "5")
	t.Setenv("FINTUTOR_CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FINTUTOR_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 5, cfg.MaxQuestions)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FINTUTOR_MAX_QUESTIONS", "0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("FINTUTOR_MAX_QUESTIONS", "many")
	_, err = Load()
	require.Error(t, err)
}

func TestRequireJWTSecret(t *testing.T) {
	assert.Error(t, Config{}.RequireJWTSecret())
}
