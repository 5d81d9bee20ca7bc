package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "90s", 90 * time.Second},
		{"hours", "2h", 2 * time.Hour},
		{"bare seconds", "7200", 2 * time.Hour},
		{"garbage", "soon", time.Minute},
		{"empty", "", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "CORS_ALLOWED_ORIGINS", "SESSION_TTL", "RERANK_TOP_K", "FRESHNESS_MAX_AGE_DAYS", "LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
	t.Setenv("RERANK_TOP_K", "4")

	cfg := Load()
	assert.Equal(t, "*", cfg.App.CorsAllowedOrigins)
	assert.Equal(t, 4, cfg.Retrieval.RerankTopK)
	assert.Equal(t, 7*24*time.Hour, cfg.Retrieval.FreshnessAge)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 0.7, cfg.Ai.GenerationTemperature)
}
