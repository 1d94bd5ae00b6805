package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "bedrock", cfg.LLMProvider)
	assert.Equal(t, int64(500_000), cfg.TokenMonthlyLimit)
	assert.Equal(t, "token_usage", cfg.TokenUsageTable)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_PROVIDER", " OpenAI ")
	t.Setenv("TOKEN_MONTHLY_LIMIT", "1000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com,")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, int64(1000), cfg.TokenMonthlyLimit)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RedisTLS)
}

func TestLoadBadNumbersFallBack(t *testing.T) {
	t.Setenv("TOKEN_MONTHLY_LIMIT", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "???")

	cfg := Load()

	assert.Equal(t, int64(500_000), cfg.TokenMonthlyLimit)
	assert.Equal(t, float64(5), cfg.RateLimitRPS)
}
