package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrans/doctrans/internal/errs"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.Model)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 4000, cfg.Pipeline.ChunkMaxSize)
	assert.Equal(t, 3, cfg.Pipeline.PageConcurrency)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "us-central1", cfg.Vision.Region)
	assert.Equal(t, "data/doctrans.db", cfg.DBPath)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "claude-3-haiku")
	t.Setenv("CHUNK_MAX_SIZE", "1500")
	t.Setenv("PAGE_CONCURRENCY", "8")
	t.Setenv("RETRY_BASE_DELAY_MS", "250")
	t.Setenv("DB_PATH", "/tmp/test.db")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "claude-3-haiku", cfg.LLM.Model)
	assert.Equal(t, 1500, cfg.Pipeline.ChunkMaxSize)
	assert.Equal(t, 8, cfg.Pipeline.PageConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
}

func TestNewFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestNewFromEnvInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("CHUNK_MAX_SIZE", "not-a-number")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Pipeline.ChunkMaxSize)
}

func TestOptionOverride(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Pipeline.PageConcurrency = 1
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Pipeline.PageConcurrency)
}
