package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/pkg/log"
)

// Config holds all settings for the document-translation core.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Translation LLM:
// - LLM_API_KEY: API key for the text-generation provider (required)
// - LLM_API_URL: API endpoint URL (default: https://api.anthropic.com/v1)
// - LLM_MODEL: Model name to use (default: claude-3-5-sonnet-20241022)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 4096)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.1)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
//
// Vision extraction:
// - VISION_PROJECT_ID: GCP project for Vertex AI (required for extraction)
// - VISION_REGION: Vertex AI region (default: us-central1)
// - VISION_MODEL: Vision model name (default: gemini-2.0-flash)
//
// Pipeline:
// - CHUNK_MAX_SIZE: maximum chunk size in bytes (default: 4000)
// - PAGE_CONCURRENCY: concurrent page workers per job (default: 3)
// - RETRY_MAX_ATTEMPTS: chunk translation attempts (default: 3)
// - RETRY_BASE_DELAY_MS: first backoff delay in milliseconds (default: 500)
//
// Storage:
// - DB_PATH: sqlite database path (default: data/doctrans.db)
//
// System:
// - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Vision   VisionConfig   `json:"vision"`
	Pipeline PipelineConfig `json:"pipeline"`
	DBPath   string         `json:"db_path"`
	LogLevel string         `json:"log_level"`
}

// LLMConfig holds the configuration for the text-generation client.
// Supports any OpenAI-compatible provider.
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// VisionConfig holds the configuration for the Vertex AI vision extractor.
type VisionConfig struct {
	ProjectID string `json:"project_id"`
	Region    string `json:"region"`
	Model     string `json:"model"`
}

// PipelineConfig holds tunables for page processing.
type PipelineConfig struct {
	ChunkMaxSize    int           `json:"chunk_max_size"`
	PageConcurrency int           `json:"page_concurrency"`
	MaxAttempts     int           `json:"max_attempts"`
	RetryBaseDelay  time.Duration `json:"retry_base_delay"`
}

// Option is a function type for customizing Config
type Option func(*Config)

// NewFromEnv creates a Config from environment variables and options.
// A .env file in the working directory is loaded first when present.
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded configuration from .env")
	}

	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.anthropic.com/v1"),
			Model:       getEnvString("LLM_MODEL", "claude-3-5-sonnet-20241022"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvInt("LLM_TIMEOUT", 120),
		},
		Vision: VisionConfig{
			ProjectID: getEnvString("VISION_PROJECT_ID", ""),
			Region:    getEnvString("VISION_REGION", "us-central1"),
			Model:     getEnvString("VISION_MODEL", "gemini-2.0-flash"),
		},
		Pipeline: PipelineConfig{
			ChunkMaxSize:    getEnvInt("CHUNK_MAX_SIZE", 4000),
			PageConcurrency: getEnvInt("PAGE_CONCURRENCY", 3),
			MaxAttempts:     getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			RetryBaseDelay:  time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,
		},
		DBPath:   getEnvString("DB_PATH", "data/doctrans.db"),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.GetLogger().SetLevel(log.ParseLevel(config.LogLevel))
	return config, nil
}

// validate checks that required settings are present and sane.
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return errs.New(errs.KindConfig, "LLM_API_KEY is required")
	}
	if c.LLM.APIURL == "" {
		return errs.New(errs.KindConfig, "LLM_API_URL is required")
	}
	if c.Pipeline.ChunkMaxSize <= 0 {
		return errs.New(errs.KindConfig, "CHUNK_MAX_SIZE must be greater than 0")
	}
	if c.Pipeline.PageConcurrency <= 0 {
		return errs.New(errs.KindConfig, "PAGE_CONCURRENCY must be greater than 0")
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return errs.New(errs.KindConfig, "RETRY_MAX_ATTEMPTS must be greater than 0")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
