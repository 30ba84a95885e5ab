package llm

import (
	"github.com/doctrans/doctrans/internal/errs"
)

// Config holds the configuration for the LLM client.
// Supports any OpenAI-compatible provider.
type Config struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// Validate checks the configuration. Failures are config errors: fatal,
// never retried.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errs.New(errs.KindConfig, "API key is required")
	}
	if c.APIURL == "" {
		return errs.New(errs.KindConfig, "API URL is required")
	}
	if c.Model == "" {
		return errs.New(errs.KindConfig, "model is required")
	}
	if c.MaxTokens < 1 {
		return errs.New(errs.KindConfig, "max tokens must be greater than 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errs.New(errs.KindConfig, "temperature must be between 0 and 2")
	}
	if c.Timeout < 1 {
		return errs.New(errs.KindConfig, "timeout must be greater than 0")
	}
	return nil
}

// GetHeaders returns the headers for the LLM API request.
func (c *Config) GetHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.APIKey,
		"Content-Type":  "application/json",
	}
}
