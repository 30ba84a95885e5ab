package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doctrans/doctrans/internal/errs"
)

// Client is a generic chat-completion client for OpenAI-compatible
// providers. Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new LLM client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:  config,
		baseURL: config.APIURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// ChatCompletion sends a chat completion request. A non-empty systemPrompt
// is prepended as a system message.
func (c *Client) ChatCompletion(ctx context.Context, systemPrompt string, messages []Message) (*ChatResponse, error) {
	if systemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: systemPrompt}}, messages...)
	}

	request := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	return c.makeRequest(ctx, "POST", "/chat/completions", request)
}

// Generate issues a single-turn completion and returns the assistant text.
// This is the TextTranslator capability consumed by chunk translation.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	response, err := c.ChatCompletion(ctx, systemPrompt, []Message{
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return "", err
	}
	return firstChoice(response)
}

// GenerateVision sends a prompt together with raw image bytes, for
// providers whose chat endpoint accepts image content parts.
func (c *Client) GenerateVision(ctx context.Context, prompt string, image []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	response, err := c.ChatCompletion(ctx, "", []Message{
		{Role: "user", Content: []ContentPart{
			TextPart(prompt),
			ImagePart(dataURL),
		}},
	})
	if err != nil {
		return "", err
	}
	return firstChoice(response)
}

func firstChoice(response *ChatResponse) (string, error) {
	if len(response.Choices) == 0 {
		return "", errs.New(errs.KindProvider, "no choices in response")
	}
	return response.Choices[0].Message.Content, nil
}

func (c *Client) makeRequest(ctx context.Context, method, path string, payload interface{}) (*ChatResponse, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, errs.Wrap(err, errs.KindProvider, "failed to marshal request")
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindProvider, "failed to create request")
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient.
		return nil, errs.Wrap(err, errs.KindProvider, "request failed")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindProvider, "failed to read response body")
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(responseBody, &chatResponse); err != nil {
		return nil, errs.Wrap(err, errs.KindProvider, "failed to parse response")
	}

	if chatResponse.Error != nil && chatResponse.Error.Message != "" {
		return nil, errs.Wrap(chatResponse.Error, errs.KindProvider, "provider returned error")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.New(errs.KindProvider,
			fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(responseBody)))
	}

	return &chatResponse, nil
}
