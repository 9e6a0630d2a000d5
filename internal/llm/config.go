package llm

import (
	"fmt"
)

// Config holds the connection settings for an OpenAI-compatible chat
// completion endpoint (OpenRouter, OpenAI, or any provider speaking the
// same wire format). Values are normally assembled from the environment
// by the application config layer.
//
// APIKey: Bearer token for the provider (required)
// APIURL: API base URL, e.g. https://openrouter.ai/api/v1
// Model: Model identifier to request
// MaxTokens: Default completion token limit
// Temperature: Default sampling temperature (0-2)
// Timeout: Request timeout in seconds
// SiteURL: Optional HTTP-Referer header value (OpenRouter attribution)
// AppName: Optional X-Title header value (OpenRouter attribution)
type Config struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

// Validate rejects configurations the client cannot work with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be greater than 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	return nil
}

// GetHeaders returns the headers attached to every API request.
func (c *Config) GetHeaders() map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + c.APIKey,
		"Content-Type":  "application/json",
	}

	if c.SiteURL != "" {
		headers["HTTP-Referer"] = c.SiteURL
	}
	if c.AppName != "" {
		headers["X-Title"] = c.AppName
	}

	return headers
}
