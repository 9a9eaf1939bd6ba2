package llm

import (
	"context"
	"strings"
	"time"
)

// Provider sends one prompt to a chat-completion model and returns the raw reply text
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete makes a single attempt; no retries.
	// Errors are *TransportError, *UpstreamError or *MalformedResponseError.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "azure", "openai", "ollama"
	Provider string

	// Azure resource endpoint, e.g. https://my-resource.openai.azure.com
	Endpoint   string
	Deployment string
	APIVersion string

	// APIKey is sent as api-key (Azure) or bearer token (OpenAI)
	APIKey string

	// Model name for openai/ollama
	Model string

	// BaseURL for OpenAI-compatible or Ollama endpoints
	BaseURL string

	MaxTokens   int
	Temperature float32

	// Timeout for the HTTP round trip, 0 leaves the transport default
	Timeout time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.2
)

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "azure",
		APIVersion:  "2024-02-15-preview",
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

// CacheScope identifies the model a reply came from, so cached replies are never
// shared between deployments
func CacheScope(config Config) string {
	parts := []string{strings.ToLower(config.Provider), config.Endpoint, config.BaseURL, config.Deployment, config.Model}
	return strings.Join(parts, "|")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
