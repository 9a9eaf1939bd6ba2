package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/llmmapper/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "azure", "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: azure, openai, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: azure, openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config into llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:    llmConfig.Provider,
		Endpoint:    llmConfig.Endpoint,
		Deployment:  llmConfig.Deployment,
		APIVersion:  llmConfig.APIVersion,
		APIKey:      llmConfig.APIKey,
		Model:       llmConfig.Model,
		BaseURL:     llmConfig.BaseURL,
		MaxTokens:   llmConfig.MaxTokens,
		Temperature: llmConfig.Temperature,
		Timeout:     llmConfig.Timeout,
		HTTPProxy:   httpConfig.HTTPProxy,
		HTTPSProxy:  httpConfig.HTTPSProxy,
		NoProxy:     httpConfig.NoProxy,
	}
}
