package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ppiankov/llmmapper/internal/util"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements the Provider interface for Azure OpenAI deployments
// and the OpenAI API
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI or Azure OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", providerLabel(config.Provider))
	}

	name := strings.ToLower(config.Provider)
	model := config.Model

	var clientConfig openai.ClientConfig
	switch name {
	case "azure":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("azure endpoint is required")
		}
		if config.Deployment == "" {
			return nil, fmt.Errorf("azure deployment is required")
		}
		clientConfig = openai.DefaultAzureConfig(config.APIKey, strings.TrimRight(config.Endpoint, "/"))
		if config.APIVersion != "" {
			clientConfig.APIVersion = config.APIVersion
		}
		deployment := config.Deployment
		clientConfig.AzureModelMapperFunc = func(string) string {
			return deployment
		}
		model = deployment
	default:
		name = "openai"
		clientConfig = openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
		if model == "" {
			model = openai.GPT4oMini
		}
	}

	clientConfig.HTTPClient = util.NewHTTPClient(config.Timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		name:        name,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete sends the prompt as a single user message and returns the first choice's content
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &MalformedResponseError{Provider: p.name, Reason: "no choices in response"}
	}

	zap.L().Debug("llm: completion received",
		zap.String("provider", p.name),
		zap.String("model", p.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto the provider error taxonomy
func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: p.name, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &UpstreamError{Provider: p.name, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}

	// client.Do failures arrive as *url.Error, even when they wrap io.EOF
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Provider: p.name, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &MalformedResponseError{Provider: p.name, Reason: "decode response", Err: err}
	}

	return &TransportError{Provider: p.name, Err: err}
}

func providerLabel(provider string) string {
	if strings.EqualFold(provider, "azure") {
		return "Azure OpenAI"
	}
	return "OpenAI"
}
