package llm

import (
	"context"
	"fmt"
)

// Waiter blocks until a request to endpoint may proceed
type Waiter interface {
	Wait(ctx context.Context, endpoint string) error
}

// RateLimitedProvider waits for limiter clearance before every model call
type RateLimitedProvider struct {
	next     Provider
	limiter  Waiter
	endpoint string
}

// NewRateLimitedProvider wraps next so calls to endpoint are paced by limiter
func NewRateLimitedProvider(next Provider, limiter Waiter, endpoint string) *RateLimitedProvider {
	return &RateLimitedProvider{
		next:     next,
		limiter:  limiter,
		endpoint: endpoint,
	}
}

// Name returns the wrapped provider name
func (p *RateLimitedProvider) Name() string {
	return p.next.Name()
}

// Complete waits for the limiter, then calls the wrapped provider
func (p *RateLimitedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx, p.endpoint); err != nil {
		return "", &TransportError{Provider: p.next.Name(), Err: fmt.Errorf("rate limit: %w", err)}
	}
	return p.next.Complete(ctx, prompt)
}

// EndpointFor returns the URL model calls go to, used to key rate limits
func EndpointFor(config Config) string {
	switch {
	case config.Endpoint != "":
		return config.Endpoint
	case config.BaseURL != "":
		return config.BaseURL
	case config.Provider == "ollama":
		return "http://localhost:11434"
	default:
		return "https://api.openai.com"
	}
}
