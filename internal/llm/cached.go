package llm

import (
	"context"
	"time"

	"github.com/ppiankov/llmmapper/internal/cache"
	"go.uber.org/zap"
)

// CachedProvider serves repeated prompts from a reply cache.
// Blank replies are never stored; a blank entry found in the cache is dropped.
type CachedProvider struct {
	next  Provider
	cache cache.Cache
	scope string
	ttl   time.Duration
}

// NewCachedProvider wraps next with a reply cache. scope separates models sharing one cache.
func NewCachedProvider(next Provider, c cache.Cache, scope string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: c,
		scope: scope,
		ttl:   ttl,
	}
}

// Name returns the wrapped provider name
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// Complete returns a cached reply when present, otherwise calls the wrapped provider
func (p *CachedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	key := cache.CacheKey(p.scope + "\x00" + prompt)

	if val, found := p.cache.Get(key); found {
		if !isBlank(string(val)) {
			zap.L().Debug("llm: reply served from cache", zap.String("provider", p.next.Name()))
			return string(val), nil
		}
		if err := p.cache.Delete(key); err != nil {
			zap.L().Warn("llm: cache delete failed", zap.Error(err))
		}
	}

	reply, err := p.next.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	if !isBlank(reply) {
		if err := p.cache.Set(key, []byte(reply), p.ttl); err != nil {
			zap.L().Warn("llm: cache write failed", zap.Error(err))
		}
	}

	return reply, nil
}
