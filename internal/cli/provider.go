package cli

import (
	"github.com/ppiankov/llmmapper/internal/cache"
	"github.com/ppiankov/llmmapper/internal/llm"
	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/ppiankov/llmmapper/internal/util"
	"github.com/ppiankov/llmmapper/internal/worker"
	"go.uber.org/zap"
)

// buildProvider creates the model client and wraps it with the optional rate limiter
// and reply cache. The cache is outermost so hits skip the limiter.
func buildProvider(cfg *model.Config) (llm.Provider, error) {
	llmCfg := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)

	base, err := llm.NewProvider(llmCfg)
	if err != nil {
		return nil, err
	}

	var provider llm.Provider = base

	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		provider = llm.NewRateLimitedProvider(provider, limiter, llm.EndpointFor(llmCfg))
		zap.L().Debug("cli: rate limiting model calls",
			zap.Float64("requests_per_second", cfg.RateLimiting.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimiting.BurstSize),
		)
	}

	if cfg.Cache.Enabled {
		provider = llm.NewCachedProvider(provider, newReplyCache(cfg), llm.CacheScope(llmCfg), cfg.Cache.DiskTTL)
		zap.L().Debug("cli: reply cache enabled", zap.String("dir", util.ExpandPath(cfg.Cache.Dir)))
	}

	return provider, nil
}

// newReplyCache opens the memory+disk reply cache at cache.dir
func newReplyCache(cfg *model.Config) *cache.LayeredCache {
	return cache.NewLayeredCache(cfg.Cache.MemoryTTL, util.ExpandPath(cfg.Cache.Dir), cfg.Cache.DiskTTL)
}
