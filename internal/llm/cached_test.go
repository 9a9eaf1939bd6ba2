package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/llmmapper/internal/cache"
)

type countingProvider struct {
	replies []string
	err     error
	calls   int
}

func (p *countingProvider) Name() string { return "mock" }

func (p *countingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	reply := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return reply, nil
}

func TestCachedProvider_Hit(t *testing.T) {
	next := &countingProvider{replies: []string{"[]"}}
	p := NewCachedProvider(next, cache.NewMemoryCache(time.Minute, time.Minute), "azure|dep", 0)

	for i := 0; i < 3; i++ {
		reply, err := p.Complete(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if reply != "[]" {
			t.Errorf("Unexpected reply: %s", reply)
		}
	}

	if next.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", next.calls)
	}
	if p.Name() != "mock" {
		t.Errorf("Expected wrapped name, got %s", p.Name())
	}
}

func TestCachedProvider_ScopeSeparatesModels(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	a := &countingProvider{replies: []string{"from a"}}
	b := &countingProvider{replies: []string{"from b"}}

	_, _ = NewCachedProvider(a, c, "azure|dep-a", 0).Complete(context.Background(), "prompt")
	reply, _ := NewCachedProvider(b, c, "azure|dep-b", 0).Complete(context.Background(), "prompt")

	if reply != "from b" {
		t.Errorf("Expected reply from second deployment, got %s", reply)
	}
}

func TestCachedProvider_BlankNotCached(t *testing.T) {
	next := &countingProvider{replies: []string{"   ", "[]"}}
	p := NewCachedProvider(next, cache.NewMemoryCache(time.Minute, time.Minute), "s", 0)

	_, _ = p.Complete(context.Background(), "prompt")
	reply, _ := p.Complete(context.Background(), "prompt")

	if next.calls != 2 {
		t.Errorf("Expected blank reply to miss the cache, got %d calls", next.calls)
	}
	if reply != "[]" {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

func TestCachedProvider_BlankEntryDropped(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	key := cache.CacheKey("s\x00prompt")
	if err := c.Set(key, []byte("  \n"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	next := &countingProvider{replies: []string{"[]"}}
	p := NewCachedProvider(next, c, "s", 0)

	reply, err := p.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "[]" || next.calls != 1 {
		t.Errorf("expected blank entry to be refetched, got %q after %d calls", reply, next.calls)
	}

	if val, found := c.Get(key); !found || string(val) != "[]" {
		t.Errorf("expected blank entry replaced, got %q found=%v", val, found)
	}
}

func TestCachedProvider_ErrorPassesThrough(t *testing.T) {
	upstreamErr := &UpstreamError{Provider: "mock", StatusCode: 503, Body: "busy"}
	next := &countingProvider{err: upstreamErr}
	p := NewCachedProvider(next, cache.NewMemoryCache(time.Minute, time.Minute), "s", 0)

	_, err := p.Complete(context.Background(), "prompt")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Expected *UpstreamError, got %T", err)
	}
}

func TestCacheScope(t *testing.T) {
	a := CacheScope(Config{Provider: "Azure", Endpoint: "https://x", Deployment: "d1"})
	b := CacheScope(Config{Provider: "azure", Endpoint: "https://x", Deployment: "d2"})
	if a == b {
		t.Error("Expected different deployments to produce different scopes")
	}
}
