package cache

import (
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("azure|dep\x00prompt one")
	b := CacheKey("azure|dep\x00prompt one")
	c := CacheKey("azure|dep\x00prompt two")

	if a != b {
		t.Error("expected identical input to produce identical keys")
	}
	if a == c {
		t.Error("expected different prompts to produce different keys")
	}
	if !strings.HasPrefix(a, "llmmapper:v1:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte(`[{"Season":"SPRING 2025"}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != `[{"Season":"SPRING 2025"}]` {
		t.Errorf("unexpected value: %s", val)
	}
	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("expected miss after Delete")
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("scope\x00prompt")

	if _, found := c.Get(key); found {
		t.Error("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("[]"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh instance over the same directory sees the entry
	reopened := NewDiskCache(dir, time.Hour)
	val, found := reopened.Get(key)
	if !found {
		t.Fatal("expected hit from reopened cache")
	}
	if string(val) != "[]" {
		t.Errorf("unexpected value: %s", val)
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("reply"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	val, found := layered.Get("k")
	if !found || string(val) != "reply" {
		t.Fatalf("expected disk hit, got %q found=%v", val, found)
	}

	if val, found := layered.memory.Get("k"); !found || string(val) != "reply" {
		t.Error("expected value promoted to memory layer")
	}

	if err := layered.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, found := layered.Get("k"); found {
		t.Error("expected miss after Clear")
	}
}
