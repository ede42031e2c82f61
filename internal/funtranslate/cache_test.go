package funtranslate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memoryCache struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getHits int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	value, ok := c.values[key]
	if ok {
		c.getHits++
	}
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

type countingStyleClient struct {
	calls  int
	result string
	err    error
}

func (c *countingStyleClient) Style(context.Context, string, string) (string, error) {
	c.calls++
	return c.result, c.err
}

func TestCachingStyleClientServesRepeatsFromCache(t *testing.T) {
	t.Parallel()

	next := &countingStyleClient{result: "ahoy"}
	cache := newMemoryCache()
	client := NewCachingStyleClient(next, cache, time.Hour, zerolog.Nop())

	for i := 0; i < 3; i++ {
		got, err := client.Style(context.Background(), "hello", "pirate")
		if err != nil || got != "ahoy" {
			t.Fatalf("unexpected style result: %q %v", got, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if cache.getHits != 2 {
		t.Fatalf("expected two cache hits, got %d", cache.getHits)
	}
	if ttl := cache.ttls[styleCacheKey("pirate", "hello")]; ttl != time.Hour {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestCachingStyleClientKeysByCategory(t *testing.T) {
	t.Parallel()

	if styleCacheKey("pirate", "hello") == styleCacheKey("yoda", "hello") {
		t.Fatalf("cache keys must differ by category")
	}
	if styleCacheKey("Pirate", "hello") != styleCacheKey("pirate", "hello") {
		t.Fatalf("cache keys must ignore category case")
	}
}

func TestCachingStyleClientDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	next := &countingStyleClient{err: &Failure{Kind: FailureStatus, StatusCode: 429}}
	cache := newMemoryCache()
	client := NewCachingStyleClient(next, cache, 0, zerolog.Nop())

	if _, err := client.Style(context.Background(), "hello", "pirate"); KindOf(err) != FailureStatus {
		t.Fatalf("expected status failure to pass through, got %v", err)
	}
	if len(cache.values) != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestCachingStyleClientTreatsCacheErrorsAsMisses(t *testing.T) {
	t.Parallel()

	next := &countingStyleClient{result: "ahoy"}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	client := NewCachingStyleClient(next, cache, time.Minute, zerolog.Nop())

	got, err := client.Style(context.Background(), "hello", "pirate")
	if err != nil || got != "ahoy" {
		t.Fatalf("unexpected style result: %q %v", got, err)
	}
	if next.calls != 1 {
		t.Fatalf("expected upstream call, got %d", next.calls)
	}
}

func TestCachingStyleClientWithoutCache(t *testing.T) {
	t.Parallel()

	next := &countingStyleClient{result: "ahoy"}
	client := NewCachingStyleClient(next, nil, time.Minute, zerolog.Nop())
	for i := 0; i < 2; i++ {
		if _, err := client.Style(context.Background(), "hello", "pirate"); err != nil {
			t.Fatalf("style: %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected passthrough calls, got %d", next.calls)
	}
}
