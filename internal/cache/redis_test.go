package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewRedisCacheRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisCache(context.Background(), Config{Addr: "  "}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for blank address")
	}
}

func TestNilRedisCache(t *testing.T) {
	t.Parallel()

	var c *RedisCache
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected Get on nil cache to fail")
	}
	if err := c.Set(context.Background(), "k", "v", time.Minute); err == nil {
		t.Fatalf("expected Set on nil cache to fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil cache: %v", err)
	}
}
