package funtranslate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
)

// DefaultStyleCacheTTL keeps styled text for a day; the style vendor's free tier allows a handful of calls per hour.
const DefaultStyleCacheTTL = 24 * time.Hour

// StageCache stores stage results keyed by an opaque string.
type StageCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachingStyleClient serves repeated (category, text) pairs from a StageCache.
// Cache errors count as misses.
type CachingStyleClient struct {
	next   StyleClient
	cache  StageCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachingStyleClient(next StyleClient, cache StageCache, ttl time.Duration, logger zerolog.Logger) *CachingStyleClient {
	if ttl <= 0 {
		ttl = DefaultStyleCacheTTL
	}
	return &CachingStyleClient{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachingStyleClient) Style(ctx context.Context, text, category string) (string, error) {
	if c == nil || c.next == nil {
		return "", transportFailure(errClientNotInitialized)
	}
	if c.cache == nil {
		return c.next.Style(ctx, text, category)
	}

	key := styleCacheKey(category, text)
	cached, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("category", category).Msg("style cache lookup failed")
	} else if found && cached != "" {
		return cached, nil
	}

	styled, err := c.next.Style(ctx, text, category)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, styled, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("category", category).Msg("style cache store failed")
	}
	return styled, nil
}

func styleCacheKey(category, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "partyplan:style:" + normalizeCategoryName(category) + ":" + hex.EncodeToString(sum[:])
}
