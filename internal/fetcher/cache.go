package fetcher

import (
	"context"
	"sync"
)

// CachedFetcher wraps a Fetcher with a SessionCache so each URL is
// fetched at most once per session. Safe for concurrent use.
type CachedFetcher struct {
	inner Fetcher
	mu    sync.Mutex
	cache SessionCache
}

// NewCached wraps inner with the given cache. A nil cache gets a fresh
// one.
func NewCached(inner Fetcher, cache SessionCache) *CachedFetcher {
	if cache == nil {
		cache = SessionCache{}
	}
	return &CachedFetcher{inner: inner, cache: cache}
}

// FetchHTML returns the cached body when present, otherwise delegates
// and caches the result.
func (c *CachedFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if html, ok := c.cache[url]; ok {
		c.mu.Unlock()
		return html, nil
	}
	c.mu.Unlock()

	html, err := c.inner.FetchHTML(ctx, url)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[url] = html
	c.mu.Unlock()
	return html, nil
}
