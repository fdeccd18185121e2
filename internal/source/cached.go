package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/taxscroll/internal/cache"
	"github.com/ppiankov/taxscroll/internal/model"
)

// Pages is anything that yields numbered pages
type Pages interface {
	NumPages() int
	Page(n int) (*model.Page, error)
}

// Cached serves pages from a cache, decoding from the underlying source only on a miss
type Cached struct {
	src         Pages
	cache       cache.Cache
	documentKey string
	ttl         time.Duration
	hits        int
	misses      int
}

// CacheKey combines a document key with the assembly settings, so pages assembled
// under other settings are never served
func CacheKey(documentKey string, a Assembler) string {
	return cache.Key(documentKey, "assembly", a.Identity())
}

// NewCached wraps src. documentKey must change whenever the document or the way its
// pages are assembled does (see CacheKey). A zero ttl uses the cache default.
func NewCached(src Pages, c cache.Cache, documentKey string, ttl time.Duration) *Cached {
	return &Cached{
		src:         src,
		cache:       c,
		documentKey: documentKey,
		ttl:         ttl,
	}
}

// NumPages returns the page count of the underlying source
func (c *Cached) NumPages() int {
	return c.src.NumPages()
}

// Page returns page n. Cache failures fall back to decoding; decode failures are
// returned unchanged.
func (c *Cached) Page(n int) (*model.Page, error) {
	key := cache.PageKey(c.documentKey, n)

	if data, ok := c.cache.Get(key); ok {
		var page model.Page
		if err := json.Unmarshal(data, &page); err == nil {
			c.hits++
			return &page, nil
		}
		_ = c.cache.Delete(key)
	}

	c.misses++
	page, err := c.src.Page(n)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("marshal page %d: %w", n, err)
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		slog.Debug("page cache write failed", "page", n, "error", err)
	}

	return page, nil
}

// Stats returns the cache hit and miss counts
func (c *Cached) Stats() (hits, misses int) {
	return c.hits, c.misses
}
