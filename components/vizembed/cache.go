package vizembed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

// ResolutionCache is an in-memory TTL cache for filter resolutions.
type ResolutionCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cachedResolution
}

type cachedResolution struct {
	resolution FilterResolution
	expires    time.Time
}

// NewResolutionCache builds a cache with the provided TTL. A non positive TTL
// disables caching.
func NewResolutionCache(ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{
		ttl:     ttl,
		entries: make(map[string]cachedResolution),
	}
}

// GetOrResolve returns a cached entry or resolves and stores a new one.
// Failed resolutions are never cached.
func (c *ResolutionCache) GetOrResolve(key string, resolve func() (FilterResolution, error)) (FilterResolution, error) {
	if res, ok := c.get(key); ok {
		return res, nil
	}
	res, err := resolve()
	if err != nil {
		return FilterResolution{}, err
	}
	c.set(key, res)
	return cloneResolution(res), nil
}

func (c *ResolutionCache) get(key string) (FilterResolution, bool) {
	if c == nil || c.ttl <= 0 {
		return FilterResolution{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return FilterResolution{}, false
	}
	return cloneResolution(entry.resolution), true
}

func (c *ResolutionCache) set(key string, res FilterResolution) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedResolution{
		resolution: cloneResolution(res),
		expires:    time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// CachedResolver memoizes another resolver per definition and record.
type CachedResolver struct {
	next  FilterResolver
	cache *ResolutionCache
}

// NewCachedResolver wraps next with a TTL cache.
func NewCachedResolver(next FilterResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, cache: NewResolutionCache(ttl)}
}

// ResolveFilters implements FilterResolver.
func (r *CachedResolver) ResolveFilters(ctx context.Context, req FilterRequest) (FilterResolution, error) {
	if r.next == nil {
		return FilterResolution{}, errMissingResolver
	}
	return r.cache.GetOrResolve(requestKey(req), func() (FilterResolution, error) {
		return r.next.ResolveFilters(ctx, req)
	})
}

// requestKey returns a deterministic key for the request.
func requestKey(req FilterRequest) string {
	sum := sha1.Sum([]byte(req.FilterDefinitionID + "\x00" + req.RecordID))
	return hex.EncodeToString(sum[:])
}

func cloneResolution(res FilterResolution) FilterResolution {
	out := FilterResolution{Worksheet: res.Worksheet}
	if res.Filters == nil {
		return out
	}
	out.Filters = make([]FilterDescriptor, len(res.Filters))
	for i, f := range res.Filters {
		out.Filters[i] = FilterDescriptor{
			Name:          f.Name,
			Values:        append([]string(nil), f.Values...),
			SelectionOnly: f.SelectionOnly,
		}
	}
	return out
}
