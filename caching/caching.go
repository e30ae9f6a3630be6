// Package caching wraps go-cache with the counters used for login throttling.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	memoryCache *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{memoryCache: cache.New(ttl, 2*ttl)}
}

// Increment bumps the counter stored under key and returns the new value.
// The expiry is fixed by the first increment, giving a fixed window.
func (s *Cache) Increment(key string) int {
	if err := s.memoryCache.Add(key, 1, cache.DefaultExpiration); err == nil {
		return 1
	}
	n, err := s.memoryCache.IncrementInt(key, 1)
	if err != nil {
		// expired between Add and IncrementInt
		s.memoryCache.Set(key, 1, cache.DefaultExpiration)
		return 1
	}
	return n
}

// Count returns the counter stored under key, or 0.
func (s *Cache) Count(key string) int {
	v, ok := s.memoryCache.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int)
	return n
}

func (s *Cache) Reset(key string) {
	s.memoryCache.Delete(key)
}

func (s *Cache) Flush() {
	s.memoryCache.Flush()
}
