package analysis

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// Cache stores analysis results for the lifetime of the process, keyed by
// (product id, language, allergy set). Bounded by an LRU policy so a
// long-running server cannot grow without limit; repeated identical queries
// within a session must be cheap and must not double-charge the remote API.
type Cache struct {
	lru *lru.Cache[string, types.AnalysisResult]
}

// DefaultCacheSize bounds the analysis cache when no size is configured
const DefaultCacheSize = 200

// NewCache creates an analysis cache holding up to size entries
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	inner, err := lru.New[string, types.AnalysisResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	return &Cache{lru: inner}, nil
}

// CacheKey builds the cache key for a query. Allergies are lowercased and
// sorted so the key is insensitive to declaration order.
func CacheKey(productID string, language types.Language, allergies []string) string {
	normalized := make([]string, len(allergies))
	for i, a := range allergies {
		normalized[i] = strings.ToLower(strings.TrimSpace(a))
	}
	sort.Strings(normalized)

	return fmt.Sprintf("%s|%s|%s", productID, language, strings.Join(normalized, ","))
}

// Get returns the cached result for key, if present
func (c *Cache) Get(key string) (types.AnalysisResult, bool) {
	return c.lru.Get(key)
}

// Put stores a result under key, evicting the least recently used entry
// when the cache is full
func (c *Cache) Put(key string, result types.AnalysisResult) {
	c.lru.Add(key, result)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	return c.lru.Len()
}
