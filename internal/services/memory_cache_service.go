package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"memopilot/internal/models"

	"github.com/patrickmn/go-cache"
)

// Canonical warmup queries issued ahead of expected demand
const (
	warmupSearchQuery = "user_preferences"
	warmupPageSize    = 100
)

// cachedEntry wraps a stored result with the metadata the invalidation and
// capacity logic needs.
type cachedEntry struct {
	result   models.MemoryResult
	owner    string // user the entry is attributable to, "" when unknown
	storedAt time.Time
}

// MemoryCacheService fronts the memory service with per-operation TTL
// caches. Reads are cached, writes pass through untouched; invalidation is
// driven by the service's change webhooks.
//
// TTL policy: fixed. Expiry is set once at insertion and a cache hit never
// extends it. Two concurrent misses on one key may both call through and
// both store; results are idempotent reads, so last-write-wins is accepted.
type MemoryCacheService struct {
	upstream MemoryAPI

	searchCache *cache.Cache
	getAllCache *cache.Cache
	getCache    *cache.Cache

	maxEntries int
	metrics    *Metrics
	mu         sync.RWMutex
}

// NewMemoryCacheService creates a cache service in front of the given
// upstream. Each of the three caches holds at most maxEntries entries;
// when full, the oldest-inserted entry is evicted.
func NewMemoryCacheService(upstream MemoryAPI, ttl time.Duration, maxEntries int, metrics *Metrics) *MemoryCacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}

	return &MemoryCacheService{
		upstream:    upstream,
		searchCache: cache.New(ttl, time.Minute),
		getAllCache: cache.New(ttl, time.Minute),
		getCache:    cache.New(ttl, time.Minute),
		maxEntries:  maxEntries,
		metrics:     metrics,
	}
}

// Search searches memories, caching per (query, filters, options). Results
// that carry no user_id filter cannot be partitioned per user and bypass the
// cache entirely.
func (s *MemoryCacheService) Search(ctx context.Context, query string, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	owner, _ := filters["user_id"].(string)
	if owner == "" {
		return s.upstream.Search(ctx, query, filters, options)
	}

	key := cacheKey(query, filters, options)
	if result, ok := s.lookup(s.searchCache, "search", key); ok {
		return result, nil
	}

	result, err := s.upstream.Search(ctx, query, filters, options)
	if err != nil {
		return nil, err
	}

	s.store(s.searchCache, key, owner, result)
	return result, nil
}

// GetAll lists memories, caching per (filters, options) with the same
// user-partition requirement as Search.
func (s *MemoryCacheService) GetAll(ctx context.Context, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	owner, _ := filters["user_id"].(string)
	if owner == "" {
		return s.upstream.GetAll(ctx, filters, options)
	}

	key := cacheKey(filters, options)
	if result, ok := s.lookup(s.getAllCache, "get_all", key); ok {
		return result, nil
	}

	result, err := s.upstream.GetAll(ctx, filters, options)
	if err != nil {
		return nil, err
	}

	s.store(s.getAllCache, key, owner, result)
	return result, nil
}

// Get fetches one memory by ID, caching per (id, options). Always cacheable;
// the entry is attributed to the owning user recorded on the returned record.
func (s *MemoryCacheService) Get(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	key := cacheKey(memoryID, options)
	if result, ok := s.lookup(s.getCache, "get", key); ok {
		return result, nil
	}

	result, err := s.upstream.Get(ctx, memoryID, options)
	if err != nil {
		return nil, err
	}

	s.store(s.getCache, key, models.RecordOwner(result), result)
	return result, nil
}

// Add stores new memories. Pure pass-through; invalidation arrives via the
// service's webhook, never synchronously here.
func (s *MemoryCacheService) Add(ctx context.Context, messages []map[string]any, userID string, options map[string]any) (models.MemoryResult, error) {
	return s.upstream.Add(ctx, messages, userID, options)
}

// Delete removes a memory. Same non-invalidating pass-through contract as Add.
func (s *MemoryCacheService) Delete(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	return s.upstream.Delete(ctx, memoryID, options)
}

// ResetCache invalidates cached entries. With a user ID it removes exactly
// the entries attributable to that user across all three caches; with an
// empty string it clears everything. Clearing an already-clear cache is a
// no-op, so replayed webhook events are harmless.
func (s *MemoryCacheService) ResetCache(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		s.searchCache.Flush()
		s.getAllCache.Flush()
		s.getCache.Flush()
		log.Println("🧹 [MEMORY-CACHE] Flushed all caches")
		return
	}

	removed := 0
	for _, c := range []*cache.Cache{s.searchCache, s.getAllCache, s.getCache} {
		for key, item := range c.Items() {
			if entry, ok := item.Object.(cachedEntry); ok && entry.owner == userID {
				c.Delete(key)
				removed++
			}
		}
	}

	log.Printf("🧹 [MEMORY-CACHE] Invalidated %d entries for user %s", removed, userID)
}

// Warmup populates the hot-path caches for a user ahead of expected demand:
// the canonical preferences search and the first listing page. Both legs run
// concurrently and a failed leg is logged and swallowed so it never prevents
// the other from completing.
func (s *MemoryCacheService) Warmup(ctx context.Context, userID string) {
	filters := map[string]any{"user_id": userID}

	var wg sync.WaitGroup
	wg.Add(2)

	var searchOK, getAllOK bool

	go func() {
		defer wg.Done()
		if _, err := s.Search(ctx, warmupSearchQuery, filters, nil); err != nil {
			s.metrics.WarmupRun("search_failed")
			log.Printf("⚠️  [MEMORY-CACHE] Warmup search failed for user %s: %v", userID, err)
			return
		}
		searchOK = true
	}()

	go func() {
		defer wg.Done()
		options := map[string]any{"page": 1, "page_size": warmupPageSize}
		if _, err := s.GetAll(ctx, filters, options); err != nil {
			s.metrics.WarmupRun("get_all_failed")
			log.Printf("⚠️  [MEMORY-CACHE] Warmup listing failed for user %s: %v", userID, err)
			return
		}
		getAllOK = true
	}()

	wg.Wait()
	if searchOK || getAllOK {
		s.metrics.WarmupRun("completed")
	} else {
		s.metrics.WarmupRun("failed")
	}
}

// Stats returns entry counts per cache
func (s *MemoryCacheService) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"search_entries":  s.searchCache.ItemCount(),
		"get_all_entries": s.getAllCache.ItemCount(),
		"get_entries":     s.getCache.ItemCount(),
	}
}

func (s *MemoryCacheService) lookup(c *cache.Cache, name, key string) (models.MemoryResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := c.Get(key)
	if !found {
		s.metrics.CacheMiss(name)
		return nil, false
	}

	entry, ok := value.(cachedEntry)
	if !ok {
		s.metrics.CacheMiss(name)
		return nil, false
	}

	s.metrics.CacheHit(name)
	return entry.result, true
}

func (s *MemoryCacheService) store(c *cache.Cache, key, owner string, result models.MemoryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Items() holds only live entries; ItemCount would also count expired
	// ones awaiting the janitor and force spurious evictions.
	if _, exists := c.Get(key); !exists && len(c.Items()) >= s.maxEntries {
		evictOldest(c)
	}

	c.Set(key, cachedEntry{result: result, owner: owner, storedAt: time.Now()}, cache.DefaultExpiration)
}

// evictOldest removes the entry with the oldest insertion timestamp.
// Capacity eviction is independent of TTL.
func evictOldest(c *cache.Cache) {
	var oldestKey string
	var oldestAt time.Time

	for key, item := range c.Items() {
		entry, ok := item.Object.(cachedEntry)
		if !ok {
			c.Delete(key)
			return
		}
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}

	if oldestKey != "" {
		c.Delete(oldestKey)
	}
}

// cacheKey builds a collision-free key from the given segments. Map segments
// are reduced to sorted key/value pairs first, then the whole tuple is
// JSON-encoded: equal tuples produce equal keys regardless of map
// construction order, and no delimiter character inside a segment can make
// distinct tuples collide. Nested map values are deterministic because
// encoding/json writes map keys sorted.
func cacheKey(segments ...any) string {
	normalized := make([]any, len(segments))
	for i, segment := range segments {
		if m, ok := segment.(map[string]any); ok {
			normalized[i] = sortedPairs(m)
		} else {
			normalized[i] = segment
		}
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		// Filter and option maps only ever hold JSON-decoded values, so this
		// is unreachable in practice.
		return fmt.Sprintf("%v", normalized)
	}
	return string(encoded)
}

func sortedPairs(m map[string]any) [][2]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]any, 0, len(m))
	for _, k := range keys {
		pairs = append(pairs, [2]any{k, m[k]})
	}
	return pairs
}
