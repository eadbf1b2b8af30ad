package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
)

// CacheService provides high-level caching for figure reads.
// Readers go through GetOrCompute; writers call the Invalidate methods
// after their store commit so the next read repopulates from fresh rows.
type CacheService struct {
	redis     *RedisCache
	entityTTL time.Duration
	listTTL   time.Duration
	searchTTL time.Duration
	logger    *logging.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, cfg *config.CacheConfig) *CacheService {
	return &CacheService{
		redis:     redis,
		entityTTL: cfg.EntityTTL,
		listTTL:   cfg.ListTTL,
		searchTTL: cfg.SearchTTL,
		logger:    logging.GetLogger().WithField("component", "cache_service"),
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyFigure is for single figure entries
	CacheKeyFigure CacheKeyType = "figure"
	// CacheKeyPopular is for most-viewed figure lists
	CacheKeyPopular CacheKeyType = "list:popular"
	// CacheKeyParty is for per-party figure lists
	CacheKeyParty CacheKeyType = "list:party"
	// CacheKeySearch is for keyword search results
	CacheKeySearch CacheKeyType = "search"
)

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	normalizedParams := make([]string, len(params))
	for i, param := range params {
		normalizedParams[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalizedParams...)
	return strings.Join(parts, ":")
}

// GenerateFigureKey generates a cache key for a single figure
// Format: figure:<figure-id>
func (c *CacheService) GenerateFigureKey(figureID string) string {
	return c.GenerateCacheKey(CacheKeyFigure, figureID)
}

// GeneratePopularKey generates a cache key for a popular-figures list
// Format: list:popular:<limit>
func (c *CacheService) GeneratePopularKey(limit int) string {
	return c.GenerateCacheKey(CacheKeyPopular, fmt.Sprintf("%d", limit))
}

// GeneratePartyKey generates a cache key for a party member list
// Format: list:party:<party>
func (c *CacheService) GeneratePartyKey(party string) string {
	return c.GenerateCacheKey(CacheKeyParty, party)
}

// GenerateSearchKey generates a cache key for keyword search results
// Format: search:<keyword>
func (c *CacheService) GenerateSearchKey(keyword string) string {
	return c.GenerateCacheKey(CacheKeySearch, keyword)
}

// EntityTTL returns the TTL applied to figure entries
func (c *CacheService) EntityTTL() time.Duration {
	return c.entityTTL
}

// ListTTL returns the TTL applied to list entries
func (c *CacheService) ListTTL() time.Duration {
	return c.listTTL
}

// SearchTTL returns the TTL applied to search entries
func (c *CacheService) SearchTTL() time.Duration {
	return c.searchTTL
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, ttl); err != nil {
		return errors.NewCacheError("set "+key, err)
	}
	return nil
}

// Get retrieves a value from cache and deserializes it.
// The boolean reports a hit; a miss is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if err.Error() == "redis: nil" {
			return false, nil
		}
		return false, errors.NewCacheError("get "+key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// GetOrCompute serves a read through the cache. On a miss it calls compute,
// stores a non-empty result under key with ttl, and returns it. Empty results
// (nil pointers, empty slices) are returned but never cached, so a figure
// synced moments later is visible immediately. Cache faults on either side
// degrade to the computed value; the store stays the source of truth.
func (c *CacheService) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func(ctx context.Context) (interface{}, error)) error {
	hit, err := c.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed, falling back to store")
	}
	if hit {
		return nil
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	if err := assignResult(dest, value); err != nil {
		return err
	}

	if isEmptyResult(value) {
		return nil
	}

	if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed, result served uncached")
	}
	return nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		return errors.NewCacheError("invalidate keys", err)
	}
	return nil
}

// InvalidatePattern removes all keys matching a pattern
// Pattern examples: "figure:*", "list:party:*"
func (c *CacheService) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := c.redis.Keys(ctx, pattern)
	if err != nil {
		return errors.NewCacheError("scan pattern "+pattern, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...); err != nil {
		return errors.NewCacheError("invalidate pattern "+pattern, err)
	}
	return nil
}

// InvalidateFigure invalidates the figure entry and every derived list or
// search entry that could include it. Derived entries cannot be updated in
// place because membership depends on the write (a party change moves the
// figure between party lists), so they are dropped wholesale.
func (c *CacheService) InvalidateFigure(ctx context.Context, figureID string) error {
	if err := c.Invalidate(ctx, c.GenerateFigureKey(figureID)); err != nil {
		return err
	}
	return c.InvalidateDerived(ctx)
}

// InvalidateDerived invalidates all list and search entries
func (c *CacheService) InvalidateDerived(ctx context.Context) error {
	for _, pattern := range []string{"list:popular:*", "list:party:*", "search:*"} {
		if err := c.InvalidatePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateAll drops every figure, list and search entry
func (c *CacheService) InvalidateAll(ctx context.Context) error {
	if err := c.InvalidatePattern(ctx, "figure:*"); err != nil {
		return err
	}
	return c.InvalidateDerived(ctx)
}

// Exists checks if a key exists in cache
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return c.redis.Exists(ctx, key)
}

// assignResult copies the computed value into the caller's destination
// pointer, mirroring what json.Unmarshal does on the hit path.
func assignResult(dest, value interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("cache destination must be a non-nil pointer")
	}
	if value == nil {
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(dv.Elem().Type()) {
		return fmt.Errorf("cache compute returned %s, destination wants %s", vv.Type(), dv.Elem().Type())
	}
	dv.Elem().Set(vv)
	return nil
}

// isEmptyResult reports whether a computed value carries no data and so
// should not occupy a cache slot
func isEmptyResult(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	}
	return false
}
