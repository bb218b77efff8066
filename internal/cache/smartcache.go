package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Categories of cached lookups. Each category carries its own default TTL:
// the faster the upstream data changes, the shorter the TTL.
const (
	CategoryLinkedInProfile = "linkedin_profile"
	CategoryGitHubProfile   = "github_profile"
	CategoryGitHubRepos     = "github_repos"
	CategoryTwitterProfile  = "twitter_profile"
	CategoryWebsiteData     = "website_data"
	CategorySearchResults   = "search_results"
	CategoryJobAnalysis     = "job_analysis"
)

// DefaultTTLHours holds the built-in per-category defaults, overridable via
// configuration.
var DefaultTTLHours = map[string]int{
	CategoryLinkedInProfile: 24,
	CategoryGitHubProfile:   12,
	CategoryGitHubRepos:     6,
	CategoryTwitterProfile:  24,
	CategoryWebsiteData:     48,
	CategorySearchResults:   2,
	CategoryJobAnalysis:     168,
}

// FallbackTTLHours applies to categories with no configured TTL.
const FallbackTTLHours = 24

// Config holds the policy-layer settings. All fields are optional; zero
// values fall back to the built-in defaults.
type Config struct {
	// Path of the sqlite cache file. Empty means in-memory only.
	Path string `mapstructure:"path"`
	// DefaultTTLHours is the global fallback TTL.
	DefaultTTLHours int `mapstructure:"default-ttl-hours"`
	// TTLHours overrides the default TTL per category.
	TTLHours map[string]int `mapstructure:"ttl-hours"`
}

// SmartCache is the policy layer over a Store: it owns per-category TTLs,
// access accounting and statistics. It is a pure optimization: every failure
// degrades to a miss on read and a no-op on write, never an error for the
// caller.
type SmartCache struct {
	store  Store
	logger *zap.Logger

	defaultTTL time.Duration
	ttls       map[string]time.Duration

	group singleflight.Group

	// now is swappable for expiry tests.
	now func() time.Time
}

func New(store Store, cfg *Config, logger *zap.Logger) *SmartCache {
	ttls := make(map[string]time.Duration, len(DefaultTTLHours))
	for category, hours := range DefaultTTLHours {
		ttls[category] = time.Duration(hours) * time.Hour
	}

	defaultTTL := FallbackTTLHours * time.Hour
	if cfg != nil {
		if cfg.DefaultTTLHours > 0 {
			defaultTTL = time.Duration(cfg.DefaultTTLHours) * time.Hour
		}
		for category, hours := range cfg.TTLHours {
			if hours > 0 {
				ttls[category] = time.Duration(hours) * time.Hour
			}
		}
	}

	return &SmartCache{
		store:      store,
		logger:     logger,
		defaultTTL: defaultTTL,
		ttls:       ttls,
		now:        time.Now,
	}
}

// TTL returns the effective TTL for a category.
func (c *SmartCache) TTL(category string) time.Duration {
	if ttl, ok := c.ttls[category]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get looks up (category, key) and unmarshals the payload into out.
// Expired or absent entries are misses; expired entries are deleted on the
// spot. A hit bumps the entry's access metadata.
func (c *SmartCache) Get(category, key string, out any) bool {
	now := c.now()

	entry, found, err := c.store.Get(category, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			zap.String("category", category),
			zap.Error(err),
		)
		return false
	}
	if !found {
		c.logger.Debug("cache miss", zap.String("category", category), zap.String("key", key))
		return false
	}

	if entry.Expired(now) {
		if err := c.store.Delete(category, key); err != nil {
			c.logger.Warn("removing expired cache entry failed", zap.Error(err))
		}
		c.logger.Debug("cache expired", zap.String("category", category), zap.String("key", key))
		return false
	}

	if err := json.Unmarshal(entry.Payload, out); err != nil {
		c.logger.Warn("cache payload unmarshal failed, treating as miss",
			zap.String("category", category),
			zap.Error(err),
		)
		return false
	}

	if err := c.store.Touch(category, key, now); err != nil {
		c.logger.Warn("cache access accounting failed", zap.Error(err))
	}

	c.logger.Debug("cache hit", zap.String("category", category), zap.String("key", key))
	return true
}

// Set stores value under (category, key) with the category's default TTL.
// An existing entry is overwritten and its creation/expiry times reset.
func (c *SmartCache) Set(category, key string, value any) {
	c.SetWithTTL(category, key, value, c.TTL(category))
}

// SetWithTTL stores value with an explicit TTL, overriding the category
// default.
func (c *SmartCache) SetWithTTL(category, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache payload marshal failed, skipping write",
			zap.String("category", category),
			zap.Error(err),
		)
		return
	}

	now := c.now()
	entry := &Entry{
		Category:  category,
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := c.store.Put(entry); err != nil {
		c.logger.Warn("cache write failed, skipping",
			zap.String("category", category),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("cached",
		zap.String("category", category),
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)
}

// Invalidate removes the entry for (category, key) if present.
func (c *SmartCache) Invalidate(category, key string) {
	if err := c.store.Delete(category, key); err != nil {
		c.logger.Warn("cache invalidation failed",
			zap.String("category", category),
			zap.Error(err),
		)
	}
}

// Lookup returns the cached value for (category, key) or, on a miss, calls
// fetch and caches its result. Concurrent lookups for the same key are
// collapsed into a single fetch. fetch errors pass through uncached.
func (c *SmartCache) Lookup(ctx context.Context, category, key string, out any, fetch func(ctx context.Context) (any, error)) error {
	if c.Get(category, key, out) {
		return nil
	}

	value, err, _ := c.group.Do(category+":"+key, func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return err
	}

	c.Set(category, key, value)

	// Round-trip through JSON so out gets the same shape a cache hit yields.
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

// PurgeExpired removes every expired entry from the store.
func (c *SmartCache) PurgeExpired() int {
	purged, err := c.store.PurgeExpired(c.now())
	if err != nil {
		c.logger.Warn("purging expired cache entries failed", zap.Error(err))
		return 0
	}
	return purged
}

// Close releases the underlying store.
func (c *SmartCache) Close() error {
	return c.store.Close()
}
