package cache

import (
	"time"

	"go.uber.org/zap"
)

// Stats is a point-in-time summary of the cache contents. It is derived from
// the store on demand and never persisted.
type Stats struct {
	TotalEntries   int                      `json:"total_entries"`
	ExpiredEntries int                      `json:"expired_entries"`
	ActiveEntries  int                      `json:"active_entries"`
	ByCategory     map[string]CategoryStats `json:"by_category"`
}

// CategoryStats is the per-category breakdown.
type CategoryStats struct {
	Count         int       `json:"count"`
	AverageAccess float64   `json:"avg_access"`
	LastAccess    time.Time `json:"last_access,omitempty"`
}

// Stats computes statistics from the current store contents. Concurrent
// mutation may make the snapshot slightly stale, never inconsistent: active
// plus expired always equals total.
func (c *SmartCache) Stats() *Stats {
	stats := &Stats{ByCategory: make(map[string]CategoryStats)}

	entries, err := c.store.Entries()
	if err != nil {
		c.logger.Warn("cache stats scan failed", zap.Error(err))
		return stats
	}

	now := c.now()
	accessTotals := make(map[string]int64)

	for _, entry := range entries {
		stats.TotalEntries++
		if entry.Expired(now) {
			stats.ExpiredEntries++
		}

		category := stats.ByCategory[entry.Category]
		category.Count++
		accessTotals[entry.Category] += entry.AccessCount
		if entry.LastAccessedAt.After(category.LastAccess) {
			category.LastAccess = entry.LastAccessedAt
		}
		stats.ByCategory[entry.Category] = category
	}

	for name, category := range stats.ByCategory {
		if category.Count > 0 {
			category.AverageAccess = float64(accessTotals[name]) / float64(category.Count)
		}
		stats.ByCategory[name] = category
	}

	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}
