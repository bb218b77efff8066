package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type profile struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
}

func newTestCache(cfg *Config) *SmartCache {
	return New(NewMemoryStore(), cfg, zap.NewNop())
}

func TestSmartCacheRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	stored := profile{Name: "Jane Doe", Headline: "ML Engineer"}
	c.Set(CategoryLinkedInProfile, "https://linkedin.com/in/janedoe", stored)

	var got profile
	if !c.Get(CategoryLinkedInProfile, "https://linkedin.com/in/janedoe", &got) {
		t.Fatalf("expected a cache hit")
	}
	if got != stored {
		t.Fatalf("expected %+v, got %+v", stored, got)
	}

	if c.Get(CategoryLinkedInProfile, "https://linkedin.com/in/unknown", &got) {
		t.Fatalf("expected a miss for an unknown key")
	}
	if c.Get(CategoryGitHubProfile, "https://linkedin.com/in/janedoe", &got) {
		t.Fatalf("expected categories to be isolated")
	}
}

func TestSmartCacheTTLPerCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *Config
		category string
		expect   time.Duration
	}{
		{
			name:     "built-in category default",
			category: CategorySearchResults,
			expect:   2 * time.Hour,
		},
		{
			name:     "unknown category falls back to global default",
			category: "custom_source",
			expect:   24 * time.Hour,
		},
		{
			name:     "configured global default",
			cfg:      &Config{DefaultTTLHours: 6},
			category: "custom_source",
			expect:   6 * time.Hour,
		},
		{
			name:     "configured category override wins",
			cfg:      &Config{TTLHours: map[string]int{CategorySearchResults: 1}},
			category: CategorySearchResults,
			expect:   time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCache(tt.cfg)
			if got := c.TTL(tt.category); got != tt.expect {
				t.Fatalf("expected ttl %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestSmartCacheExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := New(store, nil, zap.NewNop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set(CategorySearchResults, "golang engineer", []string{"a", "b"})

	var got []string
	if !c.Get(CategorySearchResults, "golang engineer", &got) {
		t.Fatalf("expected a hit before expiry")
	}

	// search_results carries a 2 hour TTL.
	current = current.Add(3 * time.Hour)
	if c.Get(CategorySearchResults, "golang engineer", &got) {
		t.Fatalf("expected a miss after the ttl elapsed")
	}

	// The expired entry is removed on read, not just hidden.
	if _, found, _ := store.Get(CategorySearchResults, "golang engineer"); found {
		t.Fatalf("expected expired entry to be deleted from the store")
	}
}

func TestSmartCacheSetWithTTLOverride(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.SetWithTTL(CategoryJobAnalysis, "job-1", "analysis", 30*time.Minute)

	var got string
	current = current.Add(20 * time.Minute)
	if !c.Get(CategoryJobAnalysis, "job-1", &got) {
		t.Fatalf("expected a hit inside the explicit ttl")
	}

	current = current.Add(20 * time.Minute)
	if c.Get(CategoryJobAnalysis, "job-1", &got) {
		t.Fatalf("expected the explicit ttl to override the category default")
	}
}

func TestSmartCacheInvalidate(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)
	c.Set(CategoryGitHubProfile, "octocat", profile{Name: "Octocat"})

	c.Invalidate(CategoryGitHubProfile, "octocat")

	var got profile
	if c.Get(CategoryGitHubProfile, "octocat", &got) {
		t.Fatalf("expected a miss after invalidation")
	}
}

func TestSmartCachePurgeExpired(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.SetWithTTL(CategorySearchResults, "stale", "old", time.Minute)
	c.SetWithTTL(CategorySearchResults, "fresh", "new", time.Hour)

	current = current.Add(10 * time.Minute)
	if purged := c.PurgeExpired(); purged != 1 {
		t.Fatalf("expected 1 purged entry, got %d", purged)
	}

	var got string
	if !c.Get(CategorySearchResults, "fresh", &got) {
		t.Fatalf("expected the fresh entry to survive the purge")
	}
}

func TestSmartCacheStats(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set(CategoryLinkedInProfile, "p1", profile{Name: "One"})
	c.Set(CategoryLinkedInProfile, "p2", profile{Name: "Two"})
	c.SetWithTTL(CategorySearchResults, "q1", "results", time.Minute)

	// Two hits on p1, none on p2.
	var got profile
	c.Get(CategoryLinkedInProfile, "p1", &got)
	c.Get(CategoryLinkedInProfile, "p1", &got)

	current = current.Add(10 * time.Minute)
	stats := c.Stats()

	if stats.TotalEntries != 3 {
		t.Fatalf("expected 3 total entries, got %d", stats.TotalEntries)
	}
	if stats.ExpiredEntries != 1 {
		t.Fatalf("expected 1 expired entry, got %d", stats.ExpiredEntries)
	}
	if stats.ActiveEntries+stats.ExpiredEntries != stats.TotalEntries {
		t.Fatalf("expected active plus expired to equal total, got %+v", stats)
	}

	linkedin := stats.ByCategory[CategoryLinkedInProfile]
	if linkedin.Count != 2 {
		t.Fatalf("expected 2 linkedin entries, got %d", linkedin.Count)
	}
	if linkedin.AverageAccess != 1.0 {
		t.Fatalf("expected average access 1.0, got %f", linkedin.AverageAccess)
	}
}

// failingStore simulates a broken backend to verify the cache degrades
// instead of propagating errors.
type failingStore struct{}

var errBroken = errors.New("backend unavailable")

func (failingStore) Get(string, string) (*Entry, bool, error) { return nil, false, errBroken }
func (failingStore) Put(*Entry) error                         { return errBroken }
func (failingStore) Delete(string, string) error              { return errBroken }
func (failingStore) Touch(string, string, time.Time) error    { return errBroken }
func (failingStore) Entries() ([]*Entry, error)               { return nil, errBroken }
func (failingStore) PurgeExpired(time.Time) (int, error)      { return 0, errBroken }
func (failingStore) Close() error                             { return nil }

func TestSmartCacheDegradesOnStoreErrors(t *testing.T) {
	t.Parallel()

	c := New(failingStore{}, nil, zap.NewNop())

	c.Set(CategoryLinkedInProfile, "p1", profile{Name: "One"})

	var got profile
	if c.Get(CategoryLinkedInProfile, "p1", &got) {
		t.Fatalf("expected a miss from a failing store")
	}
	if purged := c.PurgeExpired(); purged != 0 {
		t.Fatalf("expected purge on failing store to report 0, got %d", purged)
	}
	if stats := c.Stats(); stats.TotalEntries != 0 {
		t.Fatalf("expected empty stats from a failing store, got %+v", stats)
	}
}

func TestSmartCacheLookupFetchesOnceOnMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	var mu sync.Mutex
	fetches := 0
	fetch := func(context.Context) (any, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		return profile{Name: "Fetched"}, nil
	}

	var first profile
	if err := c.Lookup(context.Background(), CategoryGitHubProfile, "octocat", &first, fetch); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if first.Name != "Fetched" {
		t.Fatalf("expected fetched profile, got %+v", first)
	}

	var second profile
	if err := c.Lookup(context.Background(), CategoryGitHubProfile, "octocat", &second, fetch); err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if fetches != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", fetches)
	}
}

func TestSmartCacheLookupPropagatesFetchError(t *testing.T) {
	t.Parallel()

	c := newTestCache(nil)

	wantErr := errors.New("rate limited")
	var out profile
	err := c.Lookup(context.Background(), CategoryGitHubProfile, "octocat", &out, func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to pass through, got %v", err)
	}

	// A failed fetch must not poison the cache.
	if c.Get(CategoryGitHubProfile, "octocat", &out) {
		t.Fatalf("expected no entry cached after a failed fetch")
	}
}
