package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/sourcing"

	"go.uber.org/zap"
)

func newGitHubServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/jane-doe", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"login":"jane-doe","name":"Jane Doe","location":"Berlin"}`))
	})
	mux.HandleFunc("/users/jane-doe/repos", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[
			{"name":"small","language":"Go","stargazers_count":3,"topics":["cli"]},
			{"name":"forked","language":"Rust","stargazers_count":900,"fork":true},
			{"name":"big","description":"popular project","language":"Go","stargazers_count":120}
		]`))
	})
	mux.HandleFunc("/site", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`<html><head><title>Jane Doe - Projects</title></head></html>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestCollector(t *testing.T, apiBase string) *Collector {
	t.Helper()

	smartCache := cache.New(cache.NewMemoryStore(), nil, zap.NewNop())
	collector := NewCollector(smartCache, zap.NewNop())
	collector.APIBase = apiBase
	return collector
}

func TestEnhanceAttachesGitHubData(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := newGitHubServer(t, &hits)
	collector := newTestCollector(t, server.URL)

	candidate := &sourcing.Candidate{
		Name:        "Jane Doe",
		LinkedInURL: "https://www.linkedin.com/in/jane-doe",
		Website:     server.URL + "/site",
		Skills:      []string{"Kubernetes"},
	}

	if err := collector.Enhance(context.Background(), candidate); err != nil {
		t.Fatalf("enhance failed: %v", err)
	}

	if candidate.GitHubUsername != "jane-doe" {
		t.Fatalf("expected github username jane-doe, got %q", candidate.GitHubUsername)
	}
	if candidate.Location != "Berlin" {
		t.Fatalf("expected location from github profile, got %q", candidate.Location)
	}

	if len(candidate.GitHubRepos) != 2 {
		t.Fatalf("expected forks filtered out, got %v", candidate.GitHubRepos)
	}
	if candidate.GitHubRepos[0].Name != "big" {
		t.Fatalf("expected repos sorted by stars, got %v", candidate.GitHubRepos)
	}

	skills := map[string]bool{}
	for _, s := range candidate.Skills {
		skills[s] = true
	}
	if !skills["Kubernetes"] || !skills["Go"] || !skills["cli"] {
		t.Fatalf("expected repo languages and topics merged into skills, got %v", candidate.Skills)
	}

	for _, source := range []string{"linkedin", "github", "website"} {
		found := false
		for _, s := range candidate.DataSources {
			if s == source {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected data source %q, got %v", source, candidate.DataSources)
		}
	}
}

func TestEnhanceUsesCacheOnSecondCall(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := newGitHubServer(t, &hits)
	collector := newTestCollector(t, server.URL)

	for i := 0; i < 2; i++ {
		candidate := &sourcing.Candidate{
			Name:        "Jane Doe",
			LinkedInURL: "https://www.linkedin.com/in/jane-doe",
		}
		if err := collector.Enhance(context.Background(), candidate); err != nil {
			t.Fatalf("enhance failed: %v", err)
		}
	}

	// One user call and one repos call; the second candidate hits the cache.
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream requests, got %d", got)
	}
}

func TestEnhanceSurvivesGitHubFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	collector := newTestCollector(t, server.URL)

	candidate := &sourcing.Candidate{
		Name:        "Jane Doe",
		LinkedInURL: "https://www.linkedin.com/in/jane-doe",
	}

	if err := collector.Enhance(context.Background(), candidate); err != nil {
		t.Fatalf("expected enhancement to degrade instead of failing, got %v", err)
	}
	if len(candidate.GitHubRepos) != 0 {
		t.Fatalf("expected no repos after a failed lookup, got %v", candidate.GitHubRepos)
	}
	if len(candidate.DataSources) != 1 || candidate.DataSources[0] != "linkedin" {
		t.Fatalf("expected only the primary data source, got %v", candidate.DataSources)
	}
}

func TestEnhanceAttachesWebsiteTitle(t *testing.T) {
	t.Parallel()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head><title>Jane Doe - Projects</title></head></html>`))
	}))
	t.Cleanup(site.Close)

	collector := newTestCollector(t, "http://127.0.0.1:0")

	// No profile url, so no github username to look up.
	candidate := &sourcing.Candidate{
		Name:    "Jane Doe",
		Website: site.URL,
	}

	if err := collector.Enhance(context.Background(), candidate); err != nil {
		t.Fatalf("enhance failed: %v", err)
	}

	found := false
	for _, s := range candidate.DataSources {
		if s == "website" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected website data source, got %v", candidate.DataSources)
	}
}

func TestEnhanceAttachesTwitterProfile(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/janedoe_dev" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Write([]byte(`<html><body>Jane on Twitter</body></html>`))
	}))
	t.Cleanup(server.Close)

	collector := newTestCollector(t, "http://127.0.0.1:0")
	collector.TwitterBase = server.URL

	for i := 0; i < 2; i++ {
		candidate := &sourcing.Candidate{
			Name:          "Jane Doe",
			TwitterHandle: "janedoe_dev",
		}
		if err := collector.Enhance(context.Background(), candidate); err != nil {
			t.Fatalf("enhance failed: %v", err)
		}

		found := false
		for _, s := range candidate.DataSources {
			if s == "twitter" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected twitter data source, got %v", candidate.DataSources)
		}
	}

	// The second candidate must come from the cache.
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream request, got %d", got)
	}
}

func TestEnhanceSurvivesMissingTwitterProfile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	t.Cleanup(server.Close)

	collector := newTestCollector(t, "http://127.0.0.1:0")
	collector.TwitterBase = server.URL

	candidate := &sourcing.Candidate{
		Name:          "Jane Doe",
		TwitterHandle: "gone",
	}
	if err := collector.Enhance(context.Background(), candidate); err != nil {
		t.Fatalf("expected enhancement to degrade instead of failing, got %v", err)
	}
	if len(candidate.DataSources) != 1 || candidate.DataSources[0] != "linkedin" {
		t.Fatalf("expected only the primary data source, got %v", candidate.DataSources)
	}
}

func TestGuessGitHubUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		expect string
	}{
		{
			name:   "plain slug",
			url:    "https://www.linkedin.com/in/jane-doe",
			expect: "jane-doe",
		},
		{
			name:   "trailing slash",
			url:    "https://www.linkedin.com/in/jane-doe/",
			expect: "jane-doe",
		},
		{
			name:   "url-encoded tail dropped",
			url:    "https://www.linkedin.com/in/jane-doe%C3%A9",
			expect: "jane-doe",
		},
		{
			name:   "no profile path",
			url:    "https://example.com/jane",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			candidate := &sourcing.Candidate{LinkedInURL: tt.url}
			if got := guessGitHubUsername(candidate); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalizeWebsite(t *testing.T) {
	t.Parallel()

	if got := normalizeWebsite("janedoe.dev"); got != "https://janedoe.dev" {
		t.Fatalf("expected https scheme to be added, got %q", got)
	}
	if got := normalizeWebsite("http://janedoe.dev"); got != "http://janedoe.dev" {
		t.Fatalf("expected existing scheme to be kept, got %q", got)
	}
	if got := normalizeWebsite(""); got != "" {
		t.Fatalf("expected empty input to stay empty, got %q", got)
	}
}
