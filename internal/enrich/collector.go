package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/sourcing"

	"go.uber.org/zap"
)

const (
	githubAPIBase = "https://api.github.com"
	twitterBase   = "https://twitter.com"
	maxRepos      = 10
	maxReadBytes  = 1 << 20
)

// Collector enhances candidates with data beyond their primary profile:
// GitHub account and repositories, a Twitter profile when the candidate
// links one, and a personal website. Every external lookup is gated through
// the cache; a lookup failure downgrades the enhancement, never the
// candidate.
type Collector struct {
	logger      *zap.Logger
	cache       *cache.SmartCache
	HTTPClient  *http.Client
	APIBase     string
	TwitterBase string
}

func NewCollector(smartCache *cache.SmartCache, logger *zap.Logger) *Collector {
	return &Collector{
		logger: logger,
		cache:  smartCache,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		APIBase:     githubAPIBase,
		TwitterBase: twitterBase,
	}
}

// Enhance augments the candidate in place. Partial failures are logged and
// skipped: multi-source data is additive only.
func (c *Collector) Enhance(ctx context.Context, candidate *sourcing.Candidate) error {
	username := candidate.GitHubUsername
	if username == "" {
		username = guessGitHubUsername(candidate)
	}

	if username != "" {
		if err := c.attachGitHub(ctx, candidate, username); err != nil {
			c.logger.Debug("github enhancement skipped",
				zap.String("candidate", candidate.Name),
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}

	if candidate.TwitterHandle != "" {
		if err := c.attachTwitter(ctx, candidate); err != nil {
			c.logger.Debug("twitter enhancement skipped",
				zap.String("candidate", candidate.Name),
				zap.String("handle", candidate.TwitterHandle),
				zap.Error(err),
			)
		}
	}

	if candidate.Website != "" {
		if err := c.attachWebsite(ctx, candidate); err != nil {
			c.logger.Debug("website enhancement skipped",
				zap.String("candidate", candidate.Name),
				zap.Error(err),
			)
		}
	}

	if !contains(candidate.DataSources, "linkedin") {
		candidate.DataSources = append([]string{"linkedin"}, candidate.DataSources...)
	}
	return nil
}

type githubUser struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Blog     string `json:"blog"`
	Location string `json:"location"`
}

type githubRepo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Topics      []string `json:"topics"`
	Fork        bool     `json:"fork"`
}

func (c *Collector) attachGitHub(ctx context.Context, candidate *sourcing.Candidate, username string) error {
	var user githubUser
	err := c.cache.Lookup(ctx, cache.CategoryGitHubProfile, username, &user, func(ctx context.Context) (any, error) {
		var fetched githubUser
		if err := c.getJSON(ctx, c.APIBase+"/users/"+username, &fetched); err != nil {
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		return fmt.Errorf("github user %s: %w", username, err)
	}

	candidate.GitHubUsername = user.Login
	if candidate.Website == "" && user.Blog != "" {
		candidate.Website = normalizeWebsite(user.Blog)
	}
	if candidate.Location == "" {
		candidate.Location = user.Location
	}

	var repos []githubRepo
	err = c.cache.Lookup(ctx, cache.CategoryGitHubRepos, username, &repos, func(ctx context.Context) (any, error) {
		var fetched []githubRepo
		if err := c.getJSON(ctx, c.APIBase+"/users/"+username+"/repos?sort=updated&per_page=30", &fetched); err != nil {
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		return fmt.Errorf("github repos for %s: %w", username, err)
	}

	candidate.GitHubRepos = topRepos(repos)
	candidate.Skills = mergeSkills(candidate.Skills, repoLanguages(candidate.GitHubRepos))
	candidate.DataSources = appendSource(candidate.DataSources, "github")
	return nil
}

type twitterProfile struct {
	Username string `json:"username"`
	URL      string `json:"url"`
	Exists   bool   `json:"exists"`
}

// attachTwitter confirms the linked Twitter handle resolves to a profile
// page. The public page yields no structured data without authentication, so
// existence is all that is recorded.
func (c *Collector) attachTwitter(ctx context.Context, candidate *sourcing.Candidate) error {
	handle := candidate.TwitterHandle
	profileURL := c.TwitterBase + "/" + handle

	var profile twitterProfile
	err := c.cache.Lookup(ctx, cache.CategoryTwitterProfile, handle, &profile, func(ctx context.Context) (any, error) {
		if _, err := c.getPage(ctx, profileURL); err != nil {
			return nil, err
		}
		return twitterProfile{Username: handle, URL: profileURL, Exists: true}, nil
	})
	if err != nil {
		return fmt.Errorf("twitter profile %s: %w", handle, err)
	}

	if profile.Exists {
		candidate.DataSources = appendSource(candidate.DataSources, "twitter")
	}
	return nil
}

var websiteTitleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

type websiteData struct {
	Title string `json:"title"`
}

func (c *Collector) attachWebsite(ctx context.Context, candidate *sourcing.Candidate) error {
	var site websiteData
	err := c.cache.Lookup(ctx, cache.CategoryWebsiteData, candidate.Website, &site, func(ctx context.Context) (any, error) {
		page, err := c.getPage(ctx, candidate.Website)
		if err != nil {
			return nil, err
		}
		data := websiteData{}
		if m := websiteTitleRe.FindStringSubmatch(page); m != nil {
			data.Title = strings.Join(strings.Fields(m[1]), " ")
		}
		return data, nil
	})
	if err != nil {
		return fmt.Errorf("website %s: %w", candidate.Website, err)
	}

	candidate.DataSources = appendSource(candidate.DataSources, "website")
	return nil
}

func (c *Collector) getJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.get(ctx, rawURL, "application/vnd.github+json")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Collector) getPage(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, "text/html")
	return string(body), err
}

func (c *Collector) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
}

// guessGitHubUsername derives a username candidate from the profile slug.
// Pure heuristic: the result is only used for a lookup that may 404.
func guessGitHubUsername(candidate *sourcing.Candidate) string {
	idx := strings.LastIndex(candidate.LinkedInURL, "/in/")
	if idx < 0 {
		return ""
	}
	slug := strings.Trim(candidate.LinkedInURL[idx+len("/in/"):], "/")
	slug = strings.SplitN(slug, "%", 2)[0]
	if slug == "" || len(slug) > 39 {
		return ""
	}
	return slug
}

func topRepos(repos []githubRepo) []sourcing.Repo {
	filtered := repos[:0:0]
	for _, repo := range repos {
		if !repo.Fork {
			filtered = append(filtered, repo)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Stars > filtered[j].Stars
	})
	if len(filtered) > maxRepos {
		filtered = filtered[:maxRepos]
	}

	out := make([]sourcing.Repo, 0, len(filtered))
	for _, repo := range filtered {
		out = append(out, sourcing.Repo{
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			Topics:      repo.Topics,
		})
	}
	return out
}

func repoLanguages(repos []sourcing.Repo) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, repo := range repos {
		if repo.Language != "" && !seen[repo.Language] {
			langs = append(langs, repo.Language)
			seen[repo.Language] = true
		}
		for _, topic := range repo.Topics {
			if !seen[topic] {
				langs = append(langs, topic)
				seen[topic] = true
			}
		}
	}
	return langs
}

func mergeSkills(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range extra {
		if !seen[strings.ToLower(s)] {
			existing = append(existing, s)
			seen[strings.ToLower(s)] = true
		}
	}
	return existing
}

func normalizeWebsite(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func appendSource(sources []string, source string) []string {
	if contains(sources, source) {
		return sources
	}
	return append(sources, source)
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
