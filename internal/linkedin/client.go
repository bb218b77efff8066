package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spigell/sourcerer/internal/sourcing"

	"go.uber.org/zap"
)

const (
	searchURL = "https://www.google.com/search"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxReadBytes = 2 << 20
)

// Client discovers LinkedIn profiles through public search pages and
// extracts profile fields from the pages themselves. Everything here is
// scraping heuristics over a frequently-changing external site; callers must
// treat results as best effort.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	SearchURL  string
}

func New(logger *zap.Logger) *Client {
	return &Client{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		UserAgent: userAgent,
		SearchURL: searchURL,
	}
}

// SearchProfiles runs an x-ray search for public profiles matching the query
// and returns deduplicated candidates, at most max.
func (c *Client) SearchProfiles(ctx context.Context, query string, max int) ([]*sourcing.Candidate, error) {
	if max <= 0 {
		max = sourcing.DefaultMaxCandidates
	}

	xray := BuildXRayQuery(query)
	c.logger.Debug("profile search", zap.String("query", xray))

	page, err := c.fetch(ctx, c.SearchURL+"?num=30&q="+url.QueryEscape(xray))
	if err != nil {
		return nil, fmt.Errorf("profile search: %w", err)
	}

	candidates := parseSearchResults(page)
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	c.logger.Info("profile search finished",
		zap.Int("found", len(candidates)),
		zap.Int("max", max),
	)
	return candidates, nil
}

// EnrichProfile fills in headline, company, location, education, experience
// and skills from the candidate's public profile page. Missing sections are
// left as they are; extraction failures on individual fields are not errors.
func (c *Client) EnrichProfile(ctx context.Context, candidate *sourcing.Candidate) error {
	if candidate.LinkedInURL == "" {
		return fmt.Errorf("candidate %q has no profile url", candidate.Name)
	}

	page, err := c.fetch(ctx, candidate.LinkedInURL)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}

	applyProfilePage(candidate, page)
	return nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BuildXRayQuery turns a free-form query into a site-restricted profile
// search.
func BuildXRayQuery(query string) string {
	terms := make([]string, 0, 4)
	for _, term := range strings.Fields(query) {
		terms = append(terms, term)
		if len(terms) == 8 {
			break
		}
	}
	return `site:linkedin.com/in/ ` + strings.Join(terms, " ")
}
