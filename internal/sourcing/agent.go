package sourcing

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/utils"

	"go.uber.org/zap"
)

// Searcher discovers candidates and extracts their profile details.
type Searcher interface {
	SearchProfiles(ctx context.Context, query string, max int) ([]*Candidate, error)
	EnrichProfile(ctx context.Context, candidate *Candidate) error
}

// Enricher augments a candidate with data from secondary sources.
type Enricher interface {
	Enhance(ctx context.Context, candidate *Candidate) error
}

// Scorer assigns fit scores and returns candidates sorted best-first.
type Scorer interface {
	Score(candidates []*Candidate, jobDescription string) []*Candidate
}

// MessageWriter drafts outreach messages for the leading candidates and
// returns the slice it wrote messages for.
type MessageWriter interface {
	GenerateMessages(ctx context.Context, candidates []*Candidate, jobDescription, jobTitle, companyName string) []*Candidate
}

// AgentDeps aggregates the pipeline collaborators.
type AgentDeps struct {
	Searcher Searcher
	Enricher Enricher
	Scorer   Scorer
	Messages MessageWriter
	Cache    *cache.SmartCache
	Logger   *zap.Logger
}

// AgentConfig holds per-pipeline settings.
type AgentConfig struct {
	// RequestDelay is the pause between consecutive profile fetches, to
	// stay polite towards rate-limited upstreams.
	RequestDelay time.Duration `mapstructure:"request-delay"`
}

// Agent runs the sourcing pipeline for one job: search, profile extraction,
// multi-source enrichment, scoring, outreach drafting. Every expensive
// lookup goes through the cache first.
type Agent struct {
	deps  *AgentDeps
	delay time.Duration
}

func NewAgent(cfg *AgentConfig, deps *AgentDeps) *Agent {
	delay := 2 * time.Second
	if cfg != nil && cfg.RequestDelay > 0 {
		delay = cfg.RequestDelay
	}
	return &Agent{deps: deps, delay: delay}
}

// Process executes the full pipeline for req and returns a Report with the
// top candidates. An error fails the whole job; per-candidate extraction
// failures only degrade that candidate.
func (a *Agent) Process(ctx context.Context, req *JobRequest) (*Report, error) {
	logger := a.deps.Logger.With(zap.String("job_id", req.JobID))

	candidates, err := a.search(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Report{JobID: req.JobID}, nil
	}

	logger.Info("extracting profile details", zap.Int("candidates", len(candidates)))

	for i, candidate := range candidates {
		if err := a.extractProfile(ctx, candidate); err != nil {
			logger.Warn("profile extraction failed",
				zap.String("candidate", candidate.Name),
				zap.Error(err),
			)
		}

		if err := a.deps.Enricher.Enhance(ctx, candidate); err != nil {
			logger.Warn("multi-source enhancement failed",
				zap.String("candidate", candidate.Name),
				zap.Error(err),
			)
		}

		if i < len(candidates)-1 {
			if err := utils.WaitFor(ctx, a.delay); err != nil {
				return nil, err
			}
		}
	}

	scored := a.deps.Scorer.Score(candidates, req.JobDescription)

	top := a.deps.Messages.GenerateMessages(ctx, scored, req.JobDescription, req.PositionTitle, req.CompanyName)

	logger.Info("pipeline finished",
		zap.Int("candidates_found", len(candidates)),
		zap.Int("messages_generated", len(top)),
	)

	return &Report{
		JobID:           req.JobID,
		CandidatesFound: len(candidates),
		TopCandidates:   top,
	}, nil
}

// search returns candidates for the request, via the search-results cache
// when a recent identical search exists.
func (a *Agent) search(ctx context.Context, req *JobRequest, logger *zap.Logger) ([]*Candidate, error) {
	query := searchQuery(req)

	var candidates []*Candidate
	if a.deps.Cache.Get(cache.CategorySearchResults, query, &candidates) {
		logger.Info("using cached search results", zap.Int("candidates", len(candidates)))
		return candidates, nil
	}

	candidates, err := a.deps.Searcher.SearchProfiles(ctx, query, req.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}

	a.deps.Cache.Set(cache.CategorySearchResults, query, candidates)
	return candidates, nil
}

// extractProfile fills the candidate from its profile page, via the profile
// cache. Concurrent jobs hitting the same profile share one fetch.
func (a *Agent) extractProfile(ctx context.Context, candidate *Candidate) error {
	return a.deps.Cache.Lookup(ctx, cache.CategoryLinkedInProfile, candidate.LinkedInURL, candidate,
		func(ctx context.Context) (any, error) {
			if err := a.deps.Searcher.EnrichProfile(ctx, candidate); err != nil {
				return nil, err
			}
			return candidate, nil
		})
}

// searchQuery builds the cache key and search text for a request. The
// description is truncated so near-identical long postings share a key.
func searchQuery(req *JobRequest) string {
	desc := req.JobDescription
	if len(desc) > 100 {
		desc = desc[:100]
	}

	query := desc
	if req.PositionTitle != "" {
		query = req.PositionTitle + " " + query
	}
	if req.CompanyName != "" {
		query += " " + req.CompanyName
	}
	if req.Location != "" {
		query += " " + req.Location
	}
	return query
}
