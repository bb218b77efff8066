package outreach

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/sourcerer/internal/ai"
	"github.com/spigell/sourcerer/internal/sourcing"
	"github.com/spigell/sourcerer/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxMessages  = 5
	defaultMaxLogLength = 200
)

// Generator drafts personalized outreach messages for the top candidates.
// When no AI generator is configured, or a generation fails, it falls back
// to deterministic templates so a job never fails on message quality.
type Generator struct {
	generator   ai.Generator
	logger      *zap.Logger
	maxMessages int
	maxLogLen   int
}

// Config holds the outreach settings.
type Config struct {
	// MaxMessages caps how many top candidates get a message per job.
	MaxMessages int `mapstructure:"max-messages"`
	// MaxLogLength truncates prompt/response previews in debug logs.
	MaxLogLength int `mapstructure:"max-log-length"`
}

// NewGenerator builds the outreach generator. gen may be nil, which forces
// template messages.
func NewGenerator(gen ai.Generator, cfg *Config, logger *zap.Logger) *Generator {
	maxMessages := defaultMaxMessages
	maxLogLen := defaultMaxLogLength
	if cfg != nil {
		if cfg.MaxMessages > 0 {
			maxMessages = cfg.MaxMessages
		}
		if cfg.MaxLogLength > 0 {
			maxLogLen = cfg.MaxLogLength
		}
	}

	return &Generator{
		generator:   gen,
		logger:      logger,
		maxMessages: maxMessages,
		maxLogLen:   maxLogLen,
	}
}

// GenerateMessages sets OutreachMessage on up to MaxMessages candidates from
// the front of the list (callers pass them sorted by fit score) and returns
// that slice.
func (g *Generator) GenerateMessages(ctx context.Context, candidates []*sourcing.Candidate, jobDescription, jobTitle, companyName string) []*sourcing.Candidate {
	top := candidates
	if len(top) > g.maxMessages {
		top = top[:g.maxMessages]
	}

	for _, candidate := range top {
		message, err := g.generate(ctx, candidate, jobDescription, jobTitle, companyName)
		if err != nil {
			g.logger.Warn("ai message generation failed, using template",
				zap.String("candidate", candidate.Name),
				zap.Error(err),
			)
			message = TemplateMessage(candidate, jobTitle, companyName)
		}
		candidate.OutreachMessage = message
	}

	return top
}

func (g *Generator) generate(ctx context.Context, candidate *sourcing.Candidate, jobDescription, jobTitle, companyName string) (string, error) {
	if g.generator == nil {
		return TemplateMessage(candidate, jobTitle, companyName), nil
	}

	prompt, err := buildPrompt(candidate, jobDescription, jobTitle, companyName)
	if err != nil {
		return "", err
	}

	g.logger.Debug("outreach generation request",
		zap.String("candidate", candidate.Name),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	message, err := g.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	g.logger.Debug("outreach generation response",
		zap.String("candidate", candidate.Name),
		zap.String("response_preview", utils.TruncateForLog(message, g.maxLogLen)),
	)

	return strings.TrimSpace(message), nil
}

func buildPrompt(candidate *sourcing.Candidate, jobDescription, jobTitle, companyName string) (string, error) {
	payload := map[string]any{
		"name":            candidate.Name,
		"headline":        candidate.Headline,
		"current_company": candidate.CurrentCompany,
		"location":        candidate.Location,
		"skills":          candidate.Skills,
		"fit_score":       candidate.FitScore,
		"score_breakdown": candidate.ScoreBreakdown,
	}

	candidateJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CANDIDATE_JSON}}", string(candidateJSON))
	prompt = strings.ReplaceAll(prompt, "{{JOB_TITLE}}", orDefault(jobTitle, "an open position"))
	prompt = strings.ReplaceAll(prompt, "{{COMPANY_NAME}}", orDefault(companyName, "our company"))
	prompt = strings.ReplaceAll(prompt, "{{JOB_DESCRIPTION}}", jobDescription)
	return prompt, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
