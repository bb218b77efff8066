package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/sourcerer/internal/sourcing"

	"go.uber.org/zap"
)

// Default weighting of the fit-score components. Skills matter the most;
// location and tenure the least.
var defaultWeights = map[string]float64{
	"education":  0.15,
	"trajectory": 0.20,
	"company":    0.20,
	"skills":     0.25,
	"location":   0.10,
	"tenure":     0.10,
}

var defaultEliteSchools = []string{
	"MIT", "Stanford", "Harvard", "Berkeley", "CMU", "Caltech",
	"Princeton", "Yale", "Columbia", "Cornell", "UCLA", "UCSD",
}

var defaultTopCompanies = []string{
	"Google", "Meta", "Facebook", "Apple", "Microsoft", "Amazon",
	"Netflix", "Uber", "Airbnb", "Stripe", "Palantir", "OpenAI",
	"Anthropic", "Databricks", "Snowflake", "MongoDB", "Atlassian",
}

// Config overrides the built-in scoring lists and weights.
type Config struct {
	Weights      map[string]float64 `mapstructure:"weights"`
	EliteSchools []string           `mapstructure:"elite-schools"`
	TopCompanies []string           `mapstructure:"top-companies"`
}

// Scorer assigns each candidate a weighted fit score between 0 and 10
// against a job description, plus a per-component breakdown.
type Scorer struct {
	logger       *zap.Logger
	weights      map[string]float64
	eliteSchools []string
	topCompanies []string
}

func New(cfg *Config, logger *zap.Logger) *Scorer {
	s := &Scorer{
		logger:       logger,
		weights:      defaultWeights,
		eliteSchools: defaultEliteSchools,
		topCompanies: defaultTopCompanies,
	}
	if cfg != nil {
		if len(cfg.Weights) > 0 {
			s.weights = cfg.Weights
		}
		if len(cfg.EliteSchools) > 0 {
			s.eliteSchools = cfg.EliteSchools
		}
		if len(cfg.TopCompanies) > 0 {
			s.topCompanies = cfg.TopCompanies
		}
	}
	return s
}

// Score fills FitScore and ScoreBreakdown on every candidate and returns the
// list sorted by fit score, highest first.
func (s *Scorer) Score(candidates []*sourcing.Candidate, jobDescription string) []*sourcing.Candidate {
	keywords := extractKeywords(jobDescription)

	for _, candidate := range candidates {
		breakdown := map[string]float64{
			"education":  s.scoreEducation(candidate),
			"trajectory": s.scoreTrajectory(candidate),
			"company":    s.scoreCompany(candidate),
			"skills":     s.scoreSkills(candidate, keywords),
			"location":   s.scoreLocation(candidate, jobDescription),
			"tenure":     s.scoreTenure(candidate),
		}

		total := 0.0
		for component, score := range breakdown {
			total += score * s.weights[component]
		}

		bonus := confidenceBonus(candidate)
		breakdown["confidence_bonus"] = bonus
		total += bonus

		if total > 10 {
			total = 10
		}

		candidate.FitScore = roundScore(total)
		candidate.ScoreBreakdown = breakdown
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FitScore > candidates[j].FitScore
	})
	return candidates
}

// scoreEducation rewards recognizable schools, elite ones in particular.
func (s *Scorer) scoreEducation(candidate *sourcing.Candidate) float64 {
	if len(candidate.Education) == 0 {
		return 5 // unknown, not disqualifying
	}

	score := 6.0
	for _, entry := range candidate.Education {
		lower := strings.ToLower(entry)
		for _, school := range s.eliteSchools {
			if strings.Contains(lower, strings.ToLower(school)) {
				return 9.5
			}
		}
		if strings.Contains(lower, "phd") || strings.Contains(lower, "master") {
			score = 8
		}
	}
	return score
}

// scoreTrajectory looks for growth signals in the experience history.
func (s *Scorer) scoreTrajectory(candidate *sourcing.Candidate) float64 {
	if len(candidate.Experience) == 0 {
		return 5
	}

	score := 6.0
	seniorMarkers := []string{"senior", "staff", "principal", "lead", "head of", "director", "vp", "founder"}
	for _, entry := range candidate.Experience {
		lower := strings.ToLower(entry)
		for _, marker := range seniorMarkers {
			if strings.Contains(lower, marker) {
				score = 8.5
			}
		}
	}
	if len(candidate.Experience) >= 3 {
		score += 0.5
	}
	if score > 10 {
		score = 10
	}
	return score
}

// scoreCompany rewards experience at well-known companies.
func (s *Scorer) scoreCompany(candidate *sourcing.Candidate) float64 {
	haystack := strings.ToLower(candidate.CurrentCompany + " " + strings.Join(candidate.Experience, " "))
	if strings.TrimSpace(haystack) == "" {
		return 5
	}

	for _, company := range s.topCompanies {
		if strings.Contains(haystack, strings.ToLower(company)) {
			return 9
		}
	}
	return 6
}

// scoreSkills measures keyword overlap between the job description and the
// candidate's skills, headline and repositories.
func (s *Scorer) scoreSkills(candidate *sourcing.Candidate, keywords []string) float64 {
	if len(keywords) == 0 {
		return 5
	}

	haystack := strings.ToLower(strings.Join(candidate.Skills, " ") + " " + candidate.Headline)
	for _, repo := range candidate.GitHubRepos {
		haystack += " " + strings.ToLower(repo.Language+" "+repo.Description)
	}

	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			matched++
		}
	}

	score := 3 + 7*float64(matched)/float64(len(keywords))
	if score > 10 {
		score = 10
	}
	return score
}

// scoreLocation gives full marks for an exact location mention, a middle
// score for remote-friendly signals, and a neutral score when unknown.
func (s *Scorer) scoreLocation(candidate *sourcing.Candidate, jobDescription string) float64 {
	if candidate.Location == "" {
		return 5
	}

	jobLower := strings.ToLower(jobDescription)
	if strings.Contains(jobLower, "remote") {
		return 8
	}

	city := strings.ToLower(strings.SplitN(candidate.Location, ",", 2)[0])
	if city != "" && strings.Contains(jobLower, city) {
		return 10
	}
	return 6
}

// scoreTenure approximates stability from the number of distinct positions.
func (s *Scorer) scoreTenure(candidate *sourcing.Candidate) float64 {
	switch n := len(candidate.Experience); {
	case n == 0:
		return 5
	case n <= 2:
		return 7
	case n <= 5:
		return 8
	default:
		// Many short stints read as job hopping.
		return 6
	}
}

// confidenceBonus rewards candidates corroborated by multiple sources.
func confidenceBonus(candidate *sourcing.Candidate) float64 {
	extra := 0
	for _, source := range candidate.DataSources {
		if source != "linkedin" {
			extra++
		}
	}
	bonus := 0.2 * float64(extra)
	if bonus > 0.5 {
		bonus = 0.5
	}
	return bonus
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z+#.]{2,}`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"are": true, "our": true, "will": true, "have": true, "this": true,
	"that": true, "your": true, "who": true, "what": true, "years": true,
	"experience": true, "looking": true, "knowledge": true, "strong": true,
	"skills": true, "work": true, "team": true, "role": true, "must": true,
}

// extractKeywords pulls likely skill terms out of a job description.
func extractKeywords(jobDescription string) []string {
	var keywords []string
	seen := make(map[string]bool)

	for _, word := range wordRe.FindAllString(strings.ToLower(jobDescription), -1) {
		if stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 30 {
			break
		}
	}
	return keywords
}

func roundScore(score float64) float64 {
	return float64(int(score*10+0.5)) / 10
}
