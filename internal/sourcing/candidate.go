package sourcing

// Candidate is a sourced profile, progressively filled in by the pipeline:
// the searcher sets identity fields, the enricher adds multi-source data,
// the scorer sets FitScore and ScoreBreakdown, the outreach generator sets
// OutreachMessage.
type Candidate struct {
	Name           string `json:"name"`
	LinkedInURL    string `json:"linkedin_url"`
	Headline       string `json:"headline,omitempty"`
	CurrentCompany string `json:"current_company,omitempty"`
	Location       string `json:"location,omitempty"`

	Education  []string `json:"education,omitempty"`
	Experience []string `json:"experience,omitempty"`
	Skills     []string `json:"skills,omitempty"`

	GitHubUsername string   `json:"github_username,omitempty"`
	GitHubRepos    []Repo   `json:"github_repos,omitempty"`
	TwitterHandle  string   `json:"twitter_handle,omitempty"`
	Website        string   `json:"website,omitempty"`
	DataSources    []string `json:"data_sources,omitempty"`

	FitScore        float64            `json:"fit_score"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown,omitempty"`
	OutreachMessage string             `json:"outreach_message,omitempty"`
}

// Repo is a public repository attributed to a candidate.
type Repo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	Stars       int      `json:"stars"`
	Topics      []string `json:"topics,omitempty"`
}
