package sourcing

import "time"

// DefaultMaxCandidates applies when a request does not say how many
// candidates to source.
const DefaultMaxCandidates = 20

// JobRequest describes one sourcing job. JobID uniqueness is the caller's
// responsibility; the batch pool does not deduplicate.
type JobRequest struct {
	JobID          string    `json:"job_id"`
	JobDescription string    `json:"job_description"`
	CompanyName    string    `json:"company_name,omitempty"`
	PositionTitle  string    `json:"position_title,omitempty"`
	Location       string    `json:"location,omitempty"`
	MaxCandidates  int       `json:"max_candidates"`
	Priority       int       `json:"priority"`
	CreatedAt      time.Time `json:"created_at"`
}

// Normalize fills in defaults for optional fields.
func (r *JobRequest) Normalize() {
	if r.MaxCandidates <= 0 {
		r.MaxCandidates = DefaultMaxCandidates
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
}

// JobResult is the outcome of one JobRequest, produced by exactly one worker
// and immutable afterwards. Exactly one of Report and Error is set.
type JobResult struct {
	JobID           string        `json:"job_id"`
	Success         bool          `json:"success"`
	Report          *Report       `json:"result,omitempty"`
	Error           string        `json:"error,omitempty"`
	ProcessingTime  time.Duration `json:"processing_time"`
	CandidatesFound int           `json:"candidates_found"`
	CompletedAt     time.Time     `json:"completed_at"`
}

// Report is the successful payload of a sourcing job.
type Report struct {
	JobID           string       `json:"job_id"`
	CandidatesFound int          `json:"candidates_found"`
	TopCandidates   []*Candidate `json:"top_candidates"`
}
