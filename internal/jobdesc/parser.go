package jobdesc

import (
	"regexp"
	"strings"
)

// Job is the structured form of a plain-text job description.
type Job struct {
	Title       string
	Company     string
	Location    string
	Skills      []string
	Description string
}

// Ordered from most to least specific so "Machine Learning Engineer" wins
// over "Engineer".
var knownTitles = []string{
	"Software Engineer, ML Research", "Machine Learning Engineer", "ML Engineer",
	"AI Engineer", "Research Engineer", "Backend Engineer", "Frontend Engineer",
	"Full Stack Engineer", "Data Scientist", "DevOps Engineer", "Product Manager",
	"Research Scientist", "Applied Scientist", "Principal Engineer",
	"Staff Engineer", "Senior Engineer", "Lead Engineer", "Software Engineer",
}

var (
	companyRe  = regexp.MustCompile(`(?m)\bat\s+([A-Z][A-Za-z0-9&.\- ]{1,40}?)(?:\s+(?:is|in|seeks|we|are|looking)\b|[,.\n])`)
	locationRe = regexp.MustCompile(`(?im)^\s*location[:\s]+(.+)$`)
	remoteRe   = regexp.MustCompile(`(?i)\bremote\b`)
	skillRe    = regexp.MustCompile(`(?m)^\s*[-•*]\s*(.+)$`)
)

// Parse extracts title, company, location and skill lines from a plain-text
// job description. Best effort: fields the text does not yield stay empty,
// and the full text is always preserved in Description.
func Parse(text string) *Job {
	job := &Job{Description: strings.TrimSpace(text)}

	lower := strings.ToLower(text)
	for _, title := range knownTitles {
		if strings.Contains(lower, strings.ToLower(title)) {
			job.Title = title
			break
		}
	}

	if m := companyRe.FindStringSubmatch(text); m != nil {
		job.Company = strings.TrimSpace(m[1])
	}

	if m := locationRe.FindStringSubmatch(text); m != nil {
		job.Location = strings.TrimSpace(m[1])
	} else if remoteRe.MatchString(text) {
		job.Location = "Remote"
	}

	for _, m := range skillRe.FindAllStringSubmatch(text, -1) {
		line := strings.TrimSpace(m[1])
		if line != "" && len(line) <= 120 {
			job.Skills = append(job.Skills, line)
		}
	}

	return job
}
