package outreach

import (
	"fmt"
	"strings"

	"github.com/spigell/sourcerer/internal/sourcing"
)

// TemplateMessage builds a deterministic outreach message, tiered by fit
// score. It is the fallback whenever AI generation is unavailable.
func TemplateMessage(candidate *sourcing.Candidate, jobTitle, companyName string) string {
	name := FirstName(candidate.Name)
	jobTitle = orDefault(jobTitle, "an open position")
	companyName = orDefault(companyName, "our company")

	role := candidate.Headline
	if role == "" {
		role = "your current role"
	}

	switch {
	case candidate.FitScore >= 8:
		return fmt.Sprintf(`Hi %s,

I came across your profile and was impressed by your work as %s%s. Your background aligns closely with a %s opportunity I'm recruiting for at %s.

Would you be open to a brief conversation about this role? I'd love to share more details and see if it might be a good fit for your career goals.

Best regards`, name, role, atCompany(candidate), jobTitle, companyName)

	case candidate.FitScore >= 6:
		return fmt.Sprintf(`Hi %s,

I noticed your experience as %s and thought you might be interested in a %s opportunity I'm working on at %s. Would you be open to learning more about this role?

Best regards`, name, role, jobTitle, companyName)

	default:
		return fmt.Sprintf(`Hi %s,

I'm reaching out about a %s opportunity at %s that might be of interest given your background. Would you be open to a quick chat about this role?

Best regards`, name, jobTitle, companyName)
	}
}

func atCompany(candidate *sourcing.Candidate) string {
	if candidate.CurrentCompany == "" {
		return ""
	}
	return " at " + candidate.CurrentCompany
}

// FirstName extracts a usable first name, dropping the decorations search
// result titles tend to carry.
func FirstName(name string) string {
	for _, suffix := range []string{" | LinkedIn", " - LinkedIn", " (@", " •"} {
		if idx := strings.Index(name, suffix); idx >= 0 {
			name = name[:idx]
		}
	}

	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
