package linkedin

import (
	"html"
	"regexp"
	"strings"

	"github.com/spigell/sourcerer/internal/sourcing"
)

var (
	profileLinkRe = regexp.MustCompile(`https?://[a-z]{0,3}\.?linkedin\.com/in/([A-Za-z0-9_%\-]+)`)

	// Search result titles usually look like "Jane Doe - Staff Engineer -
	// Acme | LinkedIn".
	resultTitleRe = regexp.MustCompile(`<h3[^>]*>(.*?)</h3>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)

	titleSuffixes = []string{" | LinkedIn", " - LinkedIn", " – LinkedIn"}

	// Profile page heuristics. These depend entirely on the external
	// site's markup and are expected to degrade, never to break callers.
	headlineRe = regexp.MustCompile(`(?i)<h2[^>]*headline[^>]*>(.*?)</h2>`)
	metaDescRe = regexp.MustCompile(`(?i)<meta\s+name="description"\s+content="([^"]*)"`)
	sectionRe  = regexp.MustCompile(`(?is)<section[^>]*data-section="(education|experience|skills)"[^>]*>(.*?)</section>`)
	itemRe     = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	twitterRe  = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})\b`)
)

// parseSearchResults extracts candidates from a search results page: one per
// distinct profile URL, with name/headline/company pulled from the result
// title when it follows the usual "Name - Headline - Company" shape.
func parseSearchResults(page string) []*sourcing.Candidate {
	seen := make(map[string]bool)
	var candidates []*sourcing.Candidate

	titles := resultTitleRe.FindAllStringSubmatch(page, -1)
	titleIdx := 0

	for _, match := range profileLinkRe.FindAllStringSubmatch(page, -1) {
		profileURL := "https://www.linkedin.com/in/" + match[1]
		if seen[profileURL] {
			continue
		}
		seen[profileURL] = true

		candidate := &sourcing.Candidate{LinkedInURL: profileURL}
		if titleIdx < len(titles) {
			applyResultTitle(candidate, stripTags(titles[titleIdx][1]))
			titleIdx++
		}
		if candidate.Name == "" {
			candidate.Name = nameFromSlug(match[1])
		}

		candidates = append(candidates, candidate)
	}
	return candidates
}

func applyResultTitle(candidate *sourcing.Candidate, title string) {
	for _, suffix := range titleSuffixes {
		if idx := strings.Index(title, suffix); idx >= 0 {
			title = title[:idx]
		}
	}

	parts := strings.Split(title, " - ")
	if len(parts) > 0 {
		candidate.Name = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		candidate.Headline = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		candidate.CurrentCompany = strings.TrimSpace(parts[2])
	}
}

// applyProfilePage fills candidate fields from a public profile page.
func applyProfilePage(candidate *sourcing.Candidate, page string) {
	if candidate.Headline == "" {
		if m := headlineRe.FindStringSubmatch(page); m != nil {
			candidate.Headline = cleanText(m[1])
		}
	}

	if m := metaDescRe.FindStringSubmatch(page); m != nil {
		desc := cleanText(m[1])
		if candidate.Headline == "" {
			candidate.Headline = desc
		}
		if candidate.Location == "" {
			if loc := locationFromDescription(desc); loc != "" {
				candidate.Location = loc
			}
		}
	}

	if candidate.TwitterHandle == "" {
		if m := twitterRe.FindStringSubmatch(page); m != nil {
			candidate.TwitterHandle = m[1]
		}
	}

	for _, section := range sectionRe.FindAllStringSubmatch(page, -1) {
		items := extractItems(section[2])
		switch section[1] {
		case "education":
			candidate.Education = mergeUnique(candidate.Education, items)
		case "experience":
			candidate.Experience = mergeUnique(candidate.Experience, items)
		case "skills":
			candidate.Skills = mergeUnique(candidate.Skills, items)
		}
	}
}

func extractItems(block string) []string {
	var items []string
	for _, m := range itemRe.FindAllStringSubmatch(block, -1) {
		if text := cleanText(m[1]); text != "" {
			items = append(items, text)
		}
	}
	return items
}

// locationFromDescription looks for "Location: City, Region" fragments that
// public profile descriptions often carry.
func locationFromDescription(desc string) string {
	const marker = "Location: "
	idx := strings.Index(desc, marker)
	if idx < 0 {
		return ""
	}
	loc := desc[idx+len(marker):]
	if end := strings.IndexAny(loc, ".·|"); end >= 0 {
		loc = loc[:end]
	}
	return strings.TrimSpace(loc)
}

func nameFromSlug(slug string) string {
	slug = strings.SplitN(slug, "%", 2)[0]
	parts := strings.Split(slug, "-")

	var words []string
	for _, part := range parts {
		if part == "" || strings.IndexFunc(part, isDigit) >= 0 {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(words, " ")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(stripTags(s))), " ")
}

func mergeUnique(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[strings.ToLower(item)] = true
	}
	for _, item := range extra {
		if !seen[strings.ToLower(item)] {
			existing = append(existing, item)
			seen[strings.ToLower(item)] = true
		}
	}
	return existing
}
