package linkedin

import (
	"testing"

	"github.com/spigell/sourcerer/internal/sourcing"
)

const searchPage = `
<html><body>
<div class="result">
  <a href="https://www.linkedin.com/in/jane-doe-12345"><h3>Jane Doe - Staff Engineer - Acme | LinkedIn</h3></a>
</div>
<div class="result">
  <a href="https://uk.linkedin.com/in/john-smith"><h3>John Smith - ML Engineer | LinkedIn</h3></a>
</div>
<div class="result">
  <a href="https://www.linkedin.com/in/jane-doe-12345">duplicate link</a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	t.Parallel()

	candidates := parseSearchResults(searchPage)

	if len(candidates) != 2 {
		t.Fatalf("expected 2 deduplicated candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Name != "Jane Doe" {
		t.Fatalf("expected name Jane Doe, got %q", first.Name)
	}
	if first.Headline != "Staff Engineer" {
		t.Fatalf("expected headline Staff Engineer, got %q", first.Headline)
	}
	if first.CurrentCompany != "Acme" {
		t.Fatalf("expected company Acme, got %q", first.CurrentCompany)
	}
	if first.LinkedInURL != "https://www.linkedin.com/in/jane-doe-12345" {
		t.Fatalf("unexpected profile url %q", first.LinkedInURL)
	}

	second := candidates[1]
	if second.Name != "John Smith" || second.Headline != "ML Engineer" {
		t.Fatalf("unexpected second candidate: %+v", second)
	}
	if second.LinkedInURL != "https://www.linkedin.com/in/john-smith" {
		t.Fatalf("expected regional domain to normalize, got %q", second.LinkedInURL)
	}
}

func TestParseSearchResultsFallsBackToSlugName(t *testing.T) {
	t.Parallel()

	page := `<a href="https://www.linkedin.com/in/maria-garcia-lopez">profile</a>`

	candidates := parseSearchResults(page)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Name != "Maria Garcia Lopez" {
		t.Fatalf("expected name from slug, got %q", candidates[0].Name)
	}
}

const profilePage = `
<html><head>
<meta name="description" content="Jane Doe - Staff Engineer at Acme. Location: Berlin, Germany. 500+ connections.">
</head><body>
<h2 class="top-card__headline">Staff Software Engineer</h2>
<section data-section="education"><ul>
  <li>MIT, BSc Computer Science</li>
  <li>Stanford, MSc</li>
</ul></section>
<section data-section="experience"><ul>
  <li>Staff Engineer at Acme</li>
  <li>Senior Engineer at Stripe</li>
</ul></section>
<section data-section="skills"><ul>
  <li>Go</li>
  <li>Kubernetes</li>
  <li>Go</li>
</ul></section>
<a href="https://twitter.com/janedoe_dev">Twitter</a>
</body></html>`

func TestApplyProfilePage(t *testing.T) {
	t.Parallel()

	candidate := &sourcing.Candidate{LinkedInURL: "https://www.linkedin.com/in/jane-doe"}
	applyProfilePage(candidate, profilePage)

	if candidate.Headline != "Staff Software Engineer" {
		t.Fatalf("expected headline from page, got %q", candidate.Headline)
	}
	if candidate.Location != "Berlin, Germany" {
		t.Fatalf("expected location from description, got %q", candidate.Location)
	}
	if len(candidate.Education) != 2 {
		t.Fatalf("expected 2 education entries, got %v", candidate.Education)
	}
	if len(candidate.Experience) != 2 {
		t.Fatalf("expected 2 experience entries, got %v", candidate.Experience)
	}
	if len(candidate.Skills) != 2 {
		t.Fatalf("expected duplicate skills to merge, got %v", candidate.Skills)
	}
	if candidate.TwitterHandle != "janedoe_dev" {
		t.Fatalf("expected twitter handle from linked profile, got %q", candidate.TwitterHandle)
	}
}

func TestApplyProfilePageExtractsTwitterHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		page   string
		expect string
	}{
		{
			name:   "twitter.com link",
			page:   `<a href="https://twitter.com/janedoe_dev">follow me</a>`,
			expect: "janedoe_dev",
		},
		{
			name:   "x.com link",
			page:   `<a href="https://x.com/JaneDoe">profile</a>`,
			expect: "JaneDoe",
		},
		{
			name:   "www prefix",
			page:   `see http://www.twitter.com/jane_d for updates`,
			expect: "jane_d",
		},
		{
			name:   "no link",
			page:   `<p>no social links here</p>`,
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			candidate := &sourcing.Candidate{}
			applyProfilePage(candidate, tt.page)
			if candidate.TwitterHandle != tt.expect {
				t.Fatalf("expected handle %q, got %q", tt.expect, candidate.TwitterHandle)
			}
		})
	}
}

func TestApplyProfilePageKeepsExistingTwitterHandle(t *testing.T) {
	t.Parallel()

	candidate := &sourcing.Candidate{TwitterHandle: "known_handle"}
	applyProfilePage(candidate, profilePage)

	if candidate.TwitterHandle != "known_handle" {
		t.Fatalf("expected existing handle to win, got %q", candidate.TwitterHandle)
	}
}

func TestApplyProfilePageKeepsExistingFields(t *testing.T) {
	t.Parallel()

	candidate := &sourcing.Candidate{
		Headline: "Known Headline",
		Location: "Known City",
	}
	applyProfilePage(candidate, profilePage)

	if candidate.Headline != "Known Headline" {
		t.Fatalf("expected existing headline to win, got %q", candidate.Headline)
	}
	if candidate.Location != "Known City" {
		t.Fatalf("expected existing location to win, got %q", candidate.Location)
	}
}

func TestBuildXRayQuery(t *testing.T) {
	t.Parallel()

	got := BuildXRayQuery("senior golang engineer berlin")
	want := `site:linkedin.com/in/ senior golang engineer berlin`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	long := BuildXRayQuery("a b c d e f g h i j k")
	want = `site:linkedin.com/in/ a b c d e f g h`
	if long != want {
		t.Fatalf("expected query capped at 8 terms, got %q", long)
	}
}

func TestLocationFromDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "terminated by period",
			input:  "Engineer at Acme. Location: Berlin, Germany. 500+ connections",
			expect: "Berlin, Germany",
		},
		{
			name:   "no marker",
			input:  "Engineer at Acme",
			expect: "",
		},
		{
			name:   "runs to end of string",
			input:  "Location: Remote",
			expect: "Remote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := locationFromDescription(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
