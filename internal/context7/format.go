package context7

import (
	"fmt"
	"strings"
)

const noResultsMessage = "No documentation libraries found matching your query."

// FormatSearchResults renders a search response as the plain-text list
// shown by the CLI and embedded in tool replies. Fields the API did
// not provide are left out; scores are translated into the coarse
// reputation label rather than a raw number.
func FormatSearchResults(sr *SearchResponse) string {
	if sr == nil || len(sr.Results) == 0 {
		return noResultsMessage
	}

	blocks := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		lines := []string{
			"- Title: " + orNA(r.Title),
			"- Context7-compatible library ID: " + orNA(r.ID),
			"- Description: " + orNA(r.Description),
		}
		if r.TotalSnippets != nil && *r.TotalSnippets >= 0 {
			lines = append(lines, fmt.Sprintf("- Code Snippets: %d", *r.TotalSnippets))
		}
		if r.TrustScore != nil && *r.TrustScore >= 0 {
			lines = append(lines, "- Source Reputation: "+reputation(*r.TrustScore))
		}
		if r.BenchmarkScore != nil && *r.BenchmarkScore > 0 {
			lines = append(lines, fmt.Sprintf("- Benchmark Score: %.1f", *r.BenchmarkScore))
		}
		if len(r.Versions) > 0 {
			lines = append(lines, "- Versions: "+strings.Join(r.Versions, ", "))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n----------\n")
}

// reputation coarsens a trust score into a label that is easier to
// compare across libraries than the raw number.
func reputation(score float64) string {
	switch {
	case score >= 7:
		return "High"
	case score >= 4:
		return "Medium"
	default:
		return "Low"
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
