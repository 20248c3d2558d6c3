package context7

import (
	"strings"
	"testing"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestFormatSearchResults(t *testing.T) {
	sr := &SearchResponse{Results: []SearchResult{
		{
			ID:             "/gradio-app/gradio",
			Title:          "Gradio",
			Description:    "Build ML web apps",
			TotalSnippets:  intPtr(42),
			TrustScore:     floatPtr(9.1),
			BenchmarkScore: floatPtr(82.5),
			Versions:       []string{"4.0", "5.0"},
		},
		{
			ID:    "/minimal/lib",
			Title: "Minimal",
		},
	}}

	out := FormatSearchResults(sr)
	for _, want := range []string{
		"- Title: Gradio",
		"- Context7-compatible library ID: /gradio-app/gradio",
		"- Description: Build ML web apps",
		"- Code Snippets: 42",
		"- Source Reputation: High",
		"- Benchmark Score: 82.5",
		"- Versions: 4.0, 5.0",
		"\n----------\n",
		"- Title: Minimal",
		"- Description: n/a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Source Reputation") != 1 {
		t.Error("reputation printed for a result without a trust score")
	}
}

func TestFormatSearchResultsSkipsAbsentMarkers(t *testing.T) {
	sr := &SearchResponse{Results: []SearchResult{{
		ID:            "/a/b",
		Title:         "AB",
		TotalSnippets: intPtr(-1),
		TrustScore:    floatPtr(-1),
	}}}
	out := FormatSearchResults(sr)
	if strings.Contains(out, "Code Snippets") || strings.Contains(out, "Reputation") {
		t.Errorf("absent markers rendered:\n%s", out)
	}
}

func TestFormatSearchResultsEmpty(t *testing.T) {
	if got := FormatSearchResults(nil); got != noResultsMessage {
		t.Errorf("nil response = %q", got)
	}
	if got := FormatSearchResults(&SearchResponse{}); got != noResultsMessage {
		t.Errorf("empty response = %q", got)
	}
}

func TestReputation(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{9.5, "High"}, {7, "High"}, {6.9, "Medium"}, {4, "Medium"}, {3.9, "Low"}, {0, "Low"},
	}
	for _, tc := range cases {
		if got := reputation(tc.score); got != tc.want {
			t.Errorf("reputation(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
