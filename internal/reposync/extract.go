// Package reposync discovers and clones the source repository that a
// documentation artifact points at.
package reposync

import (
	"regexp"
	"strings"
)

// headLines bounds how far into a document the URL scan looks.
// Repository references live in the header material Context7 puts at
// the top; scanning further mostly finds URLs quoted inside snippets.
const headLines = 50

var repoURLRes = []*regexp.Regexp{
	regexp.MustCompile(`https://github\.com/([^/\s]+/[^/\s]+)`),
	regexp.MustCompile(`SOURCE:\s*https://github\.com/([^/\s]+/[^/\s]+)`),
	regexp.MustCompile(`github\.com/([^/\s]+/[^/\s]+)`),
}

// ExtractRepoURL scans the first lines of a document for a GitHub
// repository reference and returns it in canonical https form, or ""
// when none is found.
func ExtractRepoURL(doc string) string {
	lines := strings.SplitN(doc, "\n", headLines+1)
	if len(lines) > headLines {
		lines = lines[:headLines]
	}
	head := strings.Join(lines, "\n")

	for _, re := range repoURLRes {
		m := re.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		repo := strings.TrimSuffix(m[1], ".git")
		return "https://github.com/" + repo
	}
	return ""
}
