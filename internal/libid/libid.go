// Package libid converts Context7 library identifiers into stable,
// filesystem-safe base names and back.
//
// Identifiers look like "/gradio-app/gradio" or
// "/vercel/next.js/v15.1.8". The base name for an identifier is derived
// by stripping the leading slash and replacing every character outside
// [A-Za-z0-9.] with an underscore, so "/gradio-app/gradio" becomes
// "gradio_app_gradio". The mapping is deterministic and idempotent:
// normalizing a base name yields the same base name.
package libid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
)

// Suffix is the file extension for stored documentation artifacts.
const Suffix = ".md"

var underscoreRun = regexp.MustCompile(`_{2,}`)

// Normalize derives the filesystem base name for a library identifier.
// It returns apperr.ErrInvalidIdentifier when nothing usable remains
// after normalization.
func Normalize(id string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(id), "/")
	if trimmed == "" {
		return "", fmt.Errorf("libid: normalize %q: %w", id, apperr.ErrInvalidIdentifier)
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	base := underscoreRun.ReplaceAllString(b.String(), "_")
	base = strings.Trim(base, "_.")
	if base == "" {
		return "", fmt.Errorf("libid: normalize %q: %w", id, apperr.ErrInvalidIdentifier)
	}
	return base, nil
}

// Display returns the canonical display form of an identifier: trimmed,
// with exactly one leading slash. The empty identifier maps to "".
func Display(id string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(id), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// FileName returns the document file name for a base name.
func FileName(base string) string {
	return base + Suffix
}

// FromFileName reconstructs an approximate library identifier from a
// document file name, for documents that never had an index row. The
// reconstruction assumes every underscore was a path separator, so it
// is lossy for identifiers that contained hyphens.
func FromFileName(name string) string {
	base := strings.TrimSuffix(name, Suffix)
	if base == "" {
		return ""
	}
	return "/" + strings.ReplaceAll(base, "_", "/")
}
