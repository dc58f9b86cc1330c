// Package normalize canonicalizes user-supplied identifiers before they
// hit the store, so uniqueness constraints compare like with like.
package normalize

import "strings"

// Tag returns the canonical form of a tag name: surrounding whitespace
// trimmed and the result lowercased. An empty result means the input was
// blank and should be dropped by the caller.
func Tag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Tags canonicalizes a list of tag names, dropping blanks and duplicates
// while preserving first-seen order.
func Tags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := Tag(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Email returns the canonical form of an email address used for storage
// and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
