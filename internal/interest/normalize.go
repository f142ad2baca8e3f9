// Package interest canonicalizes raw client-supplied interest input into a
// comparable tag list shared by the Waiting Pool and Matcher.
package interest

import "strings"

// Random is the sentinel tag meaning "no preference." It only matches other
// clients that also declared Random — not an arbitrary interest.
const Random = "random"

// Normalize accepts either a single string (optionally comma-separated) or
// an already-split []string and returns a deduplicated, order-preserving
// list of lowercase, non-empty tags. Empty input normalizes to [Random].
//
// Normalize is pure and has no failure modes: unrecognized input types
// normalize to [Random] the same as empty input.
func Normalize(input interface{}) []string {
	var tokens []string

	switch v := input.(type) {
	case []string:
		for _, s := range v {
			t := strings.ToLower(strings.TrimSpace(s))
			if t != "" {
				tokens = append(tokens, t)
			}
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || strings.EqualFold(trimmed, Random) {
			tokens = []string{Random}
		} else {
			for _, part := range strings.Split(trimmed, ",") {
				t := strings.ToLower(strings.TrimSpace(part))
				if t != "" {
					tokens = append(tokens, t)
				}
			}
		}
	}

	tokens = dedupe(tokens)
	if len(tokens) == 0 {
		return []string{Random}
	}
	return tokens
}

// dedupe removes duplicate tags while preserving first-occurrence order.
func dedupe(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
