package search

import (
	"regexp"
	"strings"
)

var profileURLPattern = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/in/[a-zA-Z0-9\-_%]+`)

// ExtractProfileURLs returns the profile URLs found in text, normalised and
// de-duplicated in first-seen order.
func ExtractProfileURLs(text string) []string {
	matches := profileURLPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		normalized := normalize(match)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func normalize(raw string) string {
	raw = strings.TrimRight(raw, "/")
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
