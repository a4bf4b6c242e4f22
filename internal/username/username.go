// Package username derives candidate profile slugs from a person's name.
package username

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Patterns returns the raw candidates for name in generation order, before
// dot normalisation and de-duplication. Generate is what callers normally want.
func Patterns(name string) []string {
	tokens := tokenize(name)
	if len(tokens) < 2 {
		if len(tokens) == 0 {
			return nil
		}
		return []string{strings.Join(tokens, "-")}
	}

	first := tokens[0]
	last := tokens[len(tokens)-1]
	middle := ""
	if len(tokens) > 2 {
		middle = tokens[1]
	}

	raw := []string{
		first + last,
		first + "-" + last,
		first + last[:1],
		first[:1] + last,
		first + "." + last,
	}
	if middle != "" {
		raw = append(raw, first+"-"+middle[:1]+"-"+last)
	}
	return raw
}

// Generate returns the de-duplicated candidate usernames for name. Every entry
// matches [a-z0-9-]+ and the list never exceeds six entries.
func Generate(name string) []string {
	raw := Patterns(name)
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, candidate := range raw {
		candidate = strings.ReplaceAll(candidate, ".", "-")
		candidate = strings.Trim(candidate, "-")
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// tokenize lower-cases name, folds diacritics (é → e), keeps ASCII letters,
// digits and hyphens, and splits on whitespace. Letters with no ASCII base
// form are dropped.
func tokenize(name string) []string {
	var b strings.Builder
	for _, r := range foldDiacritics(strings.ToLower(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	tokens := fields[:0]
	for _, field := range fields {
		field = strings.Trim(field, "-")
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// foldDiacritics strips combining marks after canonical decomposition. The
// chain is stateful, so one is built per call.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
