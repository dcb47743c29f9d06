package dedup

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var markupTagRe = regexp.MustCompile(`<[^>]*>`)

// Normalize canonicalizes free text for comparison: HTML entities are
// decoded, markup tags removed, letters lower-cased, and every run of
// non-alphanumeric characters collapsed into a single space. Malformed input
// degrades to a best-effort cleaned string; the function never fails.
func Normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	trimmed = html.UnescapeString(trimmed)
	if strings.ContainsRune(trimmed, '<') {
		trimmed = markupTagRe.ReplaceAllString(trimmed, " ")
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenize splits normalized text into word tokens.
func tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
