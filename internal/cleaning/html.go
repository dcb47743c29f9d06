package cleaning

import (
	"bytes"
	"html"
	"net/url"
	"regexp"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

var tagRe = regexp.MustCompile(`<.*?>`)

// Job ads pasted as complete HTML documents go through readability instead
// of plain tag stripping, so navigation and boilerplate fall away.
var documentMarkerRe = regexp.MustCompile(`(?i)<\s*(?:html|body|!doctype)\b`)

// baseURL anchors relative links during readability parsing. The exports
// carry no source URL, so a stable placeholder is used.
var baseURL = &url.URL{Scheme: "https", Host: "www.bibliojobs.de", Path: "/job"}

// StripMarkup removes HTML tags and decodes entities while preserving the
// original casing. Values without markup come back unchanged apart from
// surrounding whitespace.
func StripMarkup(value string) string {
	v := value
	if strings.Contains(v, "<") {
		v = tagRe.ReplaceAllString(v, "")
	}
	return strings.TrimSpace(html.UnescapeString(v))
}

func isFullDocument(value string) bool {
	return documentMarkerRe.MatchString(value)
}

// extractArticleText runs readability over a full HTML document and returns
// the main text as whitespace-collapsed paragraphs. A parse failure or empty
// result falls back to plain tag stripping.
func extractArticleText(document string) string {
	article, err := readability.FromReader(strings.NewReader(document), baseURL)
	if err != nil {
		return StripMarkup(document)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return StripMarkup(document)
	}

	text := collapseText(rendered.String())
	if text == "" {
		return StripMarkup(document)
	}
	return text
}

// collapseText normalizes line endings and collapses in-line whitespace,
// keeping paragraph breaks.
func collapseText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}
