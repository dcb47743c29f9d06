// Package langdetect classifies the language of job-ad text. Bibliojobs is a
// German job board, so the detector is restricted to the languages that
// actually occur in the exports instead of lingua's full model set.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter language code for text, or "" when the
// sample is too short or the detector is not confident. Values with fewer
// than six letters (plate codes, bare numbers) are never classified.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.German,
				lingua.English,
				lingua.French,
				lingua.Italian,
				lingua.Spanish,
			).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
