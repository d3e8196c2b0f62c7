package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	reHeaderNoise = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// NormalizeText is the form used for keyword scans: NFC, trimmed, lower case.
func NormalizeText(input string) string {
	s := norm.NFC.String(strings.TrimSpace(input))
	return cases.Lower(language.German).String(s)
}

// EmbeddingKey is the cache key for an embedding request. It is the text as
// given: "Beton" and " beton" are different keys.
func EmbeddingKey(input string) string {
	return input
}

// EmbeddingInput is what is sent to the provider. Empty means nothing to embed.
func EmbeddingInput(input string) string {
	return strings.TrimSpace(input)
}

// NormalizeHeader folds a column header for tolerant lookups:
// "Artikel-Nummer", "artikel nummer" and "ARTIKEL_NUMMER" are the same key.
func NormalizeHeader(input string) string {
	s := NormalizeText(input)
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	s = reHeaderNoise.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContainsAny reports whether any keyword is a substring of text.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func FloatPtr(v float64) *float64 { return &v }
