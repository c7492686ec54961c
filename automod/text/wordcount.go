// Package text implements the coarse word-counting used by quality-count
// classification. This is intentionally not NLP: the count is a proxy for
// comment effort, nothing more.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// CountWords splits the body into sentences and counts the purely alphabetic
// tokens. Numbers, links, punctuation-glued tokens and markdown noise don't
// count.
func CountWords(body string) int {
	// fold away combining marks so accented words still count as alphabetic
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(normFunc, body)
	if err != nil {
		normalized = body
	}

	count := 0
	for _, sentence := range sentenceBoundary.Split(normalized, -1) {
		for _, token := range strings.Fields(sentence) {
			if isAlphabetic(token) {
				count++
			}
		}
	}
	return count
}

func isAlphabetic(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
