// Package fuzzy provides text normalization and containment matching for
// confidence-gated cross-service track search.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex        = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	versionRegex     = regexp.MustCompile(`(?i)\s*[\(\[]\s*(remaster|remastered|remix|deluxe|extended|radio edit|live|acoustic|clean|explicit)[^\)\]]*[\)\]]\s*`)
	dashVersionRegex = regexp.MustCompile(`(?i)\s+-\s+(remaster|remastered|remix|deluxe|extended|radio edit|live|acoustic|single version|mono|stereo).*$`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeTitle strips featuring credits and edition suffixes before the
// basic normalization, so "Song (feat. X) [Remastered]" and "Song" compare equal.
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featRegex.ReplaceAllString(title, " ")
	title = versionRegex.ReplaceAllString(title, " ")
	title = dashVersionRegex.ReplaceAllString(title, " ")
	return n.basicNormalize(title)
}

func (n *Normalizer) NormalizeArtist(artist string) string {
	return n.basicNormalize(artist)
}

// basicNormalize lowercases, strips diacritics and punctuation and collapses
// whitespace, turning both sides of a comparison into plain word sequences.
func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.ToLower(strings.TrimSpace(text))
}

// TitlesMatch reports whether two raw titles match after normalization:
// exact equality or one containing the other.
func (n *Normalizer) TitlesMatch(a, b string) bool {
	return containsMatch(n.NormalizeTitle(a), n.NormalizeTitle(b))
}

// TitlesEqual reports strict normalized equality, the stricter gate used when
// no artist name is available to cross-check a search result.
func (n *Normalizer) TitlesEqual(a, b string) bool {
	na, nb := n.NormalizeTitle(a), n.NormalizeTitle(b)
	return na != "" && na == nb
}

// ArtistsOverlap reports whether any candidate artist name matches the source
// artist by the same containment rule used for titles.
func (n *Normalizer) ArtistsOverlap(sourceArtist string, candidates []string) bool {
	src := n.NormalizeArtist(sourceArtist)
	for _, candidate := range candidates {
		if containsMatch(src, n.NormalizeArtist(candidate)) {
			return true
		}
	}
	return false
}

func containsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
