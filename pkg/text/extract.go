// Package text provides music link extraction from exported chat text.
// It depends on nothing else in the module so any caller can consume it.
package text

import (
	"regexp"
	"sort"
	"strings"
)

type Provider int

const (
	// ProviderSpotify marks a native Spotify track link
	ProviderSpotify Provider = iota
	// ProviderAppleMusic marks an Apple Music link
	ProviderAppleMusic
)

// Link is one music link found in the chat text, tagged by provider.
type Link struct {
	Provider Provider
	URL      string
}

var (
	// Query strings are deliberately excluded so share-tracking params do not
	// make the same track look like two different links.
	spotifyTrackURLRegex = regexp.MustCompile(`https?://open\.spotify\.com/track/[a-zA-Z0-9]+`)
	appleMusicURLRegex   = regexp.MustCompile(`https?://(?:music|itunes)\.apple\.com/[^\s]+`)
)

type match struct {
	start    int
	provider Provider
	url      string
}

// Extract scans chat text line by line and returns every music link in order
// of first appearance: top to bottom, left to right within a line. A URL is
// kept only on its first exact textual occurrence across the whole document.
// Pure function, no side effects.
func Extract(chatText string) []Link {
	var links []Link
	seen := make(map[string]struct{})

	for _, line := range strings.Split(chatText, "\n") {
		for _, m := range matchLine(line) {
			if _, dup := seen[m.url]; dup {
				continue
			}
			seen[m.url] = struct{}{}
			links = append(links, Link{Provider: m.provider, URL: m.url})
		}
	}

	return links
}

// matchLine finds all provider URLs in one line, ordered by start offset so
// that links from different providers interleave in their textual order.
func matchLine(line string) []match {
	var matches []match

	for _, loc := range spotifyTrackURLRegex.FindAllStringIndex(line, -1) {
		matches = append(matches, match{
			start:    loc[0],
			provider: ProviderSpotify,
			url:      trimTrailingPunct(line[loc[0]:loc[1]]),
		})
	}
	for _, loc := range appleMusicURLRegex.FindAllStringIndex(line, -1) {
		matches = append(matches, match{
			start:    loc[0],
			provider: ProviderAppleMusic,
			url:      trimTrailingPunct(line[loc[0]:loc[1]]),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	return matches
}

// trimTrailingPunct strips sentence punctuation glued to the end of a URL.
func trimTrailingPunct(url string) string {
	return strings.TrimRight(url, ".,!?;)")
}
