// Package musiclink resolves foreign music provider links to descriptive
// track metadata used for cross-service search.
package musiclink

import (
	"context"
)

// TrackInfo holds the descriptive text fetched for a link: enough to run a
// confidence-gated search against the target music service.
type TrackInfo struct {
	Title  string
	Artist string
}

// Resolver fetches track metadata for links of one provider.
type Resolver interface {
	// Resolve extracts track information for a provider URL. Links that do not
	// reference a single playable track (playlists, bare albums) are errors.
	Resolve(ctx context.Context, url string) (*TrackInfo, error)

	// CanResolve checks if this resolver handles the given URL.
	CanResolve(url string) bool
}
