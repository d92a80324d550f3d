package core

import (
	"context"

	"vibesync/pkg/musiclink"
)

// appleMusicAdapter adapts pkg/musiclink.AppleMusicResolver to core.MusicLinkResolver.
type appleMusicAdapter struct {
	resolver *musiclink.AppleMusicResolver
}

// NewAppleMusicAdapter creates the foreign-link resolver for Apple Music URLs.
func NewAppleMusicAdapter() MusicLinkResolver {
	return &appleMusicAdapter{
		resolver: musiclink.NewAppleMusicResolver(),
	}
}

// Resolve resolves an Apple Music link to track information.
func (a *appleMusicAdapter) Resolve(ctx context.Context, url string) (*MusicLinkTrackInfo, error) {
	info, err := a.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	return &MusicLinkTrackInfo{
		Title:  info.Title,
		Artist: info.Artist,
	}, nil
}

// CanResolve checks if the URL is an Apple Music link.
func (a *appleMusicAdapter) CanResolve(url string) bool {
	return a.resolver.CanResolve(url)
}
