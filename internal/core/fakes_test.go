package core

import (
	"context"
	"errors"
	"fmt"
)

// fakePlaylistService is an in-memory PlaylistService for engine-level tests.
type fakePlaylistService struct {
	tracks       []string
	metadata     map[string]Track
	searchResult map[string][]Track
	searchErrs   map[string]error

	// incompleteRead makes GetPlaylistTracks report a truncated snapshot.
	incompleteRead bool
	readErr        error
	// failAdds makes every AddTracks call confirm nothing.
	failAdds bool

	searchQueries []string
	addedBatches  [][]string
	removed       []string
}

func newFakePlaylistService(tracks ...string) *fakePlaylistService {
	return &fakePlaylistService{
		tracks:       tracks,
		metadata:     make(map[string]Track),
		searchResult: make(map[string][]Track),
		searchErrs:   make(map[string]error),
	}
}

func (f *fakePlaylistService) GetPlaylistTracks(_ context.Context, _ string) ([]string, bool, error) {
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	snapshot := append([]string(nil), f.tracks...)
	if f.incompleteRead {
		return snapshot, false, nil
	}
	return snapshot, true, nil
}

func (f *fakePlaylistService) AddTracks(_ context.Context, _ string, trackIDs []string) []string {
	f.addedBatches = append(f.addedBatches, trackIDs)
	if f.failAdds {
		return nil
	}
	f.tracks = append(f.tracks, trackIDs...)
	return trackIDs
}

func (f *fakePlaylistService) RemoveTracks(_ context.Context, _ string, trackIDs []string) []string {
	f.removed = append(f.removed, trackIDs...)
	drop := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		drop[id] = struct{}{}
	}
	var kept []string
	for _, id := range f.tracks {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	f.tracks = kept
	return trackIDs
}

func (f *fakePlaylistService) GetTracks(_ context.Context, trackIDs []string) []Track {
	var out []Track
	for _, id := range trackIDs {
		if track, ok := f.metadata[id]; ok {
			out = append(out, track)
		}
	}
	return out
}

func (f *fakePlaylistService) SearchTrack(_ context.Context, query string) ([]Track, error) {
	f.searchQueries = append(f.searchQueries, query)
	if err, ok := f.searchErrs[query]; ok {
		return nil, err
	}
	return f.searchResult[query], nil
}

// fakeForeignResolver serves canned metadata per URL.
type fakeForeignResolver struct {
	infos map[string]*MusicLinkTrackInfo
	errs  map[string]error
	calls int
}

func (f *fakeForeignResolver) Resolve(_ context.Context, url string) (*MusicLinkTrackInfo, error) {
	f.calls++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if info, ok := f.infos[url]; ok {
		return info, nil
	}
	return nil, errors.New("unknown link")
}

func (f *fakeForeignResolver) CanResolve(_ string) bool {
	return true
}

// fakeArchiveSource returns fixed chat text or a fixed error.
type fakeArchiveSource struct {
	chatText string
	err      error
}

func (f *fakeArchiveSource) FetchChatText(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.chatText, nil
}

// mapLinkCache is a plain map LinkCache for cache-interaction tests.
type mapLinkCache struct {
	entries map[string]string
	puts    int
}

func newMapLinkCache() *mapLinkCache {
	return &mapLinkCache{entries: make(map[string]string)}
}

func (c *mapLinkCache) Get(rawURL string) (string, bool) {
	id, ok := c.entries[rawURL]
	return id, ok
}

func (c *mapLinkCache) Put(rawURL, trackID string) {
	c.puts++
	c.entries[rawURL] = trackID
}

func (c *mapLinkCache) Len() int {
	return len(c.entries)
}

// spotifyTrackURL builds a chat-style Spotify link around a fake 22-char ID.
func spotifyTrackURL(id string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", id)
}

// fakeID pads a short marker to the 22 base62 characters of a real track ID.
func fakeID(marker string) string {
	for len(marker) < 22 {
		marker += "0"
	}
	return marker[:22]
}
