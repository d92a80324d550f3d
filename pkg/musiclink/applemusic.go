package musiclink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// iTunesLookupURL is the iTunes/Apple Music API lookup endpoint.
	iTunesLookupURL = "https://itunes.apple.com/lookup"
	// AppleMusicRequestTimeout is the timeout for Apple Music API requests.
	AppleMusicRequestTimeout = 10 * time.Second
)

// ErrNotATrack is returned for Apple Music links that reference a collection
// (playlist, album without ?i=) rather than a single playable track.
var ErrNotATrack = errors.New("link does not reference a single track.")

type iTunesLookupResponse struct {
	ResultCount int                 `json:"resultCount"`
	Results     []iTunesTrackResult `json:"results"`
}

type iTunesTrackResult struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
}

// AppleMusicResolver resolves Apple Music links via the public iTunes lookup API.
type AppleMusicResolver struct {
	client    *http.Client
	lookupURL string
}

// NewAppleMusicResolver creates a new Apple Music link resolver.
func NewAppleMusicResolver() *AppleMusicResolver {
	return &AppleMusicResolver{
		client: &http.Client{
			Timeout: AppleMusicRequestTimeout,
		},
		lookupURL: iTunesLookupURL,
	}
}

// CanResolve checks if the URL is an Apple Music link.
func (r *AppleMusicResolver) CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	// Support both music.apple.com and legacy itunes.apple.com.
	return hostname == "music.apple.com" || hostname == "itunes.apple.com"
}

// Resolve extracts track title and artist for an Apple Music URL.
func (r *AppleMusicResolver) Resolve(ctx context.Context, rawURL string) (*TrackInfo, error) {
	if !r.CanResolve(rawURL) {
		return nil, errors.New("not an Apple Music URL.")
	}

	trackID, err := extractAppleTrackID(rawURL)
	if err != nil {
		return nil, err
	}

	track, err := r.lookupTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("iTunes lookup failed: %w", err)
	}

	return &TrackInfo{
		Title:  track.TrackName,
		Artist: track.ArtistName,
	}, nil
}

// extractAppleTrackID pulls the numeric track ID out of an Apple Music URL.
// Song links carry it as the last path element, album links as ?i=<id>.
// Playlist links never carry one and are rejected outright.
func extractAppleTrackID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if strings.Contains(u.Path, "/playlist/") {
		return "", ErrNotATrack
	}

	if trackID := u.Query().Get("i"); trackID != "" {
		return trackID, nil
	}

	// Direct song link: /us/song/<song-name>/<song-id>
	if strings.Contains(u.Path, "/song/") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if songID := parts[len(parts)-1]; songID != "" {
			return songID, nil
		}
	}

	return "", ErrNotATrack
}

// lookupTrack fetches track metadata from the iTunes lookup API.
func (r *AppleMusicResolver) lookupTrack(ctx context.Context, trackID string) (*iTunesTrackResult, error) {
	reqURL := fmt.Sprintf("%s?id=%s&entity=song", r.lookupURL, url.QueryEscape(trackID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iTunes API returned status %d", resp.StatusCode)
	}

	var lookupResp iTunesLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookupResp); err != nil {
		return nil, fmt.Errorf("failed to decode iTunes API response: %w", err)
	}

	if lookupResp.ResultCount == 0 || len(lookupResp.Results) == 0 {
		return nil, errors.New("no track found in iTunes API response.")
	}

	return &lookupResp.Results[0], nil
}
