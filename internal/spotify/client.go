// Package spotify provides Spotify Web API integration for playlist reading,
// batched mutation and confidence-gated track search.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"vibesync/internal/core"
)

const (
	// SpotifyIDLength is the expected length of a Spotify track ID
	SpotifyIDLength = 22
	// PageSize is the page size for playlist pagination
	PageSize = 100
	// MutationBatchSize is the per-request item limit for playlist add/remove
	MutationBatchSize = 100
	// MetadataBatchSize is the per-request item limit for track metadata lookup
	MetadataBatchSize = 50
	// MaxSearchResults limits track search results
	MaxSearchResults = 10
	// FilePermission is the permission for token files
	FilePermission = 0600
)

type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	client *spotify.Client
	auth   *spotifyauth.Authenticator
}

type TokenData struct {
	Token *oauth2.Token `json:"token"`
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)

	return &Client{
		config: config,
		logger: logger,
		auth:   auth,
	}
}

// Authenticate establishes the API session. A token supplied via config
// content is materialized to the token path first (stateless environments);
// otherwise the cached token file is used, falling back to the interactive
// OAuth flow when neither yields a working session.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.config.TokenContent != "" {
		if err := os.WriteFile(c.config.TokenPath, []byte(c.config.TokenContent), FilePermission); err != nil {
			return fmt.Errorf("failed to materialize token content: %w", err)
		}
	}

	token, err := c.loadToken()
	if err != nil {
		c.logger.Info("No saved token found, starting OAuth flow")
		return c.startOAuthFlow(ctx)
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("Saved token invalid, starting OAuth flow", zap.Error(err))
		return c.startOAuthFlow(ctx)
	}

	c.logger.Info("Authenticated successfully", zap.String("user", user.DisplayName))
	return nil
}

// GetPlaylistTracks pages through the playlist and returns its track IDs in
// order. Entries without a track (removed or unavailable items) and entries
// with malformed IDs are filtered out. A transport error mid-pagination does
// not fail the read: whatever was fetched is returned with complete=false so
// callers can tell a short playlist from a truncated snapshot.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistID string) ([]string, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("client not authenticated")
	}

	spotifyPlaylistID := spotify.ID(playlistID)
	var trackIDs []string
	offset := 0

	for {
		items, err := c.client.GetPlaylistItems(ctx, spotifyPlaylistID,
			spotify.Limit(PageSize), spotify.Offset(offset))
		if err != nil {
			c.logger.Warn("Playlist pagination interrupted, snapshot may be truncated",
				zap.String("playlistID", playlistID),
				zap.Int("fetchedSoFar", len(trackIDs)),
				zap.Error(err))
			return trackIDs, false, nil
		}

		for i := range items.Items {
			track := items.Items[i].Track.Track
			if track == nil {
				continue
			}
			id := string(track.ID)
			if len(id) != SpotifyIDLength {
				continue
			}
			trackIDs = append(trackIDs, id)
		}

		if len(items.Items) < PageSize {
			break
		}
		offset += PageSize
	}

	c.logger.Info("Retrieved playlist tracks",
		zap.String("playlistID", playlistID),
		zap.Int("count", len(trackIDs)))

	return trackIDs, true, nil
}

// AddTracks appends trackIDs in order, one request per batch of at most
// MutationBatchSize. A failed batch is logged and skipped; subsequent batches
// still run. The returned slice holds only IDs from confirmed batches, so it
// reflects what actually happened, not what was requested. No retries.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) []string {
	var added []string

	for _, batch := range batchIDs(trackIDs, MutationBatchSize) {
		_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(batch)...)
		if err != nil {
			c.logger.Error("Failed to add batch to playlist",
				zap.String("playlistID", playlistID),
				zap.Int("batchSize", len(batch)),
				zap.Error(err))
			continue
		}
		added = append(added, batch...)
	}

	c.logger.Info("Applied playlist additions",
		zap.Int("requested", len(trackIDs)),
		zap.Int("confirmed", len(added)))

	return added
}

// RemoveTracks removes all occurrences of each trackID. The API removes by
// value, so batch order is irrelevant; failure handling mirrors AddTracks.
func (c *Client) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) []string {
	var removed []string

	for _, batch := range batchIDs(trackIDs, MutationBatchSize) {
		_, err := c.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(batch)...)
		if err != nil {
			c.logger.Error("Failed to remove batch from playlist",
				zap.String("playlistID", playlistID),
				zap.Int("batchSize", len(batch)),
				zap.Error(err))
			continue
		}
		removed = append(removed, batch...)
	}

	c.logger.Info("Applied playlist removals",
		zap.Int("requested", len(trackIDs)),
		zap.Int("confirmed", len(removed)))

	return removed
}

// GetTracks looks up track metadata in batches of MetadataBatchSize, best
// effort: a failed batch only drops its own entries.
func (c *Client) GetTracks(ctx context.Context, trackIDs []string) []core.Track {
	var tracks []core.Track

	for _, batch := range batchIDs(trackIDs, MetadataBatchSize) {
		results, err := c.client.GetTracks(ctx, toSpotifyIDs(batch))
		if err != nil {
			c.logger.Warn("Failed to fetch track metadata batch",
				zap.Int("batchSize", len(batch)),
				zap.Error(err))
			continue
		}
		for _, track := range results {
			if track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(track))
		}
	}

	return tracks
}

// SearchTrack runs a track search and returns up to MaxSearchResults results
// in the API's ranking order.
func (c *Client) SearchTrack(ctx context.Context, query string) ([]core.Track, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not authenticated")
	}

	results, err := c.client.Search(ctx, query, spotify.SearchTypeTrack)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if results.Tracks == nil {
		return nil, nil
	}

	var tracks []core.Track
	for i := range results.Tracks.Tracks {
		if len(tracks) >= MaxSearchResults {
			break
		}
		tracks = append(tracks, convertTrack(&results.Tracks.Tracks[i]))
	}

	return tracks, nil
}

func convertTrack(track *spotify.FullTrack) core.Track {
	var artists []string
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return core.Track{
		ID:      string(track.ID),
		Title:   track.Name,
		Artists: artists,
	}
}

// batchIDs splits ids into consecutive slices of at most size elements,
// preserving order across batches.
func batchIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

func toSpotifyIDs(ids []string) []spotify.ID {
	spotifyIDs := make([]spotify.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = spotify.ID(id)
	}
	return spotifyIDs
}

func (c *Client) startOAuthFlow(ctx context.Context) error {
	state := "vibesync-auth-state"
	authURL := c.auth.AuthURL(state)

	fmt.Printf("Please visit the following URL to authorize the application:\n%s\n", authURL)
	fmt.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if saveErr := c.saveToken(token); saveErr != nil {
		c.logger.Warn("Failed to save token", zap.Error(saveErr))
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	c.logger.Info("OAuth flow completed successfully", zap.String("user", user.DisplayName))
	return nil
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(c.config.TokenPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, err
	}

	if tokenData.Token == nil || strings.TrimSpace(tokenData.Token.AccessToken) == "" {
		return nil, fmt.Errorf("token file holds no usable token")
	}

	return tokenData.Token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	tokenData := TokenData{Token: token}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.config.TokenPath, data, FilePermission)
}
