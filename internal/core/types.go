package core

import (
	"context"
)

type Provider int

const (
	// ProviderSpotify represents a native Spotify track link
	ProviderSpotify Provider = iota
	// ProviderAppleMusic represents an Apple Music link that needs cross-service resolution
	ProviderAppleMusic
)

func (p Provider) String() string {
	switch p {
	case ProviderSpotify:
		return "spotify"
	case ProviderAppleMusic:
		return "applemusic"
	default:
		return "unknown"
	}
}

// LinkRef is a music link found in the chat text, tagged by provider.
// Order of appearance in the chat is the single source of truth for playlist order.
type LinkRef struct {
	Provider Provider
	RawURL   string
}

type Track struct {
	ID      string
	Title   string
	Artists []string
}

type FailureReason int

const (
	// FailureNone indicates the run produced additions and no blocking reason applies
	FailureNone FailureReason = iota
	// FailureStartup indicates the run died before any processing started
	FailureStartup
	// FailureDriveAuth indicates Google Drive authentication failed
	FailureDriveAuth
	// FailureSpotifyAuth indicates Spotify authentication failed
	FailureSpotifyAuth
	// FailureMissingDriveFolderID indicates the Drive input folder ID is not configured
	FailureMissingDriveFolderID
	// FailureMissingPlaylistID indicates the Spotify playlist ID is not configured
	FailureMissingPlaylistID
	// FailureArchiveNotFound indicates the chat archive is missing from the Drive folder
	FailureArchiveNotFound
	// FailureArchiveExtract indicates the chat text could not be extracted from the archive
	FailureArchiveExtract
	// FailurePlaylistRead indicates the Spotify playlist could not be read at all
	FailurePlaylistRead
	// FailureNoLinksFound indicates the chat contained no music links
	FailureNoLinksFound
	// FailureNoValidTracks indicates no link could be resolved to a track ID
	FailureNoValidTracks
	// FailureAlreadyInSync indicates the playlist already matches the chat exactly
	FailureAlreadyInSync
	// FailureNothingNew indicates every chat track is already in the playlist
	FailureNothingNew
	// FailureAdditionsRejected indicates every addition batch failed to apply
	FailureAdditionsRejected
)

// RunOutcome is the record of a single sync run. It is built incrementally
// while the run executes and consumed exactly once by the reporter.
// Added and Removed hold only IDs confirmed applied, never intent.
type RunOutcome struct {
	LinksFound    int
	SkippedLinks  int
	Removed       []string
	Added         []string
	CurrentTracks int
	PartialRead   bool
	Failure       FailureReason
}

// ArchiveSource retrieves the raw chat text for a run.
type ArchiveSource interface {
	FetchChatText(ctx context.Context) (string, error)
}

// PlaylistService is the remote playlist API surface the sync needs:
// paginated ordered read, batched append/remove, batched metadata lookup
// and free-text track search.
type PlaylistService interface {
	// GetPlaylistTracks returns the playlist's track IDs in order. complete is
	// false when pagination was interrupted and the snapshot may be truncated.
	GetPlaylistTracks(ctx context.Context, playlistID string) (ids []string, complete bool, err error)

	// AddTracks appends trackIDs in order, batch by batch, and returns the IDs
	// from batches that were confirmed applied.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) (added []string)

	// RemoveTracks removes all occurrences of each trackID and returns the IDs
	// from batches that were confirmed applied.
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) (removed []string)

	// GetTracks looks up track metadata in batches, best effort: tracks that
	// could not be fetched are simply absent from the result.
	GetTracks(ctx context.Context, trackIDs []string) []Track

	// SearchTrack runs a free-text or field-scoped track search.
	SearchTrack(ctx context.Context, query string) ([]Track, error)
}

// MusicLinkTrackInfo holds descriptive text fetched for a foreign provider link.
type MusicLinkTrackInfo struct {
	Title  string
	Artist string
}

// MusicLinkResolver fetches track metadata for foreign provider links.
type MusicLinkResolver interface {
	Resolve(ctx context.Context, url string) (*MusicLinkTrackInfo, error)
	CanResolve(url string) bool
}

// LinkCache remembers foreign-link resolutions across runs. An entry with an
// empty track ID records a cached abstain.
type LinkCache interface {
	Get(rawURL string) (trackID string, ok bool)
	Put(rawURL, trackID string)
	Len() int
}
