package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// SummaryDisplayCap bounds how many track names the summary sentence lists.
	SummaryDisplayCap = 25
	// summaryFilePermission is the permission for the append-only summary log.
	summaryFilePermission = 0o600
)

// Reporter turns a run outcome into exactly one human-readable summary
// sentence and appends it, timestamped, to the durable run log. Verbose
// detail goes to the console logger only; the file gets the single line.
type Reporter struct {
	spotify PlaylistService
	logger  *zap.Logger
	logPath string
}

func NewReporter(spotify PlaylistService, logPath string, logger *zap.Logger) *Reporter {
	return &Reporter{
		spotify: spotify,
		logger:  logger,
		logPath: logPath,
	}
}

// Summarize produces the run's summary sentence. When nothing was added the
// sentence names the first blocking reason; otherwise it lists the added
// tracks by resolved display name, truncated beyond the display cap.
func (r *Reporter) Summarize(ctx context.Context, outcome RunOutcome) string {
	if len(outcome.Added) == 0 {
		return blockedSentence(outcome.Failure)
	}

	names := r.displayNames(ctx, outcome.Added)

	shown := names
	if len(shown) > SummaryDisplayCap {
		shown = shown[:SummaryDisplayCap]
	}

	sentence := fmt.Sprintf("%d new songs added - %s", len(outcome.Added), strings.Join(shown, ", "))
	if extra := len(names) - len(shown); extra > 0 {
		sentence += fmt.Sprintf(" (+%d more)", extra)
	}
	return sentence
}

// Record appends one timestamped summary line to the durable run log.
func (r *Reporter) Record(summary string) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05 MST")
	line := fmt.Sprintf("[%s] %s\n", timestamp, summary)

	f, err := os.OpenFile(r.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, summaryFilePermission)
	if err != nil {
		return fmt.Errorf("failed to open summary log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append summary: %w", err)
	}
	return nil
}

// displayNames resolves "Title by Artist, Artist" strings for the added IDs,
// falling back to a per-ID placeholder when metadata lookup missed one.
func (r *Reporter) displayNames(ctx context.Context, trackIDs []string) []string {
	byID := make(map[string]Track)
	for _, track := range r.spotify.GetTracks(ctx, trackIDs) {
		byID[track.ID] = track
	}

	names := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		track, ok := byID[id]
		if !ok || track.Title == "" {
			names = append(names, fmt.Sprintf("Unknown Track (%s)", id))
			continue
		}
		names = append(names, fmt.Sprintf("%s by %s", track.Title, strings.Join(track.Artists, ", ")))
	}
	return names
}

// blockedSentence maps a failure reason to its fixed-form summary sentence.
func blockedSentence(reason FailureReason) string {
	switch reason {
	case FailureDriveAuth:
		return "No new songs added (Google Drive authentication failure)."
	case FailureSpotifyAuth:
		return "No new songs added (Spotify authentication failure)."
	case FailureMissingDriveFolderID:
		return "No new songs added (configuration error: missing Drive input folder ID)."
	case FailureMissingPlaylistID:
		return "No new songs added (configuration error: missing Spotify playlist ID)."
	case FailureArchiveNotFound:
		return "No new songs added (target chat archive not found in Drive)."
	case FailureArchiveExtract:
		return "No new songs added (failed to extract chat content from archive)."
	case FailurePlaylistRead:
		return "No new songs added (failed to read the Spotify playlist)."
	case FailureNoLinksFound:
		return "No new songs added (no music links found in chat file)."
	case FailureNoValidTracks:
		return "No new songs added (no valid track IDs could be derived from chat links)."
	case FailureAlreadyInSync:
		return "No new songs added (playlist already in sync with chat)."
	case FailureNothingNew:
		return "No new songs added (all found songs already in playlist)."
	case FailureAdditionsRejected:
		return "No new songs added (Spotify rejected every addition batch)."
	case FailureNone, FailureStartup:
		return "No new songs added (an issue occurred before processing could start)."
	default:
		return "No new songs added (an issue occurred before processing could start)."
	}
}
