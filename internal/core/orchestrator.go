package core

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"vibesync/pkg/text"
)

// Orchestrator drives one sync run: fetch chat text, derive the target
// sequence, snapshot the playlist, reconcile and apply. It owns no state
// between runs; every run re-reads the remote playlist fresh, so a fully
// successful run followed by an identical rerun lands in the in-sync state.
type Orchestrator struct {
	config   *Config
	archive  ArchiveSource
	spotify  PlaylistService
	resolver *Resolver
	logger   *zap.Logger
}

func NewOrchestrator(
	config *Config,
	archive ArchiveSource,
	spotify PlaylistService,
	resolver *Resolver,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:   config,
		archive:  archive,
		spotify:  spotify,
		resolver: resolver,
		logger:   logger,
	}
}

// RunSync executes one sync run and returns its outcome. Fatal conditions
// (archive missing, unreadable playlist) set the failure reason and stop
// before any mutation; per-link and per-batch failures are tolerated and
// recorded instead.
func (o *Orchestrator) RunSync(ctx context.Context) RunOutcome {
	out := RunOutcome{Failure: FailureStartup}

	chatText, err := o.archive.FetchChatText(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrArchiveNotFound):
			out.Failure = FailureArchiveNotFound
		default:
			out.Failure = FailureArchiveExtract
		}
		o.logger.Error("Failed to fetch chat text", zap.Error(err))
		return out
	}

	links := text.Extract(chatText)
	out.LinksFound = len(links)
	if len(links) == 0 {
		out.Failure = FailureNoLinksFound
		return out
	}

	target, skipped := o.resolver.ResolveAll(ctx, linkRefs(links))
	out.SkippedLinks = skipped
	if len(target) == 0 {
		// An empty target almost always means extraction went wrong, not a
		// genuine wish to empty the playlist, so the engine is never invoked.
		out.Failure = FailureNoValidTracks
		return out
	}

	current, complete, err := o.spotify.GetPlaylistTracks(ctx, o.config.Spotify.PlaylistID)
	if err != nil {
		out.Failure = FailurePlaylistRead
		o.logger.Error("Failed to read playlist", zap.Error(err))
		return out
	}
	out.PartialRead = !complete
	out.CurrentTracks = len(current)

	o.logger.Info("Sequences materialized",
		zap.Int("targetTracks", len(target)),
		zap.Int("currentTracks", len(current)),
		zap.Int("skippedLinks", skipped),
		zap.Bool("completeRead", complete))

	destructive := o.config.Sync.Destructive
	if destructive && !complete {
		// A truncated snapshot is indistinguishable from a short playlist;
		// removing based on it could wipe tracks that were never compared.
		o.logger.Warn("Playlist read incomplete, falling back to additive sync")
		destructive = false
	}

	var plan Plan
	if destructive {
		plan = Reconcile(target, current)
	} else {
		plan = AdditivePlan(target, current)
	}

	if plan.InSync() {
		if destructive {
			out.Failure = FailureAlreadyInSync
		} else {
			out.Failure = FailureNothingNew
		}
		return out
	}

	if len(plan.Remove) > 0 {
		out.Removed = o.spotify.RemoveTracks(ctx, o.config.Spotify.PlaylistID, plan.Remove)
	}
	if len(plan.Add) > 0 {
		out.Added = o.spotify.AddTracks(ctx, o.config.Spotify.PlaylistID, plan.Add)
	}

	switch {
	case len(out.Added) > 0:
		out.Failure = FailureNone
	case len(plan.Add) > 0:
		out.Failure = FailureAdditionsRejected
	default:
		// Destructive trim with an empty add tail: nothing new, order restored.
		out.Failure = FailureAlreadyInSync
	}

	o.logger.Info("Sync run applied",
		zap.Int("requestedRemovals", len(plan.Remove)),
		zap.Int("confirmedRemovals", len(out.Removed)),
		zap.Int("requestedAdditions", len(plan.Add)),
		zap.Int("confirmedAdditions", len(out.Added)))

	return out
}

// linkRefs maps extracted chat links onto the resolver's domain references.
func linkRefs(links []text.Link) []LinkRef {
	refs := make([]LinkRef, 0, len(links))
	for _, link := range links {
		ref := LinkRef{RawURL: link.URL}
		switch link.Provider {
		case text.ProviderSpotify:
			ref.Provider = ProviderSpotify
		case text.ProviderAppleMusic:
			ref.Provider = ProviderAppleMusic
		}
		refs = append(refs, ref)
	}
	return refs
}
