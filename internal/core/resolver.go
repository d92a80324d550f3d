package core

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"vibesync/pkg/fuzzy"
)

// Spotify track IDs are exactly 22 base62 characters; anything else in the
// track path segment is malformed and must abstain, never guess.
var spotifyTrackIDRegex = regexp.MustCompile(`open\.spotify\.com/track/([a-zA-Z0-9]{22})(?:[^a-zA-Z0-9]|$)`)

// Resolver converts link references into canonical Spotify track IDs.
// Native links are parsed directly; foreign links go through metadata lookup
// and a confidence-gated search. Every failure path abstains, it never
// fabricates an identifier.
type Resolver struct {
	spotify    PlaylistService
	foreign    MusicLinkResolver
	cache      LinkCache
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

func NewResolver(
	spotify PlaylistService,
	foreign MusicLinkResolver,
	cache LinkCache,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		spotify:    spotify,
		foreign:    foreign,
		cache:      cache,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// ResolveAll resolves refs in order and returns the target sequence:
// deduplicated by first occurrence of the resolved track ID, extractor order
// preserved exactly. skipped counts refs that abstained.
func (r *Resolver) ResolveAll(ctx context.Context, refs []LinkRef) (ids []string, skipped int) {
	seen := make(map[string]struct{})

	for _, ref := range refs {
		id, ok := r.Resolve(ctx, ref)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, skipped
}

// Resolve converts one link reference into a track ID; ok is false on abstain.
func (r *Resolver) Resolve(ctx context.Context, ref LinkRef) (string, bool) {
	switch ref.Provider {
	case ProviderSpotify:
		return r.resolveNative(ref)
	case ProviderAppleMusic:
		return r.resolveForeign(ctx, ref)
	default:
		return "", false
	}
}

func (r *Resolver) resolveNative(ref LinkRef) (string, bool) {
	matches := spotifyTrackIDRegex.FindStringSubmatch(ref.RawURL)
	if len(matches) < 2 {
		r.logger.Debug("Malformed Spotify track URL", zap.String("url", ref.RawURL))
		return "", false
	}
	return matches[1], true
}

func (r *Resolver) resolveForeign(ctx context.Context, ref LinkRef) (string, bool) {
	if r.cache != nil {
		if id, ok := r.cache.Get(ref.RawURL); ok {
			return id, id != ""
		}
	}

	id, ok := r.matchForeign(ctx, ref)
	if r.cache != nil {
		// Cache abstains too (empty ID) so dead links are not re-fetched every run.
		r.cache.Put(ref.RawURL, id)
	}
	return id, ok
}

func (r *Resolver) matchForeign(ctx context.Context, ref LinkRef) (string, bool) {
	info, err := r.foreign.Resolve(ctx, ref.RawURL)
	if err != nil {
		r.logger.Debug("Foreign link metadata lookup failed",
			zap.String("url", ref.RawURL),
			zap.Error(err))
		return "", false
	}

	if info.Title == "" {
		return "", false
	}

	candidate, err := r.searchCandidate(ctx, info.Title, info.Artist)
	if err != nil {
		r.logger.Debug("Track search failed",
			zap.String("title", info.Title),
			zap.Error(err))
		return "", false
	}
	if candidate == nil {
		return "", false
	}

	if !r.accept(info, candidate) {
		r.logger.Debug("Top search result rejected by match gate",
			zap.String("sourceTitle", info.Title),
			zap.String("sourceArtist", info.Artist),
			zap.String("candidateTitle", candidate.Title))
		return "", false
	}

	r.logger.Info("Resolved foreign link",
		zap.String("url", ref.RawURL),
		zap.String("trackID", candidate.ID),
		zap.String("title", candidate.Title))

	return candidate.ID, true
}

// searchCandidate runs the exact-field primary query and falls back to an
// unscoped text query when it returns nothing. Only the top result is
// considered; ranking deeper hits would just launder bad matches.
func (r *Resolver) searchCandidate(ctx context.Context, title, artist string) (*Track, error) {
	query := fmt.Sprintf("track:%q", title)
	if artist != "" {
		query = fmt.Sprintf("track:%q artist:%q", title, artist)
	}

	results, err := r.spotify.SearchTrack(ctx, query)
	if err != nil {
		return nil, err
	}

	// The loose fallback is for empty result sets only; a transport error
	// means the answer is unknown, not absent.
	if len(results) == 0 {
		fallback := title
		if artist != "" {
			fallback = title + " " + artist
		}
		results, err = r.spotify.SearchTrack(ctx, fallback)
		if err != nil {
			return nil, err
		}
	}

	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// accept applies the confidence gate: title containment match plus artist
// overlap when an artist is known; strict normalized-title equality when it
// is not, to avoid false positives on title-only matches.
func (r *Resolver) accept(info *MusicLinkTrackInfo, candidate *Track) bool {
	if info.Artist != "" {
		return r.normalizer.TitlesMatch(info.Title, candidate.Title) &&
			r.normalizer.ArtistsOverlap(info.Artist, candidate.Artists)
	}
	return r.normalizer.TitlesEqual(info.Title, candidate.Title)
}
