// Package store provides the cross-run resolved-link cache backed by a Bloom
// prefilter and an LRU eviction policy.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// LinkCache remembers foreign-link resolutions (rawURL -> track ID) across
// watch-mode runs so unchanged chat history does not re-hit the metadata and
// search APIs every cycle. An empty track ID records a cached abstain. The
// Bloom filter is only a negative-lookup fast path; the map stays
// authoritative, so its false positives cost a map probe and nothing else.
type LinkCache struct {
	entries           map[string]string
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	maxEntries        int
	falsePositiveRate float64
}

// NewLinkCache creates a link cache bounded to maxEntries resolutions.
// maxEntries must be positive.
func NewLinkCache(maxEntries int, falsePositiveRate float64) *LinkCache {
	if maxEntries <= 0 {
		panic("link cache capacity must be positive")
	}

	lruCache, err := lru.New[string, struct{}](maxEntries)
	if err != nil {
		panic(err)
	}

	return &LinkCache{
		entries:           make(map[string]string),
		bloom:             bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate),
		lru:               lruCache,
		maxEntries:        maxEntries,
		falsePositiveRate: falsePositiveRate,
	}
}

// Get returns the cached resolution for a raw URL. ok is false when the URL
// has never been resolved; an empty trackID with ok=true is a cached abstain.
func (lc *LinkCache) Get(rawURL string) (trackID string, ok bool) {
	lc.mutex.RLock()
	defer lc.mutex.RUnlock()

	if !lc.bloom.TestString(rawURL) {
		return "", false
	}

	trackID, ok = lc.entries[rawURL]
	return trackID, ok
}

// Put records a resolution (or an abstain, with an empty trackID).
func (lc *LinkCache) Put(rawURL, trackID string) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if _, exists := lc.entries[rawURL]; !exists && len(lc.entries) >= lc.maxEntries {
		lc.evictOldest()
	}

	lc.entries[rawURL] = trackID
	lc.bloom.AddString(rawURL)
	lc.lru.Add(rawURL, struct{}{})
}

// Len returns the number of cached resolutions.
func (lc *LinkCache) Len() int {
	lc.mutex.RLock()
	defer lc.mutex.RUnlock()
	return len(lc.entries)
}

// Clear drops all cached resolutions.
func (lc *LinkCache) Clear() {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	lc.entries = make(map[string]string)
	lc.bloom = bloom.NewWithEstimates(uint(lc.maxEntries), lc.falsePositiveRate)
	lc.lru.Purge()
}

// evictOldest drops the least recently touched entry. The Bloom filter keeps
// the evicted key; that only means one wasted map probe if it comes back.
func (lc *LinkCache) evictOldest() {
	oldestKey, _, ok := lc.lru.GetOldest()
	if !ok {
		return
	}

	delete(lc.entries, oldestKey)
	lc.lru.Remove(oldestKey)
}
