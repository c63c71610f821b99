package cache

import (
	"sync"

	"github.com/2beens/fitjournal/internal/bests"
)

var _ BestsCache = (*LatestBestsCache)(nil)

// LatestBestsCache keeps only the newest snapshot of each journal. A
// repository owning its own LatestBestsCache holds a single list at most.
type LatestBestsCache struct {
	mu      sync.Mutex
	entries map[string]latestBests
}

type latestBests struct {
	version uint64
	pbs     []bests.PersonalBest
}

func NewLatestBestsCache() *LatestBestsCache {
	return &LatestBestsCache{
		entries: make(map[string]latestBests),
	}
}

func (c *LatestBestsCache) Get(journalID string, version uint64) ([]bests.PersonalBest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[journalID]
	if !ok || e.version != version {
		return nil, false
	}
	return e.pbs, true
}

// Set ignores snapshots older than the one already kept.
func (c *LatestBestsCache) Set(journalID string, version uint64, pbs []bests.PersonalBest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[journalID]; ok && e.version > version {
		return
	}
	c.entries[journalID] = latestBests{version: version, pbs: pbs}
}

func (c *LatestBestsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
