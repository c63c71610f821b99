package cache

import (
	"fmt"
	"sync"

	"github.com/2beens/fitjournal/internal/bests"
)

var _ BestsCache = (*BestsTestCache)(nil)

// BestsTestCache is a map backed BestsCache that also counts lookups.
type BestsTestCache struct {
	mutex  sync.Mutex
	cache  map[string][]bests.PersonalBest
	Hits   int
	Misses int
}

func NewBestsTestCache() *BestsTestCache {
	return &BestsTestCache{
		cache: make(map[string][]bests.PersonalBest),
	}
}

func (c *BestsTestCache) Get(journalID string, version uint64) ([]bests.PersonalBest, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if pbs, ok := c.cache[fmt.Sprintf("%s::%d", journalID, version)]; ok {
		c.Hits++
		return pbs, true
	}
	c.Misses++
	return nil, false
}

func (c *BestsTestCache) Set(journalID string, version uint64, pbs []bests.PersonalBest) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache[fmt.Sprintf("%s::%d", journalID, version)] = pbs
}
