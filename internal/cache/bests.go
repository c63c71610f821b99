package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	oneHour           = 60 * 60
	bestsCacheExpire  = oneHour
	defaultCacheBytes = 32 * 1024 * 1024
	minCacheBytes     = 512 * 1024

	// freecache rejects entries above 1/1024 of the cache size and evicts
	// per segment (1/256 of the cache); a quarter of the entry limit keeps
	// many chunks of one list within a segment
	chunkShare = 4096
	// a single bests list may use at most 1/maxEntryShare of the cache
	maxEntryShare = 16
)

var errTooLarge = errors.New("bests list too large for the cache")

// BestsCache keeps computed personal bests per journal snapshot. A snapshot
// is identified by the journal it belongs to and its version, so an entry
// never has to be invalidated.
type BestsCache interface {
	Get(journalID string, version uint64) ([]bests.PersonalBest, bool)
	Set(journalID string, version uint64, pbs []bests.PersonalBest)
}

var _ BestsCache = (*FreeBestsCache)(nil)

// FreeBestsCache is the shared BestsCache of all journals. A serialized list
// is split into chunks that each fit a freecache entry, and an index entry
// records how many chunks make up the list.
type FreeBestsCache struct {
	cache          *freecache.Cache
	chunkSize      int
	maxEntryBytes  int
	metricsManager *metrics.Manager
}

// NewFreeBestsCache creates a cache of sizeBytes (32MB when <= 0).
// metricsManager may be nil.
func NewFreeBestsCache(sizeBytes int, metricsManager *metrics.Manager) *FreeBestsCache {
	if sizeBytes <= 0 {
		sizeBytes = defaultCacheBytes
	}
	// freecache raises sizes below its minimum
	sizeBytes = max(sizeBytes, minCacheBytes)
	return &FreeBestsCache{
		cache:          freecache.NewCache(sizeBytes),
		chunkSize:      sizeBytes / chunkShare,
		maxEntryBytes:  sizeBytes / maxEntryShare,
		metricsManager: metricsManager,
	}
}

func bestsKey(journalID string, version uint64) []byte {
	return []byte(fmt.Sprintf("bests::%s::%d", journalID, version))
}

func chunkKey(journalID string, version uint64, i int) []byte {
	return []byte(fmt.Sprintf("bests::%s::%d::%d", journalID, version, i))
}

func (c *FreeBestsCache) Get(journalID string, version uint64) ([]bests.PersonalBest, bool) {
	raw, err := c.load(journalID, version)
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Warnf("bests cache get %s/%d: %s", journalID, version, err)
		}
		c.miss()
		return nil, false
	}

	var pbs []bests.PersonalBest
	if err := json.Unmarshal(raw, &pbs); err != nil {
		log.Errorf("bests cache: unmarshal %s/%d: %s", journalID, version, err)
		c.miss()
		return nil, false
	}

	if c.metricsManager != nil {
		c.metricsManager.CounterBestsCacheHits.Inc()
	}
	return pbs, true
}

func (c *FreeBestsCache) load(journalID string, version uint64) ([]byte, error) {
	index, err := c.cache.Get(bestsKey(journalID, version))
	if err != nil {
		return nil, err
	}
	chunks, size, err := parseIndex(index)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, 0, size)
	for i := 0; i < chunks; i++ {
		chunk, err := c.cache.Get(chunkKey(journalID, version, i))
		if err != nil {
			// a chunk was evicted before its index
			return nil, err
		}
		raw = append(raw, chunk...)
	}
	if len(raw) != size {
		return nil, fmt.Errorf("bests cache: got %d bytes, want %d", len(raw), size)
	}
	return raw, nil
}

func (c *FreeBestsCache) Set(journalID string, version uint64, pbs []bests.PersonalBest) {
	if pbs == nil {
		pbs = []bests.PersonalBest{}
	}
	raw, err := json.Marshal(pbs)
	if err != nil {
		log.Errorf("bests cache: marshal %s/%d: %s", journalID, version, err)
		return
	}
	if err := c.store(journalID, version, raw); err != nil {
		log.Warnf("bests cache set %s/%d: %s", journalID, version, err)
	}
}

// store writes the chunks first, so a readable index always has its chunks.
func (c *FreeBestsCache) store(journalID string, version uint64, raw []byte) error {
	if len(raw) > c.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes", errTooLarge, len(raw))
	}

	chunks := 0
	for start := 0; start < len(raw); start += c.chunkSize {
		end := min(start+c.chunkSize, len(raw))
		if err := c.cache.Set(chunkKey(journalID, version, chunks), raw[start:end], bestsCacheExpire); err != nil {
			return err
		}
		chunks++
	}
	return c.cache.Set(bestsKey(journalID, version), formatIndex(chunks, len(raw)), bestsCacheExpire)
}

func formatIndex(chunks, size int) []byte {
	return []byte(fmt.Sprintf("%d:%d", chunks, size))
}

func parseIndex(index []byte) (chunks, size int, err error) {
	c, s, ok := strings.Cut(string(index), ":")
	if !ok {
		return 0, 0, fmt.Errorf("bests cache: malformed index %q", index)
	}
	if chunks, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("bests cache: malformed index %q", index)
	}
	if size, err = strconv.Atoi(s); err != nil {
		return 0, 0, fmt.Errorf("bests cache: malformed index %q", index)
	}
	return chunks, size, nil
}

func (c *FreeBestsCache) miss() {
	if c.metricsManager != nil {
		c.metricsManager.CounterBestsCacheMisses.Inc()
	}
}
