package docstore

import (
	"context"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// changeFeed fans the announcements on ChangesChannel out to the watchers of
// the announced collection. All watchers share one redis subscription.
type changeFeed struct {
	rdb *redis.Client

	mu       sync.Mutex
	pubsub   *redis.PubSub
	watchers map[string]map[chan struct{}]struct{}
}

func newChangeFeed(rdb *redis.Client) *changeFeed {
	return &changeFeed{
		rdb:      rdb,
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

// watch returns a channel that receives a value after announcements of key.
// Announcements arriving while the previous one is unread are coalesced.
// stop unregisters the watcher.
func (f *changeFeed) watch(ctx context.Context, key string) (_ <-chan struct{}, stop func(), err error) {
	if err := f.ensureSubscribed(ctx); err != nil {
		return nil, nil, err
	}
	notify, stop := f.register(key)
	return notify, stop, nil
}

func (f *changeFeed) ensureSubscribed(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubsub != nil {
		return nil
	}

	pubsub := f.rdb.Subscribe(ctx, ChangesChannel)
	// wait for the confirmation, so no change is missed between a watcher's
	// initial load and its first announcement
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	f.pubsub = pubsub
	go f.dispatch(pubsub)

	log.Debugf("docstore: subscribed to %s", ChangesChannel)
	return nil
}

func (f *changeFeed) register(key string) (<-chan struct{}, func()) {
	notify := make(chan struct{}, 1)

	f.mu.Lock()
	if f.watchers[key] == nil {
		f.watchers[key] = make(map[chan struct{}]struct{})
	}
	f.watchers[key][notify] = struct{}{}
	f.mu.Unlock()

	stop := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers[key], notify)
		if len(f.watchers[key]) == 0 {
			delete(f.watchers, key)
		}
	}
	return notify, stop
}

func (f *changeFeed) dispatch(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		f.notify(strings.TrimSpace(msg.Payload))
	}

	f.mu.Lock()
	if f.pubsub == pubsub {
		f.pubsub = nil
	}
	f.mu.Unlock()
}

func (f *changeFeed) notify(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for notify := range f.watchers[key] {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (f *changeFeed) watching() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.watchers {
		n += len(w)
	}
	return n
}

func (f *changeFeed) close() error {
	f.mu.Lock()
	pubsub := f.pubsub
	f.pubsub = nil
	f.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	return pubsub.Close()
}
