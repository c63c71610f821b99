package errreport

import (
	"sync"

	"github.com/2beens/fitjournal/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// LogFailures logs every event at error level (which also reaches sentry via
// the logging hook) and counts it, until events is closed.
func LogFailures(events <-chan WriteFailed, metricsManager *metrics.Manager) {
	for ev := range events {
		log.WithFields(log.Fields{
			"user": ev.UserID,
			"op":   ev.Op,
			"path": ev.Path,
		}).Errorf("document store write failed: %s", ev.Err)
		if metricsManager != nil {
			metricsManager.CounterWriteFailures.WithLabelValues(ev.Op).Inc()
		}
	}
}

const DefaultRecentSize = 50

// Recent keeps the last few write failures of every user.
type Recent struct {
	size int

	mu     sync.RWMutex
	byUser map[string][]WriteFailed
}

func NewRecent(size int) *Recent {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &Recent{
		size:   size,
		byUser: map[string][]WriteFailed{},
	}
}

// Consume records events until the channel is closed.
func (r *Recent) Consume(events <-chan WriteFailed) {
	for ev := range events {
		r.Add(ev)
	}
}

func (r *Recent) Add(ev WriteFailed) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.byUser[ev.UserID], ev)
	if len(list) > r.size {
		list = list[len(list)-r.size:]
	}
	r.byUser[ev.UserID] = list
}

// For returns the recorded failures of a user, newest first.
func (r *Recent) For(userID string) []WriteFailed {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byUser[userID]
	out := make([]WriteFailed, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out
}

func (r *Recent) Clear(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}
