package errreport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/2beens/fitjournal/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// WriteFailed is published when an asynchronous document store write fails.
type WriteFailed struct {
	UserID  string          `json:"-"`
	Op      string          `json:"op"`
	Path    string          `json:"path"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Err     error           `json:"-"`
	At      time.Time       `json:"at"`
}

func (e WriteFailed) MarshalJSON() ([]byte, error) {
	type alias WriteFailed
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		alias
		Error string `json:"error"`
	}{alias(e), msg})
}

// Bus fans write failures out to its subscribers. Publishing never blocks:
// when the buffer is full the event is dropped and counted.
type Bus struct {
	in             chan WriteFailed
	metricsManager *metrics.Manager

	mu          sync.Mutex
	subscribers []chan WriteFailed
	closed      bool
}

func NewBus(bufferSize int, metricsManager *metrics.Manager) *Bus {
	if bufferSize <= 0 {
		bufferSize = 128
	}
	return &Bus{
		in:             make(chan WriteFailed, bufferSize),
		metricsManager: metricsManager,
	}
}

func (b *Bus) Publish(ev WriteFailed) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case b.in <- ev:
	default:
		log.Warnf("error bus full, dropping write failure event: %s %s", ev.Op, ev.Path)
		if b.metricsManager != nil {
			b.metricsManager.CounterDroppedWriteEvents.Inc()
		}
	}
}

// Subscribe must be called before Run. The channel is closed when Run returns.
func (b *Bus) Subscribe() <-chan WriteFailed {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan WriteFailed, cap(b.in))
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Run delivers published events until ctx is done.
func (b *Bus) Run(ctx context.Context) {
	defer func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		for _, ch := range b.subscribers {
			close(ch)
		}
		b.subscribers = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.in:
			b.mu.Lock()
			for _, ch := range b.subscribers {
				select {
				case ch <- ev:
				default:
					if b.metricsManager != nil {
						b.metricsManager.CounterDroppedWriteEvents.Inc()
					}
				}
			}
			b.mu.Unlock()
		}
	}
}
