package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/cache"
	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/errreport"
	"github.com/2beens/fitjournal/internal/telemetry/metrics"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/internal/workouts"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	OpCreate  = "create"
	OpReplace = "replace"
	OpDelete  = "delete"

	writeTimeout = 30 * time.Second
)

var ErrClosed = errors.New("journal is closed")

//go:generate mockgen -source=$GOFILE -destination=repository_mocks_test.go -package=journal_test

// FailurePublisher receives failed asynchronous writes.
type FailurePublisher interface {
	Publish(ev errreport.WriteFailed)
}

type NewRepositoryParams struct {
	UserID   string
	Store    docstore.Store
	Failures FailurePublisher
	// BestsCache defaults to a cache of the newest snapshot of this journal
	BestsCache     cache.BestsCache
	MetricsManager *metrics.Manager
}

// Repository is the workout journal of one user. It mirrors the workouts
// collection of the document store: reads are served from the latest
// snapshot, writes go to the store in the background and show up once the
// store delivers the next snapshot.
type Repository struct {
	id             string
	userID         string
	ref            docstore.CollectionRef
	store          docstore.Store
	failures       FailurePublisher
	bestsCache     cache.BestsCache
	metricsManager *metrics.Manager

	mu       sync.RWMutex
	loaded   bool
	version  uint64
	workouts []workouts.Workout

	writesMu sync.Mutex
	writes   sync.WaitGroup
	closed   bool

	cancel  context.CancelFunc
	subDone chan struct{}
}

func NewRepository(params NewRepositoryParams) (*Repository, error) {
	if params.Store == nil {
		return nil, errors.New("journal: store is nil")
	}
	if params.BestsCache == nil {
		params.BestsCache = cache.NewLatestBestsCache()
	}

	ref := docstore.CollectionRef{UserID: params.UserID, Name: docstore.CollectionWorkouts}
	subCtx, cancel := context.WithCancel(context.Background())
	snapshots, err := params.Store.Subscribe(subCtx, ref)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", ref.Path(), err)
	}

	r := &Repository{
		id:             uuid.NewString(),
		userID:         params.UserID,
		ref:            ref,
		store:          params.Store,
		failures:       params.Failures,
		bestsCache:     params.BestsCache,
		metricsManager: params.MetricsManager,
		cancel:         cancel,
		subDone:        make(chan struct{}),
	}
	go r.follow(snapshots)

	return r, nil
}

func (r *Repository) follow(snapshots <-chan docstore.Snapshot) {
	defer close(r.subDone)
	for snap := range snapshots {
		r.apply(snap)
	}
}

func (r *Repository) apply(snap docstore.Snapshot) {
	list := decodeWorkouts(snap.Docs)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
	r.version = snap.Version
	r.workouts = list
}

// decodeWorkouts skips documents that do not decode, one bad document does
// not hide the rest of the journal.
func decodeWorkouts(docs []docstore.Document) []workouts.Workout {
	setID := func(w *workouts.Workout, id string) { w.ID = id }
	list, err := docstore.Decode(docs, setID)
	if err == nil {
		return list
	}

	list = make([]workouts.Workout, 0, len(docs))
	for _, d := range docs {
		one, err := docstore.Decode([]docstore.Document{d}, setID)
		if err != nil {
			log.Errorf("journal: skipping workout: %s", err)
			continue
		}
		list = append(list, one...)
	}
	return list
}

// Loading is true until the first snapshot arrived.
func (r *Repository) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.loaded
}

func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// List returns all workouts, newest date first. Workouts on the same date
// keep the order of the store.
func (r *Repository) List() []workouts.Workout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]workouts.Workout, len(r.workouts))
	copy(out, r.workouts)
	return out
}

// GetByID only finds workouts of the latest snapshot, check Loading first
// to tell a missing workout from one that has not loaded yet.
func (r *Repository) GetByID(id string) (workouts.Workout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return workouts.Workout{}, false
}

// Bests computes the personal bests of the latest snapshot.
func (r *Repository) Bests() []bests.PersonalBest {
	r.mu.RLock()
	version := r.version
	list := r.workouts
	r.mu.RUnlock()

	if pbs, ok := r.bestsCache.Get(r.id, version); ok {
		return pbs
	}

	start := time.Now()
	pbs := bests.Compute(list)
	if r.metricsManager != nil {
		r.metricsManager.HistogramBestsCompute.Observe(time.Since(start).Seconds())
	}
	r.bestsCache.Set(r.id, version, pbs)
	return pbs
}

func (r *Repository) Add(ctx context.Context, in workouts.WorkoutInput) error {
	w, err := in.ToWorkout("")
	if err != nil {
		return err
	}
	w.FillSubIDs()
	return r.write(ctx, OpCreate, r.ref.Path(), w, func(ctx context.Context, doc json.RawMessage) error {
		_, err := r.store.Create(ctx, r.ref, doc)
		return err
	})
}

func (r *Repository) Update(ctx context.Context, id string, in workouts.WorkoutInput) error {
	w, err := in.ToWorkout(id)
	if err != nil {
		return err
	}
	w.FillSubIDs()
	return r.write(ctx, OpReplace, r.ref.DocPath(id), w, func(ctx context.Context, doc json.RawMessage) error {
		return r.store.Replace(ctx, r.ref, id, doc)
	})
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, OpDelete, r.ref.DocPath(id), nil, func(ctx context.Context, _ json.RawMessage) error {
		return r.store.Delete(ctx, r.ref, id)
	})
}

// write hands the document to the store in a goroutine and returns right
// away. Failures are reported to the failure publisher, never retried.
func (r *Repository) write(ctx context.Context, op, path string, w any, do func(context.Context, json.RawMessage) error) error {
	var doc json.RawMessage
	if w != nil {
		raw, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("marshal workout: %w", err)
		}
		doc = raw
	}

	r.writesMu.Lock()
	defer r.writesMu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.writes.Add(1)

	if r.metricsManager != nil {
		r.metricsManager.CounterWorkoutWrites.WithLabelValues(op).Inc()
	}

	writeCtx := context.WithoutCancel(ctx)
	go func() {
		defer r.writes.Done()

		ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
		defer cancel()
		ctx, span := tracing.GlobalTracer.Start(ctx, "repo.journal."+op)
		err := do(ctx, doc)
		tracing.EndSpanWithErrCheck(span, err)
		if err == nil {
			return
		}

		failedPath := path
		var werr *docstore.WriteError
		if errors.As(err, &werr) {
			failedPath = werr.Path
		}
		log.Debugf("journal %s: %s %s failed: %s", r.userID, op, failedPath, err)
		if r.failures != nil {
			r.failures.Publish(errreport.WriteFailed{
				UserID:  r.userID,
				Op:      op,
				Path:    failedPath,
				Payload: doc,
				Err:     err,
				At:      time.Now(),
			})
		}
	}()

	return nil
}

// Close stops following the store and waits for pending writes.
func (r *Repository) Close() {
	r.writesMu.Lock()
	if r.closed {
		r.writesMu.Unlock()
		return
	}
	r.closed = true
	r.writesMu.Unlock()

	r.writes.Wait()
	r.cancel()
	<-r.subDone
}
