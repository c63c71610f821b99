package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	CollectionExercises = "exercises"
	CollectionMetcons   = "metcons"
	CollectionWorkouts  = "workouts"
)

var (
	ErrNotFound    = errors.New("document not found")
	errInvalidJSON = errors.New("document is not valid json")
)

// CollectionRef names one collection of one user.
type CollectionRef struct {
	UserID string
	Name   string
}

func (r CollectionRef) Path() string {
	return fmt.Sprintf("users/%s/%s", r.UserID, r.Name)
}

func (r CollectionRef) DocPath(id string) string {
	return r.Path() + "/" + id
}

type Document struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot is the full content of a collection at some point in time.
// Version grows with every snapshot delivered on one subscription.
type Snapshot struct {
	Ref     CollectionRef
	Docs    []Document
	Version uint64
}

// Store keeps JSON documents grouped in per-user collections. Top level
// document ids are always assigned by the store.
type Store interface {
	Create(ctx context.Context, ref CollectionRef, doc json.RawMessage) (string, error)
	Replace(ctx context.Context, ref CollectionRef, id string, doc json.RawMessage) error
	Delete(ctx context.Context, ref CollectionRef, id string) error
	Get(ctx context.Context, ref CollectionRef, id string) (Document, error)
	List(ctx context.Context, ref CollectionRef) ([]Document, error)
	// Subscribe delivers the current collection right away and a new snapshot
	// after every change. A slow reader only ever sees the latest snapshot.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context, ref CollectionRef) (<-chan Snapshot, error)
}

// WriteError is returned by failed writes, Path is the document (or
// collection) the write was aimed at.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Decode unmarshals every document into T, setting the id via setID.
func Decode[T any](docs []Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", d.ID, err)
		}
		setID(&v, d.ID)
		out = append(out, v)
	}
	return out, nil
}

// latest is a single slot channel that keeps only the newest snapshot.
type latest struct {
	ch      chan Snapshot
	version uint64
}

func newLatest() *latest {
	return &latest{ch: make(chan Snapshot, 1)}
}

// push must not be called concurrently for the same subscriber.
func (l *latest) push(ref CollectionRef, docs []Document) {
	l.version++
	s := Snapshot{Ref: ref, Docs: docs, Version: l.version}
	select {
	case l.ch <- s:
		return
	default:
	}
	select {
	case <-l.ch:
	default:
	}
	select {
	case l.ch <- s:
	default:
	}
}
