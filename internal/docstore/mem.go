package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-process Store, used in development and tests.
type MemStore struct {
	mu          sync.Mutex
	collections map[CollectionRef]map[string]Document
	subscribers map[CollectionRef]map[*latest]struct{}
	now         func() time.Time

	// failWrites, when set, makes every write fail with the returned error
	failWrites func(op string, ref CollectionRef) error
}

func NewMemStore() *MemStore {
	return &MemStore{
		collections: map[CollectionRef]map[string]Document{},
		subscribers: map[CollectionRef]map[*latest]struct{}{},
		now:         time.Now,
	}
}

// FailWrites installs a hook that can reject writes, nil removes it.
func (s *MemStore) FailWrites(fn func(op string, ref CollectionRef) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fn
}

func (s *MemStore) checkWrite(op string, ref CollectionRef, path string) error {
	if s.failWrites == nil {
		return nil
	}
	if err := s.failWrites(op, ref); err != nil {
		return &WriteError{Op: op, Path: path, Err: err}
	}
	return nil
}

func (s *MemStore) Create(_ context.Context, ref CollectionRef, doc json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWrite("create", ref, ref.Path()); err != nil {
		return "", err
	}
	if !json.Valid(doc) {
		return "", &WriteError{Op: "create", Path: ref.Path(), Err: errInvalidJSON}
	}

	id := uuid.NewString()
	now := s.now()
	coll, ok := s.collections[ref]
	if !ok {
		coll = map[string]Document{}
		s.collections[ref] = coll
	}
	coll[id] = Document{ID: id, Data: clone(doc), CreatedAt: now, UpdatedAt: now}
	s.notify(ref)
	return id, nil
}

func (s *MemStore) Replace(_ context.Context, ref CollectionRef, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWrite("replace", ref, ref.DocPath(id)); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return &WriteError{Op: "replace", Path: ref.DocPath(id), Err: errInvalidJSON}
	}

	existing, ok := s.collections[ref][id]
	if !ok {
		return &WriteError{Op: "replace", Path: ref.DocPath(id), Err: ErrNotFound}
	}
	existing.Data = clone(doc)
	existing.UpdatedAt = s.now()
	s.collections[ref][id] = existing
	s.notify(ref)
	return nil
}

func (s *MemStore) Delete(_ context.Context, ref CollectionRef, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWrite("delete", ref, ref.DocPath(id)); err != nil {
		return err
	}
	if _, ok := s.collections[ref][id]; !ok {
		return &WriteError{Op: "delete", Path: ref.DocPath(id), Err: ErrNotFound}
	}
	delete(s.collections[ref], id)
	s.notify(ref)
	return nil
}

func (s *MemStore) Get(_ context.Context, ref CollectionRef, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[ref][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Data = clone(doc.Data)
	return doc, nil
}

func (s *MemStore) List(_ context.Context, ref CollectionRef) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ref), nil
}

func (s *MemStore) Subscribe(ctx context.Context, ref CollectionRef) (<-chan Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := newLatest()
	s.mu.Lock()
	if s.subscribers[ref] == nil {
		s.subscribers[ref] = map[*latest]struct{}{}
	}
	s.subscribers[ref][sub] = struct{}{}
	sub.push(ref, s.list(ref))
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[ref], sub)
		if len(s.subscribers[ref]) == 0 {
			delete(s.subscribers, ref)
		}
		close(sub.ch)
	}()

	return sub.ch, nil
}

// list returns the documents in creation order, s.mu must be held.
func (s *MemStore) list(ref CollectionRef) []Document {
	docs := make([]Document, 0, len(s.collections[ref]))
	for _, d := range s.collections[ref] {
		d.Data = clone(d.Data)
		docs = append(docs, d)
	}
	sortDocs(docs)
	return docs
}

// notify pushes a fresh snapshot to every subscriber of ref, s.mu must be held.
func (s *MemStore) notify(ref CollectionRef) {
	subs := s.subscribers[ref]
	if len(subs) == 0 {
		return
	}
	for sub := range subs {
		sub.push(ref, s.list(ref))
	}
}

func sortDocs(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

func clone(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
