// Package memory is the in-process document store used by tests and dev
// mode. A single lock guards all collections, which also makes batch
// commits trivially atomic.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/socialnomad/nomadblog/internal/store"
)

type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any // collection -> id -> body
}

func New() *Store {
	return &Store{
		cols: make(map[string]map[string]map[string]any),
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.cols[collection][id]

	if !ok {
		return store.Doc{}, store.ErrNotFound
	}

	return store.Doc{ID: id, Body: cloneBody(body)}, nil
}

func (s *Store) Query(ctx context.Context, collection, field string, value any) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []store.Doc{}

	for id, body := range s.cols[collection] {
		if body[field] == value {
			docs = append(docs, store.Doc{ID: id, Body: cloneBody(body)})
		}
	}

	return docs, nil
}

func (s *Store) Add(ctx context.Context, collection string, body map[string]any) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	s.put(collection, id, body)
	s.mu.Unlock()

	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, body map[string]any) error {
	s.mu.Lock()
	s.put(collection, id, body)
	s.mu.Unlock()

	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.cols[collection][id]

	if !ok {
		return store.ErrNotFound
	}

	for k, v := range patch {
		body[k] = v
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.cols[collection], id)
	s.mu.Unlock()

	return nil
}

func (s *Store) Scan(ctx context.Context, collection string) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []store.Doc{}

	for id, body := range s.cols[collection] {
		docs = append(docs, store.Doc{ID: id, Body: cloneBody(body)})
	}

	return docs, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// put assumes the caller holds the write lock.
func (s *Store) put(collection, id string, body map[string]any) {
	col, ok := s.cols[collection]

	if !ok {
		col = make(map[string]map[string]any)
		s.cols[collection] = col
	}

	col[id] = cloneBody(body)
}

func cloneBody(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))

	for k, v := range body {
		out[k] = v
	}

	return out
}

// batch ops

type opKind int

const (
	opDelete opKind = iota
	opSet
	opAdd
)

type op struct {
	kind       opKind
	collection string
	id         string
	body       map[string]any
}

type batch struct {
	store *Store
	ops   []op
}

func (s *Store) NewBatch() store.Batch {
	return &batch{store: s}
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, op{kind: opDelete, collection: collection, id: id})
}

func (b *batch) Set(collection, id string, body map[string]any) {
	b.ops = append(b.ops, op{kind: opSet, collection: collection, id: id, body: body})
}

func (b *batch) Add(collection string, body map[string]any) {
	b.ops = append(b.ops, op{kind: opAdd, collection: collection, body: body})
}

// Commit applies every staged op under one write lock, so concurrent
// readers never observe a half-applied batch.
func (b *batch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, o := range b.ops {
		switch o.kind {
		case opDelete:
			delete(b.store.cols[o.collection], o.id)
		case opSet:
			b.store.put(o.collection, o.id, o.body)
		case opAdd:
			b.store.put(o.collection, uuid.NewString(), o.body)
		}
	}

	b.ops = nil

	return nil
}
