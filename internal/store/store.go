// Package store defines the narrow contract this system needs from a
// schemaless collection-of-documents database: single-document reads and
// writes, a field-equality query, a full-collection scan, and an atomic
// multi-write batch.
package store

import (
	"context"
	"errors"
)

const (
	UsersCollection = "users"
	BlogsCollection = "blogs"
)

var ErrNotFound = errors.New("document not found")

// Doc is one stored document: a store-assigned id plus a schemaless body.
// The id never lives inside the body.
type Doc struct {
	ID   string
	Body map[string]any
}

type Store interface {
	// Get returns the document at id or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Doc, error)
	// Query returns every document whose field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]Doc, error)
	// Add stores body under a fresh store-generated id and returns it.
	Add(ctx context.Context, collection string, body map[string]any) (string, error)
	// Set writes body at id, creating or fully replacing the document.
	Set(ctx context.Context, collection, id string, body map[string]any) error
	// Update merges patch into the document at id; ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	// Delete removes the document at id. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Scan returns every document in the collection.
	Scan(ctx context.Context, collection string) ([]Doc, error)
	// NewBatch starts an empty batch. Staged operations apply in order,
	// all or nothing, when Commit is called.
	NewBatch() Batch
	// Ping reports backend connectivity.
	Ping(ctx context.Context) error
}

// Batch stages deletes and writes for a single atomic commit. Callers
// observe only success or failure of the whole batch, never a partial
// state.
type Batch interface {
	Delete(collection, id string)
	Set(collection, id string, body map[string]any)
	Add(collection string, body map[string]any)
	Commit(ctx context.Context) error
}
