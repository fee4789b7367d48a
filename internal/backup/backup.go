// Package backup exports the full dataset as a portable snapshot and
// atomically replaces the dataset from one.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/socialnomad/nomadblog/internal/store"
)

var (
	// ErrInvalidFormat rejects a snapshot before any mutation happens.
	ErrInvalidFormat = errors.New("invalid backup format")
	// ErrRestoreFailed wraps a store-level commit failure; the dataset is
	// unchanged when it is returned.
	ErrRestoreFailed = errors.New("failed to restore backup")
)

// Snapshot is the transfer representation: every document with its id
// merged into the body, password hashes included. Callers gate access.
type Snapshot struct {
	Users []map[string]any `json:"users"`
	Blogs []map[string]any `json:"blogs"`
}

type Engine struct {
	store store.Store
	loc   *time.Location
}

// NewEngine binds the engine to a store and the canonical timezone used
// to normalize restored timestamps.
func NewEngine(s store.Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}

	return &Engine{store: s, loc: loc}
}

// Export scans both collections in full. No filtering, no redaction.
func (e *Engine) Export(ctx context.Context) (Snapshot, error) {
	users, err := e.exportCollection(ctx, store.UsersCollection)

	if err != nil {
		return Snapshot{}, err
	}

	blogs, err := e.exportCollection(ctx, store.BlogsCollection)

	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Users: users, Blogs: blogs}, nil
}

func (e *Engine) exportCollection(ctx context.Context, collection string) ([]map[string]any, error) {
	docs, err := e.store.Scan(ctx, collection)

	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(docs))

	for _, doc := range docs {
		body := make(map[string]any, len(doc.Body)+1)

		for k, v := range doc.Body {
			body[k] = v
		}

		body["id"] = doc.ID
		out = append(out, body)
	}

	return out, nil
}

// Restore validates the raw snapshot, then replaces the entire dataset in
// one batch: every existing blog and user deleted, every incoming
// document written at its given id (or a fresh one when absent). The
// batch commits as a unit; on failure nothing has changed.
func (e *Engine) Restore(ctx context.Context, raw []byte) error {
	snap, err := parseSnapshot(raw)

	if err != nil {
		return err
	}

	batch := e.store.NewBatch()

	// Deletes go first so freshly generated ids cannot collide with
	// survivors from the previous dataset.
	if err := e.stageDeletes(ctx, batch, store.BlogsCollection); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}

	if err := e.stageDeletes(ctx, batch, store.UsersCollection); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}

	for _, u := range snap.Users {
		stageWrite(batch, store.UsersCollection, u)
	}

	for _, b := range snap.Blogs {
		e.normalizeCreatedAt(b)
		stageWrite(batch, store.BlogsCollection, b)
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}

	return nil
}

func (e *Engine) stageDeletes(ctx context.Context, batch store.Batch, collection string) error {
	docs, err := e.store.Scan(ctx, collection)

	if err != nil {
		return err
	}

	for _, doc := range docs {
		batch.Delete(collection, doc.ID)
	}

	return nil
}

// stageWrite extracts the transient id field and stages the remaining
// body at that id, or under a store-generated one when absent.
func stageWrite(batch store.Batch, collection string, doc map[string]any) {
	id, _ := doc["id"].(string)
	delete(doc, "id")

	if id != "" {
		batch.Set(collection, id, doc)
	} else {
		batch.Add(collection, doc)
	}
}

// normalizeCreatedAt converts a string created_at into the canonical
// zone when it parses as ISO-8601. An unparsable value stays a string;
// restore never fails over a bad timestamp.
func (e *Engine) normalizeCreatedAt(doc map[string]any) {
	s, ok := doc["created_at"].(string)

	if !ok {
		return
	}

	if t, ok := parseISO(s, e.loc); ok {
		doc["created_at"] = t.In(e.loc)
	}
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}

	// offset-less form, read in the canonical zone
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// parseSnapshot enforces the shape contract up front: a JSON object with
// exactly the keys users and blogs, each an array of objects.
func parseSnapshot(raw []byte) (Snapshot, error) {
	var top map[string]json.RawMessage

	dec := json.NewDecoder(bytes.NewReader(raw))

	if err := dec.Decode(&top); err != nil {
		return Snapshot{}, ErrInvalidFormat
	}

	if len(top) != 2 {
		return Snapshot{}, ErrInvalidFormat
	}

	usersRaw, ok := top["users"]
	if !ok {
		return Snapshot{}, ErrInvalidFormat
	}

	blogsRaw, ok := top["blogs"]
	if !ok {
		return Snapshot{}, ErrInvalidFormat
	}

	users, err := parseCollection(usersRaw)
	if err != nil {
		return Snapshot{}, err
	}

	blogs, err := parseCollection(blogsRaw)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Users: users, Blogs: blogs}, nil
}

// parseCollection insists on an actual array of actual objects. A JSON
// null unmarshals into a nil slice (or nil map) without error, which
// would read as an empty collection and wipe the dataset on commit.
func parseCollection(raw json.RawMessage) ([]map[string]any, error) {
	var items []json.RawMessage

	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrInvalidFormat
	}

	if items == nil {
		return nil, ErrInvalidFormat
	}

	out := make([]map[string]any, 0, len(items))

	for _, item := range items {
		var doc map[string]any

		if err := json.Unmarshal(item, &doc); err != nil || doc == nil {
			return nil, ErrInvalidFormat
		}

		out = append(out, doc)
	}

	return out, nil
}
