package backup_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/socialnomad/nomadblog/internal/backup"
	"github.com/socialnomad/nomadblog/internal/store"
	"github.com/socialnomad/nomadblog/internal/store/memory"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	return loc
}

func seed(t *testing.T, s store.Store, loc *time.Location) {
	t.Helper()
	ctx := context.Background()

	if err := s.Set(ctx, store.UsersCollection, "u-1", map[string]any{
		"username": "alice",
		"email":    "a@x.com",
		"password": "$2a$10$fakehash",
		"role":     "owner",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := s.Set(ctx, store.BlogsCollection, "b-1", map[string]any{
		"title":      "First",
		"content":    "Hello",
		"writer":     "u-1",
		"created_at": time.Date(2024, 3, 1, 10, 0, 0, 0, loc),
	}); err != nil {
		t.Fatalf("seed blog: %v", err)
	}
}

func snapshotJSON(t *testing.T, snap backup.Snapshot) string {
	t.Helper()

	sortByID := func(docs []map[string]any) {
		sort.Slice(docs, func(i, j int) bool {
			a, _ := docs[i]["id"].(string)
			b, _ := docs[j]["id"].(string)
			return a < b
		})
	}
	sortByID(snap.Users)
	sortByID(snap.Blogs)

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	return string(raw)
}

func TestExportMergesIDs(t *testing.T) {
	loc := jakarta(t)
	s := memory.New()
	seed(t, s, loc)

	engine := backup.NewEngine(s, loc)

	snap, err := engine.Export(context.Background())

	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if len(snap.Users) != 1 || len(snap.Blogs) != 1 {
		t.Fatalf("unexpected snapshot sizes: %d users, %d blogs", len(snap.Users), len(snap.Blogs))
	}

	if snap.Users[0]["id"] != "u-1" {
		t.Fatalf("user id not merged into body: %+v", snap.Users[0])
	}

	// password hashes export as-is
	if snap.Users[0]["password"] != "$2a$10$fakehash" {
		t.Fatalf("password hash missing from export: %+v", snap.Users[0])
	}
}

func TestRestoreExportRoundTrip(t *testing.T) {
	loc := jakarta(t)
	s := memory.New()
	seed(t, s, loc)

	engine := backup.NewEngine(s, loc)
	ctx := context.Background()

	first, err := engine.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	firstJSON := snapshotJSON(t, first)

	raw, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if err := engine.Restore(ctx, raw); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	second, err := engine.Export(ctx)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	if got := snapshotJSON(t, second); got != firstJSON {
		t.Fatalf("restore(export()) is not idempotent:\nfirst:  %s\nsecond: %s", firstJSON, got)
	}
}

func TestRestoreReplacesExistingDataset(t *testing.T) {
	loc := jakarta(t)
	s := memory.New()
	seed(t, s, loc)

	engine := backup.NewEngine(s, loc)
	ctx := context.Background()

	raw := []byte(`{
		"users": [{"id": "u-9", "username": "zed", "email": "z@x.com", "password": "h", "role": "writer"}],
		"blogs": []
	}`)

	if err := engine.Restore(ctx, raw); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	users, err := s.Scan(ctx, store.UsersCollection)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(users) != 1 || users[0].ID != "u-9" {
		t.Fatalf("old dataset survived restore: %+v", users)
	}

	if _, ok := users[0].Body["id"]; ok {
		t.Fatalf("transient id field leaked into the stored body: %+v", users[0].Body)
	}

	blogs, err := s.Scan(ctx, store.BlogsCollection)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(blogs) != 0 {
		t.Fatalf("old blogs survived restore: %+v", blogs)
	}
}

func TestRestoreGeneratesIDsWhenAbsent(t *testing.T) {
	loc := jakarta(t)
	s := memory.New()

	engine := backup.NewEngine(s, loc)
	ctx := context.Background()

	raw := []byte(`{"users": [{"username": "noid", "email": "n@x.com", "password": "h", "role": "writer"}], "blogs": []}`)

	if err := engine.Restore(ctx, raw); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	users, _ := s.Scan(ctx, store.UsersCollection)

	if len(users) != 1 || users[0].ID == "" {
		t.Fatalf("expected one user with a generated id, got %+v", users)
	}
}

func TestRestoreNormalizesTimestamps(t *testing.T) {
	loc := jakarta(t)
	s := memory.New()

	engine := backup.NewEngine(s, loc)
	ctx := context.Background()

	raw := []byte(`{
		"users": [],
		"blogs": [
			{"id": "b-1", "title": "a", "content": "x", "writer": "u", "created_at": "2024-03-01T10:00:00Z"},
			{"id": "b-2", "title": "b", "content": "y", "writer": "u", "created_at": "not-a-date"}
		]
	}`)

	if err := engine.Restore(ctx, raw); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	parsed, err := s.Get(ctx, store.BlogsCollection, "b-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	got, ok := parsed.Body["created_at"].(time.Time)
	if !ok {
		t.Fatalf("parsable created_at must become a time, got %T", parsed.Body["created_at"])
	}

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("created_at instant changed: got %v want %v", got, want)
	}
	if got.Location().String() != loc.String() {
		t.Fatalf("created_at not normalized to canonical zone: %v", got.Location())
	}

	// unparsable stays a raw string, restore still succeeds
	unparsed, err := s.Get(ctx, store.BlogsCollection, "b-2")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if unparsed.Body["created_at"] != "not-a-date" {
		t.Fatalf("unparsable created_at must stay untouched, got %v", unparsed.Body["created_at"])
	}
}

func TestRestoreRejectsInvalidFormat(t *testing.T) {
	loc := jakarta(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{{{`},
		{name: "not an object", raw: `[1,2,3]`},
		{name: "missing blogs", raw: `{"users": []}`},
		{name: "missing users", raw: `{"blogs": []}`},
		{name: "extra top-level key", raw: `{"users": [], "blogs": [], "extra": 1}`},
		{name: "users not an array", raw: `{"users": {}, "blogs": []}`},
		{name: "blogs not objects", raw: `{"users": [], "blogs": [1,2]}`},
		{name: "both collections null", raw: `{"users": null, "blogs": null}`},
		{name: "users null", raw: `{"users": null, "blogs": []}`},
		{name: "null element", raw: `{"users": [null], "blogs": []}`},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			seed(t, s, loc)

			engine := backup.NewEngine(s, loc)
			ctx := context.Background()

			err := engine.Restore(ctx, []byte(tt.raw))

			if !errors.Is(err, backup.ErrInvalidFormat) {
				t.Fatalf("want ErrInvalidFormat, got %v", err)
			}

			// rejection happens before any mutation
			users, _ := s.Scan(ctx, store.UsersCollection)
			blogs, _ := s.Scan(ctx, store.BlogsCollection)

			if len(users) != 1 || len(blogs) != 1 {
				t.Fatalf("dataset mutated by an invalid restore: %d users, %d blogs", len(users), len(blogs))
			}
		})
	}
}

// failingStore delegates everything to a real memory store but hands out
// batches whose commit always fails, simulating a store-level fault.
type failingStore struct {
	store.Store
}

func (f *failingStore) NewBatch() store.Batch {
	return &failingBatch{}
}

type failingBatch struct{}

func (b *failingBatch) Delete(string, string)              {}
func (b *failingBatch) Set(string, string, map[string]any) {}
func (b *failingBatch) Add(string, map[string]any)         {}

func (b *failingBatch) Commit(context.Context) error {
	return errors.New("connection reset mid-commit")
}

func TestRestoreAtomicityOnCommitFailure(t *testing.T) {
	loc := jakarta(t)
	mem := memory.New()
	seed(t, mem, loc)

	healthy := backup.NewEngine(mem, loc)
	ctx := context.Background()

	before, err := healthy.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	beforeJSON := snapshotJSON(t, before)

	engine := backup.NewEngine(&failingStore{Store: mem}, loc)

	raw := []byte(`{"users": [{"id": "u-9", "username": "zed", "email": "z@x.com", "password": "h", "role": "writer"}], "blogs": []}`)

	err = engine.Restore(ctx, raw)

	if !errors.Is(err, backup.ErrRestoreFailed) {
		t.Fatalf("want ErrRestoreFailed, got %v", err)
	}

	after, err := healthy.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if got := snapshotJSON(t, after); got != beforeJSON {
		t.Fatalf("dataset changed after a failed restore:\nbefore: %s\nafter:  %s", beforeJSON, got)
	}
}
