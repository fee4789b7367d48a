package store

import "context"

// Observer is the metrics hook an instrumented store reports through.
type Observer interface {
	ObserveStore(op, collection string, fn func() error) error
}

// WithMetrics decorates a store so every logical operation is timed and
// counted. A nil observer returns the store unchanged.
func WithMetrics(s Store, obs Observer) Store {
	if obs == nil {
		return s
	}

	return &instrumented{next: s, obs: obs}
}

type instrumented struct {
	next Store
	obs  Observer
}

func (i *instrumented) Get(ctx context.Context, collection, id string) (Doc, error) {
	var doc Doc
	err := i.obs.ObserveStore("get", collection, func() error {
		var err error
		doc, err = i.next.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (i *instrumented) Query(ctx context.Context, collection, field string, value any) ([]Doc, error) {
	var docs []Doc
	err := i.obs.ObserveStore("query", collection, func() error {
		var err error
		docs, err = i.next.Query(ctx, collection, field, value)
		return err
	})
	return docs, err
}

func (i *instrumented) Add(ctx context.Context, collection string, body map[string]any) (string, error) {
	var id string
	err := i.obs.ObserveStore("add", collection, func() error {
		var err error
		id, err = i.next.Add(ctx, collection, body)
		return err
	})
	return id, err
}

func (i *instrumented) Set(ctx context.Context, collection, id string, body map[string]any) error {
	return i.obs.ObserveStore("set", collection, func() error {
		return i.next.Set(ctx, collection, id, body)
	})
}

func (i *instrumented) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return i.obs.ObserveStore("update", collection, func() error {
		return i.next.Update(ctx, collection, id, patch)
	})
}

func (i *instrumented) Delete(ctx context.Context, collection, id string) error {
	return i.obs.ObserveStore("delete", collection, func() error {
		return i.next.Delete(ctx, collection, id)
	})
}

func (i *instrumented) Scan(ctx context.Context, collection string) ([]Doc, error) {
	var docs []Doc
	err := i.obs.ObserveStore("scan", collection, func() error {
		var err error
		docs, err = i.next.Scan(ctx, collection)
		return err
	})
	return docs, err
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}

func (i *instrumented) NewBatch() Batch {
	return &instrumentedBatch{next: i.next.NewBatch(), obs: i.obs}
}

type instrumentedBatch struct {
	next Batch
	obs  Observer
}

func (b *instrumentedBatch) Delete(collection, id string) { b.next.Delete(collection, id) }

func (b *instrumentedBatch) Set(collection, id string, body map[string]any) {
	b.next.Set(collection, id, body)
}

func (b *instrumentedBatch) Add(collection string, body map[string]any) {
	b.next.Add(collection, body)
}

func (b *instrumentedBatch) Commit(ctx context.Context) error {
	return b.obs.ObserveStore("batch_commit", "all", func() error {
		return b.next.Commit(ctx)
	})
}
