// Package mongodb backs the document store contract with MongoDB.
// Documents keep string ids (ObjectID hex) in _id so ids survive
// backup/restore round-trips unchanged.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/socialnomad/nomadblog/internal/store"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, dbName string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))

	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(cctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	var raw bson.M

	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Doc{}, store.ErrNotFound
		}

		return store.Doc{}, err
	}

	return docFromRaw(raw), nil
}

func (s *Store) Query(ctx context.Context, collection, field string, value any) ([]store.Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{field: value})

	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return docsFromCursor(ctx, cur)
}

func (s *Store) Add(ctx context.Context, collection string, body map[string]any) (string, error) {
	id := primitive.NewObjectID().Hex()

	if err := s.Set(ctx, collection, id, body); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, body map[string]any) error {
	doc := bson.M{"_id": id}

	for k, v := range body {
		doc[k] = v
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)

	return err
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(patch)})

	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})

	return err
}

func (s *Store) Scan(ctx context.Context, collection string) ([]store.Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{})

	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return docsFromCursor(ctx, cur)
}

// batch as a session transaction: deletes and writes land together or
// not at all. Requires the server to run as a replica set.

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

func (b *batch) Commit(ctx context.Context) error {
	session, err := b.store.client.StartSession()

	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, o := range b.ops {
			switch o.kind {
			case opDelete:
				if err := b.store.Delete(sc, o.collection, o.id); err != nil {
					return nil, err
				}
			case opSet:
				if err := b.store.Set(sc, o.collection, o.id, o.body); err != nil {
					return nil, err
				}
			case opAdd:
				if _, err := b.store.Add(sc, o.collection, o.body); err != nil {
					return nil, err
				}
			}
		}

		return nil, nil
	})

	if err == nil {
		b.ops = nil
	}

	return err
}

// decode helpers

func docsFromCursor(ctx context.Context, cur *mongo.Cursor) ([]store.Doc, error) {
	docs := []store.Doc{}

	for cur.Next(ctx) {
		var raw bson.M

		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}

		docs = append(docs, docFromRaw(raw))
	}

	return docs, cur.Err()
}

func docFromRaw(raw bson.M) store.Doc {
	id, _ := raw["_id"].(string)
	delete(raw, "_id")

	body := make(map[string]any, len(raw))

	for k, v := range raw {
		body[k] = normalize(v)
	}

	return store.Doc{ID: id, Body: body}
}

// normalize maps bson decode types back to plain Go values so callers
// never see driver primitives.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}
