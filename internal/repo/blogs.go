package repo

import (
	"context"
	"errors"
	"time"

	"github.com/socialnomad/nomadblog/internal/domain/blog"
	"github.com/socialnomad/nomadblog/internal/store"
)

// BlogsRepo maps posts onto the blogs collection. Creation timestamps are
// taken in the canonical zone so every stored post carries the same offset.
type BlogsRepo struct {
	store store.Store
	loc   *time.Location
}

func NewBlogsRepo(s store.Store, loc *time.Location) *BlogsRepo {
	if loc == nil {
		loc = time.UTC
	}

	return &BlogsRepo{store: s, loc: loc}
}

func (r *BlogsRepo) Create(ctx context.Context, title, content, writerID string) (blog.Post, error) {
	p := blog.Post{
		Title:     title,
		Content:   content,
		Writer:    writerID,
		CreatedAt: time.Now().In(r.loc),
	}

	id, err := r.store.Add(ctx, store.BlogsCollection, map[string]any{
		"title":      p.Title,
		"content":    p.Content,
		"writer":     p.Writer,
		"created_at": p.CreatedAt,
	})

	if err != nil {
		return blog.Post{}, err
	}

	p.ID = id

	return p, nil
}

func (r *BlogsRepo) GetByID(ctx context.Context, id string) (blog.Post, error) {
	doc, err := r.store.Get(ctx, store.BlogsCollection, id)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return blog.Post{}, blog.ErrNotFound
		}

		return blog.Post{}, err
	}

	return postFromDoc(doc), nil
}

func (r *BlogsRepo) List(ctx context.Context) ([]blog.Post, error) {
	docs, err := r.store.Scan(ctx, store.BlogsCollection)

	if err != nil {
		return nil, err
	}

	posts := make([]blog.Post, 0, len(docs))

	for _, doc := range docs {
		posts = append(posts, postFromDoc(doc))
	}

	return posts, nil
}

// Update merges a field patch into the stored document. Callers strip
// protected fields before handing the patch over.
func (r *BlogsRepo) Update(ctx context.Context, id string, patch map[string]any) error {
	err := r.store.Update(ctx, store.BlogsCollection, id, patch)

	if errors.Is(err, store.ErrNotFound) {
		return blog.ErrNotFound
	}

	return err
}

func (r *BlogsRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.BlogsCollection, id)
}

func postFromDoc(doc store.Doc) blog.Post {
	return blog.Post{
		ID:        doc.ID,
		Title:     asString(doc.Body["title"]),
		Content:   asString(doc.Body["content"]),
		Writer:    asString(doc.Body["writer"]),
		CreatedAt: asTime(doc.Body["created_at"]),
	}
}

// asTime tolerates the string form a permissive restore may have left
// behind; an unparsable value yields the zero time.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed
		}
	}

	return time.Time{}
}
