package blog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("post not found")

type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Writer is set once at creation from the authenticated principal and
	// can never be reassigned through an update payload.
	Writer    string    `json:"writer"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}
