package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/cache"
	"github.com/socialnomad/nomadblog/internal/config"
	"github.com/socialnomad/nomadblog/internal/domain/blog"
	"github.com/socialnomad/nomadblog/internal/http/middlewares"
)

type PostsRepo interface {
	Create(ctx context.Context, title, content, writerID string) (blog.Post, error)
	GetByID(ctx context.Context, id string) (blog.Post, error)
	List(ctx context.Context) ([]blog.Post, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
}

type PostsHandler struct {
	repo  PostsRepo
	cache *cache.PostList
}

func NewPostsHandler(repo PostsRepo, postCache *cache.PostList) *PostsHandler {
	return &PostsHandler{repo: repo, cache: postCache}
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	var req blog.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	post, err := h.repo.Create(cctx, req.Title, req.Content, p.UserID)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusCreated, gin.H{"id": post.ID, "message": "Post created"})
}

func (h *PostsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if posts, ok := h.cache.Get(cctx); ok {
		ctx.JSON(http.StatusOK, posts)
		return
	}

	posts, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	h.cache.Set(cctx, posts)

	ctx.JSON(http.StatusOK, posts)
}

func (h *PostsHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	post, err := h.repo.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not fetch post")
		return
	}

	ctx.JSON(http.StatusOK, post)
}

// Update reads the post, checks the ownership policy, then applies the
// patch. The read and the write are separate store calls: two concurrent
// mutations of the same post can race and the last write wins.
func (h *PostsHandler) Update(ctx *gin.Context) {
	var patch map[string]any

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		RespondBadRequest(ctx, "Invalid request body", nil)
		return
	}

	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	id := ctx.Param("id")
	post, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not fetch post")
		return
	}

	// writer can never be reassigned through a patch, whatever the
	// access outcome
	delete(patch, "writer")

	if !blog.CanMutate(p, post.Writer) {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	if err := h.repo.Update(cctx, id, patch); err != nil {
		RespondInternal(ctx, "Could not update post")
		return
	}

	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

func (h *PostsHandler) Delete(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	id := ctx.Param("id")
	post, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not fetch post")
		return
	}

	if !blog.CanMutate(p, post.Writer) {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
