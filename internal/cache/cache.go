// Package cache holds the public post list in redis so the hot unauthenticated
// read does not hit the document store on every request. Every mutation and
// every restore invalidates the whole list.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/socialnomad/nomadblog/internal/domain/blog"
)

const postListKey = "posts:list:v1"

type PostList struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New returns nil when no address is configured; a nil *PostList is safe
// to use and behaves as a permanent miss.
func New(cfg Config) *PostList {
	if cfg.Addr == "" {
		return nil
	}

	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &PostList{rdb: rdb, ttl: cfg.TTL}
}

func (c *PostList) Get(ctx context.Context) ([]blog.Post, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, postListKey).Bytes()

	if err != nil {
		return nil, false
	}

	var posts []blog.Post

	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false
	}

	return posts, true
}

func (c *PostList) Set(ctx context.Context, posts []blog.Post) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(posts)

	if err != nil {
		return
	}

	// best effort; a failed write only costs the next reader a scan
	_ = c.rdb.Set(ctx, postListKey, raw, c.ttl).Err()
}

func (c *PostList) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	_ = c.rdb.Del(ctx, postListKey).Err()
}

func (c *PostList) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.rdb.Ping(ctx).Err()
}

func (c *PostList) Close() error {
	if c == nil {
		return nil
	}

	return c.rdb.Close()
}
