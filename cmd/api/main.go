package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/socialnomad/nomadblog/internal/cache"
	"github.com/socialnomad/nomadblog/internal/config"
	httpx "github.com/socialnomad/nomadblog/internal/http"
	"github.com/socialnomad/nomadblog/internal/observability"
	"github.com/socialnomad/nomadblog/internal/repo"
	"github.com/socialnomad/nomadblog/internal/store"
	"github.com/socialnomad/nomadblog/internal/store/memory"
	"github.com/socialnomad/nomadblog/internal/store/mongodb"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "nomadblog", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	// store selection: mongo when configured, in-memory otherwise
	var st store.Store

	if cfg.MongoURI != "" {
		mongoStore, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)

		if err != nil {
			log.Error("mongo connect failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			cctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = mongoStore.Close(cctx)
		}()

		st = mongoStore
		log.Info("using mongodb store", "db", cfg.MongoDB)
	} else {
		st = memory.New()
		log.Warn("MONGO_URI not set, using in-memory store; data will not survive restarts")
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	st = store.WithMetrics(st, prom)

	postCache := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      30 * time.Second,
	})
	defer postCache.Close()

	if postCache != nil {
		if err := postCache.Ping(ctx); err != nil {
			log.Warn("redis unreachable, post list cache disabled", "err", err)
			postCache = nil
		}
	}

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	err := repo.EnsureOwner(seedCtx, repo.NewUsersRepo(st), cfg)
	cancelSeed()

	if err != nil {
		log.Error("owner seed failed", "err", err)
		os.Exit(1)
	}

	router := httpx.NewRouter(log, cfg, st, postCache, prom, reg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // restore blocks until the batch commits
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
