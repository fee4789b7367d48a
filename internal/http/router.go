package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/socialnomad/nomadblog/internal/auth"
	"github.com/socialnomad/nomadblog/internal/backup"
	"github.com/socialnomad/nomadblog/internal/cache"
	"github.com/socialnomad/nomadblog/internal/config"
	"github.com/socialnomad/nomadblog/internal/http/handlers"
	"github.com/socialnomad/nomadblog/internal/http/middlewares"
	"github.com/socialnomad/nomadblog/internal/observability"
	"github.com/socialnomad/nomadblog/internal/repo"
	"github.com/socialnomad/nomadblog/internal/store"
)

// NewRouter wires middlewares, repositories and handlers onto one gin
// engine. The store decides the deployment flavor (mongo or in-memory);
// everything above it is identical.
func NewRouter(log *slog.Logger, cfg config.Config, st store.Store, postCache *cache.PostList, prom *observability.Prom, reg *prometheus.Registry) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("nomadblog"))
	}

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// canonical timezone for stored timestamps
	loc, err := time.LoadLocation(cfg.TimezoneName)

	if err != nil {
		log.Warn("unknown timezone, falling back to UTC", "tz", cfg.TimezoneName)
		loc = time.UTC
	}

	usersRepo := repo.NewUsersRepo(st)
	blogsRepo := repo.NewBlogsRepo(st, loc)
	engine := backup.NewEngine(st, loc)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	postsHandler := handlers.NewPostsHandler(blogsRepo, postCache)
	backupHandler := handlers.NewBackupHandler(engine, postCache, prom)

	ping := func() error {
		ctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return st.Ping(ctx)
	}
	healthHandler := handlers.NewHealthHandler(ping)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	credLimiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	r.POST("/register", credLimiter.Middleware(middlewares.KeyByIP), authHandler.Register)
	r.POST("/login", credLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
	r.GET("/profile", authMw.RequireAuth(), authHandler.Profile)

	r.GET("/backup", authMw.RequireAuth(), authMw.RequireOwner(), backupHandler.Backup)
	r.POST("/restore", authMw.RequireAuth(), authMw.RequireOwner(), backupHandler.Restore)

	r.POST("/posts", authMw.RequireAuth(), postsHandler.Create)
	r.GET("/posts", postsHandler.List)
	r.GET("/posts/:id", postsHandler.Get)
	r.PUT("/posts/:id", authMw.RequireAuth(), postsHandler.Update)
	r.DELETE("/posts/:id", authMw.RequireAuth(), postsHandler.Delete)

	r.GET("/users/:id", authMw.RequireAuth(), usersHandler.Get)

	return r
}
