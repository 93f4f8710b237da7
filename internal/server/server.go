// Package server contains the HTTP and WebSocket handlers for the blog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/featureflags"
	"inkwell/internal/imagehost"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	flags    *featureflags.Set
	verifier auth.Verifier
	images   imagehost.Host
	notifier *notifications.Notifier
	hub      *notifications.Hub
	views    *cache.ViewCache

	identityService   *service.IdentityService
	articleService    *service.ArticleService
	commentService    *service.CommentService
	engagementService *service.EngagementService
	analyticsService  *service.AnalyticsService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.InitRedis(cfg.RedisURL)

	provider, err := auth.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	images, err := imagehost.NewHost(cfg)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient, provider, images)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting and cross-process fan-out are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, provider auth.Provider, images imagehost.Host) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if provider == nil {
		return nil, errors.New("auth provider is required")
	}
	if images == nil {
		return nil, errors.New("image host is required")
	}

	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	notifier := notifications.NewNotifier(redisClient)
	views := cache.NewViewCache(redisClient, time.Duration(cfg.ViewCacheTTLSeconds)*time.Second, notifier)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		flags:          featureflags.Parse(cfg.FeatureFlags),
		verifier:       provider,
		images:         images,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		views:          views,
	}

	s.identityService = service.NewIdentityService(userRepo, provider)
	s.articleService = service.NewArticleService(articleRepo, commentRepo, engagementRepo, images, views, service.ArticleOptions{
		Folder:         cfg.ImageFolder,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		PageSize:       cfg.ArticlesPageSize,
	})
	s.commentService = service.NewCommentService(commentRepo, articleRepo, views)
	s.engagementService = service.NewEngagementService(engagementRepo, articleRepo, views)
	s.analyticsService = service.NewAnalyticsService(analyticsRepo, views, cfg.AnalyticsWindow)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// uploaded images are embedded by the frontend origin
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.config.ImageHost == config.ImageHostLocal && strings.HasPrefix(s.config.ImagePublicBaseURL, "/") {
		app.Static(s.config.ImagePublicBaseURL, s.config.ImageUploadDir, fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/search", s.SearchRedirect)

	articles := api.Group("/articles")
	articles.Get("/", s.OptionalIdentity(), s.ListArticles)
	articles.Post("/", s.IdentityRequired(),
		middleware.RateLimit(s.redis, 10, 10*time.Minute, "create_article"), s.CreateArticle)
	// Specific /:id/:resource routes before the generic /:id routes
	articles.Get("/:id/edit", s.IdentityRequired(), s.GetArticleForEdit)
	articles.Post("/:id/edit", s.IdentityRequired(), s.UpdateArticle)
	articles.Post("/:id/comments", s.IdentityRequired(),
		middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	articles.Post("/:id/like", s.IdentityRequired(),
		middleware.RateLimit(s.redis, 60, time.Minute, "toggle"), s.ToggleLike)
	articles.Post("/:id/save", s.IdentityRequired(),
		middleware.RateLimit(s.redis, 60, time.Minute, "toggle"), s.ToggleSave)
	articles.Get("/:id", s.OptionalIdentity(), s.GetArticle)
	articles.Put("/:id", s.IdentityRequired(), s.UpdateArticle)
	articles.Post("/:id", s.IdentityRequired(), s.UpdateArticle)
	articles.Delete("/:id", s.IdentityRequired(), s.DeleteArticle)

	dashboard := api.Group("/dashboard", s.IdentityRequired())
	dashboard.Get("/", s.GetDashboard)
	dashboard.Get("/analytics", s.GetAnalytics)
	dashboard.Get("/saved", s.GetSavedArticles)

	api.Get("/me", s.IdentityRequired(), s.GetMe)
	api.Get("/features", s.OptionalIdentity(), s.GetFeatures)

	ws := api.Group("/ws", requireWebSocketUpgrade)
	ws.Get("/views", s.OptionalIdentity(), s.requireFeature(featureflags.ViewStream), s.ViewStreamHandler())
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := int(s.config.MaxUploadBytes()) + 1024*1024
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// StartBackground wires the view-stream hub to the stale-view notifier.
func (s *Server) StartBackground(ctx context.Context) error {
	return s.hub.StartWiring(ctx, s.notifier)
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.StartBackground(s.shutdownCtx); err != nil {
		middleware.Logger.Warn("failed to start view stream wiring", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Warn("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Warn("error shutting down view hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Warn("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Warn("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; without it the API runs uncached.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
