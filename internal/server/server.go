// Package server contains the HTTP handlers and routing for the atelier API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "atelier/docs" // swagger docs
	"atelier/internal/auth"
	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/featureflags"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
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
	accountRepo    repository.AccountRepository
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	sessions       *auth.SessionValidator
	content        *service.ContentService
	products       *service.ProductService
	submissions    *service.SubmissionService
	accounts       *service.AccountService
	engagement     *service.EngagementService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limits and the activity feed are
// then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	accountRepo := repository.NewAccountRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)

	var notifier *notifications.Notifier
	if redisClient != nil {
		notifier = notifications.NewNotifier(redisClient)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	flags := featureflags.NewManager(cfg.FeatureFlags)
	content := service.NewContentService(repository.NewContentRepository(db)).WithNotifier(notifier)
	products := service.NewProductService(content, engagementRepo, notifier)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("atelier-api"),
		accountRepo:    accountRepo,
		notifier:       notifier,
		featureFlags:   flags,
		sessions:       auth.NewSessionValidator(issuer, accountRepo),
		content:        content,
		products:       products,
		submissions:    service.NewSubmissionService(db, submissionRepo, content, notifier),
		accounts:       service.NewAccountService(db, accountRepo, submissionRepo, engagementRepo, content, issuer, flags, notifier),
		engagement:     service.NewEngagementService(products, engagementRepo, cfg.CommentRateWindow()),
	}, nil
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Atelier API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if s.config.IsProduction() {
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
				return models.RespondWithError(c, fiber.StatusTooManyRequests,
					models.NewRateLimitedError("Too many requests, please try again later."))
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Atelier API Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	authGroup := api.Group("/auth")
	signupLimit := middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup")
	signinLimit := middleware.RateLimit(s.redis, 10, 5*time.Minute, "signin")
	authGroup.Post("/signup", signupLimit, s.SignUp(""))
	authGroup.Post("/signin", signinLimit, s.SignIn(""))
	authGroup.Post("/signout", s.AuthRequired(), s.SignOut)
	authGroup.Post("/vendor/signup", signupLimit, s.SignUp(models.RoleVendor))
	authGroup.Post("/vendor/signin", signinLimit, s.SignIn(models.RoleVendor))
	authGroup.Post("/user/signup", signupLimit, s.SignUp(models.RoleUser))
	authGroup.Post("/user/signin", signinLimit, s.SignIn(models.RoleUser))

	// Public catalog and site content
	api.Get("/content", s.GetContent)
	products := api.Group("/products", s.OptionalAuth())
	products.Get("/", s.ListProducts)
	products.Get("/:id/like", s.GetLikeStatus)
	products.Get("/:id/comments", s.ListComments)
	products.Get("/:id", s.GetProduct)

	// Protected routes
	protected := api.Group("", s.AuthRequired())
	protected.Get("/me", s.Me)

	productWrites := protected.Group("/products")
	productWrites.Post("/:id/like", s.LikeProduct)
	productWrites.Delete("/:id/like", s.UnlikeProduct)
	productWrites.Post("/:id/comments", s.AddComment)
	productWrites.Post("/", s.RoleRequired(models.RoleAdmin), s.CreateProduct)
	productWrites.Patch("/:id", s.RoleRequired(models.RoleAdmin), s.UpdateProduct)
	productWrites.Delete("/:id", s.RoleRequired(models.RoleAdmin), s.DeleteProduct)

	cart := protected.Group("/cart")
	cart.Get("/", s.GetCart)
	cart.Post("/", s.AddToCart)
	cart.Delete("/", s.ClearCart)
	cart.Patch("/:productId", s.UpdateCartItem)
	cart.Delete("/:productId", s.RemoveCartItem)

	submissions := protected.Group("/submissions", s.RoleRequired(models.RoleAdmin, models.RoleVendor))
	submissions.Get("/", s.ListSubmissions)
	submissions.Post("/", s.RoleRequired(models.RoleVendor), s.CreateSubmissions)
	submissions.Get("/:id", s.GetSubmission)

	edits := protected.Group("/edits", s.LegacyEditsEnabled())
	edits.Post("/", s.RoleRequired(models.RoleVendor), s.CreateEdits)
	edits.Get("/", s.RoleRequired(models.RoleAdmin, models.RoleVendor), s.ListEdits)
	edits.Patch("/:id/approve", s.AdminRequired(), s.ApproveEdit)
	edits.Patch("/:id/reject", s.AdminRequired(), s.RejectEdit)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/submissions", s.ListSubmissions)
	admin.Get("/submissions/:id", s.GetSubmission)
	admin.Patch("/submissions/:id/approve", s.ApproveSubmission)
	admin.Patch("/submissions/:id/reject", s.RejectSubmission)

	s.accountRoutes(admin.Group("/users"), models.RoleUser)
	s.accountRoutes(admin.Group("/vendors"), models.RoleVendor)

	admin.Get("/content", s.GetAdminContent)
	admin.Put("/content/sections/:name", s.SaveSection)
	admin.Get("/activity", s.GetActivity)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

func (s *Server) accountRoutes(group fiber.Router, role models.Role) {
	group.Get("/", s.ListAccounts(role))
	group.Post("/:id/password-reset", s.ResetAccountPassword(role))
	group.Post("/:id/revoke-sessions", s.RevokeAccountSessions(role))
	group.Get("/:id", s.GetAccount(role))
	group.Patch("/:id", s.UpdateAccount(role))
	group.Delete("/:id", s.DeleteAccount(role))
}

// HealthCheck is an alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: when
// it is not configured the service still reports ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "atelier-api",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
