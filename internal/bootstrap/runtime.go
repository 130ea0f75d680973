// Package bootstrap wires the process-level dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ApplySchema   bool
	EnsureAdmin   bool
	EnsureContent bool
	Tracing       bool
}

// Runtime holds the connections opened by InitRuntime.
type Runtime struct {
	DB              *gorm.DB
	Redis           *redis.Client
	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis, then runs the requested
// startup steps. Redis is optional and may be nil on return.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{shutdownTracing: func(context.Context) error { return nil }}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "atelier-api",
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return nil, err
		}
	}

	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	if opts.EnsureAdmin {
		if _, _, err := EnsureAdmin(ctx, cfg, db); err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}
	if opts.EnsureContent {
		if _, err := EnsureContent(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to initialize site content: %w", err)
		}
	}

	return rt, nil
}

// ShutdownTracing flushes pending spans.
func (rt *Runtime) ShutdownTracing(ctx context.Context) {
	if err := rt.shutdownTracing(ctx); err != nil {
		middleware.Logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}
}

// Close flushes tracing and releases the connections held by the runtime.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.ShutdownTracing(ctx)
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB == nil {
		return nil
	}
	sqlDB, err := rt.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Accounts returns an AccountService for administrative tooling. It carries
// no token issuer, so it cannot sign accounts in.
func Accounts(db *gorm.DB) *service.AccountService {
	return service.NewAccountService(
		db,
		repository.NewAccountRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewEngagementRepository(db),
		service.NewContentService(repository.NewContentRepository(db)),
		nil, nil, nil,
	)
}

// EnsureAdmin creates the admin named by ADMIN_EMAIL when it does not exist.
// It reports the account and whether it was created. An existing account
// with that email and another role is an error.
func EnsureAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) (*models.Account, bool, error) {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil, false, nil
	}

	existing, err := repository.NewAccountRepository(db).GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			return nil, false, fmt.Errorf("account %s exists with role %s", existing.Email, existing.Role)
		}
		return existing, false, nil
	}

	if cfg.AdminPassword == "" {
		return nil, false, fmt.Errorf("ADMIN_PASSWORD must be set when ADMIN_EMAIL is set")
	}
	name := cfg.AdminName
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	acc, err := Accounts(db).CreateAccount(ctx, name, email, cfg.AdminPassword, models.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	middleware.Logger.InfoContext(ctx, "admin account created", slog.String("email", acc.Email), slog.Uint64("account_id", uint64(acc.ID)))
	return acc, true, nil
}

// EnsureContent seeds the site document with default sections on first run.
func EnsureContent(ctx context.Context, db *gorm.DB) (bool, error) {
	return service.NewContentService(repository.NewContentRepository(db)).EnsureInitialized(ctx)
}
