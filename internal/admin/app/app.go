package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	httpapi "github.com/aussiebroadwan/scripthub/internal/admin/http"
	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/internal/admin/store"
	"github.com/aussiebroadwan/scripthub/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/scripthub/pkg/csrfx"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	redisKeyPrefix = "scripthub:ratelimit:"
)

// Application wires the admin service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.HS256Codec
	redis *goredis.Client // nil unless RATELIMIT_STORE=redis

	limiter *httpx.FixedWindowLimiter
	guard   *csrfx.Guard

	sessionService      *service.SessionService
	contentService      *service.ContentService
	auditService        *service.AuditService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "scripthub-admin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.OwnerPasswordHash == "" {
		return nil, errors.New("ADMIN_OWNER_PASSWORD_HASH is required")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCodec(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initRateLimit(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("admin service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"mfa", app.sessionService.MFAEnabled(),
		"ratelimit_store", app.cfg.RateLimitStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("admin service stopped")
	return nil
}

func (app *Application) closeStores() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the refresh token ledger and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCodec() error {
	secret := []byte(app.cfg.TokenSecret)
	if len(secret) == 0 {
		var err error
		if secret, err = jwtx.GenerateSecret(); err != nil {
			return err
		}
		app.logger.Warn("ADMIN_TOKEN_SECRET not set, using an ephemeral secret; sessions end on restart")
	}

	codec, err := jwtx.NewHS256Codec(secret, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec
	return nil
}

func (app *Application) initRateLimit() error {
	var windows httpx.WindowStore
	switch app.cfg.RateLimitStore {
	case "", "memory":
		windows = httpx.NewMemoryWindowStore()
	case "redis":
		opts, err := goredis.ParseURL(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		app.redis = goredis.NewClient(opts)
		windows = httpx.NewRedisWindowStore(app.redis, redisKeyPrefix)
	default:
		return fmt.Errorf("unknown RATELIMIT_STORE %q", app.cfg.RateLimitStore)
	}

	app.limiter = httpx.NewFixedWindowLimiter(windows, httpx.WithKeyExtractor(app.clientIP()))
	app.guard = csrfx.NewGuard(csrfx.WithTTL(app.cfg.CSRFTTL))
	return nil
}

func (app *Application) clientIP() httpx.KeyExtractor {
	if app.cfg.TrustProxyHeaders {
		return httpx.IPKeyExtractor
	}
	return httpx.RemoteIPKeyExtractor
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	app.sessionService = &service.SessionService{
		Codec:        app.codec,
		Store:        app.db,
		Issuer:       app.cfg.Issuer,
		PasswordHash: app.cfg.OwnerPasswordHash,
		TOTPSecret:   app.cfg.OwnerTOTPSecret,
		AccessTTL:    app.cfg.AccessTTL,
		RefreshTTL:   app.cfg.RefreshTTL,
	}

	app.contentService = service.NewContentService(nil)
	if app.cfg.SeedFile != "" {
		if err := app.loadSeed(app.cfg.SeedFile); err != nil {
			return err
		}
	}

	app.auditService = service.NewAuditService(app.cfg.AuditCapacity)

	// The redis store expires its own keys.
	sweepers := map[string]service.Sweeper{"csrf": app.guard}
	if app.redis == nil {
		sweepers["ratelimit"] = app.limiter
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		sweepers,
	)
	return nil
}

// loadSeed restores a backup document as the initial catalog.
func (app *Application) loadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var b domain.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	n, err := app.contentService.Restore(b)
	if err != nil {
		return fmt.Errorf("invalid seed file: %w", err)
	}

	app.logger.Info("catalog seeded", "path", path, "scripts", n)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.limiter,
		app.guard,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Budgets = httpapi.BudgetsFromEnv()
	router.SiteLimit = httpx.ParseRateLimitFromEnv("SITE", httpx.SiteLimit)
	router.ClientIP = app.clientIP()
	router.SecureCookies = app.cfg.SecureCookies()
	if app.redis != nil {
		router.LimiterCheck = func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}
	}

	router.SessionService = app.sessionService
	router.ContentService = app.contentService
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
