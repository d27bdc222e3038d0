// Package server builds the comment and post services from configuration and
// runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkboard/internal/account"
	"github.com/JakeFAU/linkboard/internal/api"
	"github.com/JakeFAU/linkboard/internal/buildinfo"
	"github.com/JakeFAU/linkboard/internal/clock/system"
	"github.com/JakeFAU/linkboard/internal/comment"
	"github.com/JakeFAU/linkboard/internal/config"
	"github.com/JakeFAU/linkboard/internal/health"
	"github.com/JakeFAU/linkboard/internal/id"
	"github.com/JakeFAU/linkboard/internal/logging"
	"github.com/JakeFAU/linkboard/internal/metrics"
	"github.com/JakeFAU/linkboard/internal/policy/ratelimit"
	"github.com/JakeFAU/linkboard/internal/post"
	gcppublisher "github.com/JakeFAU/linkboard/internal/publisher/pubsub"
	"github.com/JakeFAU/linkboard/internal/session"
	memoryStorage "github.com/JakeFAU/linkboard/internal/storage/memory"
	pgstore "github.com/JakeFAU/linkboard/internal/storage/postgres"
)

// App is one runnable HTTP service with its background tasks.
type App struct {
	name            string
	port            int
	shutdownTimeout time.Duration
	logger          *zap.Logger
	handler         http.Handler
	background      []func(context.Context)
	closers         []func(context.Context) error
}

// Handler exposes the service router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and runs background tasks until ctx is cancelled or the
// process receives SIGINT/SIGTERM, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, task := range a.background {
		go task(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("service", a.name), zap.Int("port", a.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated", zap.String("service", a.name))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve %s: %w", a.name, err)
	default:
		return closeErr
	}
}

// Close releases stores and clients in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.logger.Info("shutdown complete", zap.String("service", a.name))
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func newApp(name string, port int, cfg config.Config, logger *zap.Logger) *App {
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &App{
		name:            name,
		port:            port,
		shutdownTimeout: timeout,
		logger:          logger,
	}
}

// BuildCommentService wires the comment service, its health scheduler and
// metrics.
func BuildCommentService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := newApp("comment", cfg.Server.CommentPort, cfg, logger)

	info, warnings, err := buildinfo.Load(cfg.Build.VersionFile, cfg.Build.InfoFile)
	if err != nil {
		return nil, fmt.Errorf("load build info: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	logger.Info("build info", zap.String("version", info.Version), zap.String("semver", info.Semver),
		zap.String("commit_hash", info.CommitHash), zap.String("branch", info.Branch))

	sink, err := metrics.NewSink()
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}

	comments, err := setupComments(ctx, app, cfg, sink, "comment")
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	prober, err := setupProber(cfg, info.Version, logger.Named("health"))
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	scheduler := health.NewScheduler(prober, sink, info.Version, info.Labels(), cfg.Health.Interval, logger.Named("health"))
	app.background = append(app.background, scheduler.Run)

	app.handler = api.NewCommentServer(
		comments,
		scheduler,
		sink,
		logging.NewEvents(logger, "comment"),
		setupLimiter(cfg, logger),
		logger.Named("api"),
	).Handler()
	return app, nil
}

// BuildPostService wires posts, votes, accounts and sessions.
func BuildPostService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := newApp("post", cfg.Server.PostPort, cfg, logger)

	sink, err := metrics.NewSink()
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}
	events := logging.NewEvents(logger, "post")
	clock := system.New()

	var postStore post.Store
	var userStore account.Store
	switch cfg.PostDatabase.Backend {
	case config.BackendMemory:
		logger.Info("using in-memory post store")
		postStore = memoryStorage.NewPostStore()
		userStore = memoryStorage.NewUserStore()
	default:
		pool, err := openPostgres(ctx, app, cfg.PostDatabase, pgstore.SchemaPosts)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		postStore = pgstore.NewPostStore(pool)
		userStore = pgstore.NewUserStore(pool)
	}

	comments, err := setupComments(ctx, app, cfg, sink, "post")
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.handler = api.NewPostServer(
		post.NewService(postStore, id.NewGenerator(), clock, events),
		account.NewService(userStore, clock, events),
		comments,
		session.NewManager(cfg.Session.CookieName, cfg.Session.Secure),
		sink,
		setupLimiter(cfg, logger),
		logger.Named("api"),
	).Handler()
	return app, nil
}

// Migrate applies both schemas to their configured databases.
func Migrate(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	targets := []struct {
		db     config.DatabaseConfig
		schema pgstore.Schema
	}{
		{cfg.Database, pgstore.SchemaComments},
		{cfg.PostDatabase, pgstore.SchemaPosts},
	}
	for _, t := range targets {
		if t.db.Backend == config.BackendMemory {
			logger.Info("skipping in-memory database", zap.String("schema", string(t.schema)))
			continue
		}
		pool, err := pgstore.NewPool(ctx, poolConfig(t.db))
		if err != nil {
			return fmt.Errorf("open %s database: %w", t.schema, err)
		}
		err = pgstore.Migrate(ctx, pool, t.schema)
		pool.Close()
		if err != nil {
			return err //nolint:wrapcheck // already wrapped with schema name
		}
		logger.Info("schema migrated", zap.String("schema", string(t.schema)), zap.String("database", t.db.Name))
	}
	return nil
}

func setupComments(ctx context.Context, app *App, cfg config.Config, sink *metrics.Sink, service string) (*comment.Service, error) {
	var store comment.Store
	switch cfg.Database.Backend {
	case config.BackendMemory:
		app.logger.Info("using in-memory comment store")
		store = memoryStorage.NewCommentStore()
	default:
		pool, err := openPostgres(ctx, app, cfg.Database, pgstore.SchemaComments)
		if err != nil {
			return nil, err
		}
		store = pgstore.NewCommentStore(pool)
	}

	var opts []comment.Option
	if cfg.PubSub.ProjectID != "" {
		pub, err := gcppublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return nil, fmt.Errorf("pubsub init failed: %w", err)
		}
		app.onClose(func(context.Context) error { return pub.Close() })
		opts = append(opts, comment.WithPublisher(pub, cfg.PubSub.TopicName))
		app.logger.Info("publishing comment notifications", zap.String("topic", cfg.PubSub.TopicName))
	}

	svc := comment.NewService(
		store,
		id.NewGenerator(),
		system.New(),
		sink,
		logging.NewEvents(app.logger.Named("comments"), service),
		opts...,
	)
	app.onClose(svc.Wait)
	return svc, nil
}

func poolConfig(db config.DatabaseConfig) pgstore.PoolConfig {
	return pgstore.PoolConfig{
		DSN:             db.DSN(),
		MaxConns:        db.MaxConns,
		MinConns:        db.MinConns,
		MaxConnLifetime: db.MaxConnLifetime,
	}
}

func openPostgres(ctx context.Context, app *App, db config.DatabaseConfig, schema pgstore.Schema) (*pgxpool.Pool, error) {
	pool, err := pgstore.NewPool(ctx, poolConfig(db))
	if err != nil {
		return nil, fmt.Errorf("postgres init failed: %w", err)
	}
	if err := pgstore.Migrate(ctx, pool, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate failed: %w", err)
	}
	app.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})
	app.logger.Debug("postgres store ready", zap.String("database", db.Name), zap.String("host", db.Host))
	return pool, nil
}

func setupProber(cfg config.Config, version string, logger *zap.Logger) (health.Probe, error) {
	if cfg.Database.Backend == config.BackendMemory {
		return memoryProbe{version: version}, nil
	}
	connector, err := health.NewPostgresConnector(cfg.Database.DSN(), cfg.Health.Timeout)
	if err != nil {
		return nil, fmt.Errorf("health connector init failed: %w", err)
	}
	return health.NewProber(connector, version, cfg.Health.Timeout, logger), nil
}

// memoryProbe reports the in-process comment store as always available.
type memoryProbe struct {
	version string
}

func (p memoryProbe) Probe(context.Context) health.Report {
	return health.Report{
		Status:            health.Available,
		DependentServices: health.DependentServices{CommentDB: health.Available},
		Version:           p.version,
	}
}

func setupLimiter(cfg config.Config, logger *zap.Logger) api.WriteLimiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(ratelimit.Config{
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
		IdleTTL: cfg.RateLimit.IdleTTL,
	}, logger.Named("ratelimit"))
}
