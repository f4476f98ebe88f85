package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"hooklog/internal/api"
	"hooklog/internal/config"
	"hooklog/internal/ingest"
	"hooklog/internal/migrate"
	"hooklog/internal/observability"
	"hooklog/internal/providers/github"
	"hooklog/internal/store"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	_ "modernc.org/sqlite"
)

const defaultConnectTimeout = 10 * time.Second

type Runtime struct {
	Handler   http.Handler
	StoreMode string
	Cleanup   func()
}

func NewRuntime(ctx context.Context, cfg config.Config, logger logr.Logger) *Runtime {
	repo, mode := OpenRepository(ctx, cfg, logger.WithName("store"))
	registry := buildWebhookRegistry(cfg)
	if err := registry.MustHaveProviders(); err != nil {
		logger.Error(err, "webhook registry")
	}
	logger.Info("webhook providers registered", "providers", registry.Providers())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := api.NewServerWithOptions(repo, api.ServerOptions{
		Auth: api.AuthConfig{
			Read: api.ReadPolicy{
				Token:       cfg.Read.Token,
				HS256Secret: cfg.Read.JWTHS256Secret,
			},
			Audit: api.AuditPolicy{
				LogFile: cfg.Audit.LogFile,
			},
			Rate: api.RateLimitPolicy{
				Enabled:          cfg.RateLimit.Enabled,
				ReadPerMinute:    cfg.RateLimit.ReadPerMinute,
				WebhookPerMinute: cfg.RateLimit.WebhookPerMinute,
			},
		},
		WebhookRegistry: registry,
		StoreMode:       mode,
		Logger:          logger.WithName("api"),
		Observer:        observability.NewWebhookMetrics(reg),
	})

	metrics := observability.NewHTTPMetrics(reg)
	rootMux := http.NewServeMux()
	rootMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	rootMux.Handle("/", metrics.Wrap(server.Routes()))

	return &Runtime{
		Handler:   rootMux,
		StoreMode: mode,
		Cleanup: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				logger.Error(err, "close repository")
			}
		},
	}
}

func buildWebhookRegistry(cfg config.Config) *ingest.Registry {
	reg := ingest.NewRegistry()
	reg.Register(github.NewAdapter(cfg.WebhookSecret))
	return reg
}

// OpenRepository builds the configured store. A configured store that cannot
// be reached yields a DisabledRepository so requests fail with 500 instead of
// silently writing to memory. The returned mode labels the store in /healthz.
func OpenRepository(ctx context.Context, cfg config.Config, logger logr.Logger) (store.Repository, string) {
	mode := cfg.RepositoryMode()
	timeout := cfg.Store.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		repo store.Repository
		err  error
	)
	switch cfg.Store.Driver {
	case config.DriverMongo:
		repo, err = store.OpenMongoRepository(connectCtx, cfg.Store.DSN, cfg.Store.Database, cfg.Store.Collection)
	case config.DriverPgx, config.DriverSQLite:
		repo, err = openSQLRepository(connectCtx, cfg)
	case config.DriverMemory, "":
		logger.Info("running with in-memory repository")
		return store.NewMemoryRepository(), config.DriverMemory
	default:
		err = fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		logger.Error(err, "store unavailable, webhook and query requests will fail", "mode", mode)
		return store.NewDisabledRepository(err), mode + ":unavailable"
	}
	logger.Info("running with repository", "mode", mode)
	return repo, mode
}

func openSQLRepository(ctx context.Context, cfg config.Config) (store.Repository, error) {
	db, err := sql.Open(cfg.Store.Driver, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if cfg.Store.Migrate {
		if err := migrate.NewRunner(nil).Apply(ctx, db, cfg.Dialect()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration apply: %w", err)
		}
	}
	repo, err := store.NewSQLRepository(db, cfg.Dialect())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
