package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/kotoba-backend/internal/adapter/lock"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/memstore"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres/job"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres/record"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres/structure"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/postgres/vocabulary"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/kotoba-backend/internal/config"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
	"github.com/heartmarshall/kotoba-backend/internal/service/learning"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
	"github.com/heartmarshall/kotoba-backend/internal/transport/middleware"
	"github.com/heartmarshall/kotoba-backend/internal/transport/rest"
)

// Services holds the wired application services and the resources behind them.
type Services struct {
	Parsing     *parsing.Service
	Integration *integration.Service
	Learning    *learning.Service

	components []rest.Component
	closers    []func()
}

// Close releases the store and lock connections.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Build connects the configured store and lock and wires the services.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Services, err error) {
	svcs := &Services{}
	defer func() {
		if err != nil {
			svcs.Close()
		}
	}()

	st, err := svcs.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	locker, err := svcs.openLock(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	words, err := japanese.Default()
	if err != nil {
		return nil, fmt.Errorf("japanese tokenizer: %w", err)
	}

	svcs.Integration = integration.NewService(logger,
		st.records, st.vocabulary, st.structures, st.jobs,
		locker, integrationConfig(cfg.Integration))

	p := parser.New(words)
	if cfg.AI.AnalyzeEnabled() {
		analyzer := anthropic.New(anthropic.Config{
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.Timeout,
			BaseURL:   cfg.AI.BaseURL,
		}, logger)
		svcs.Parsing = parsing.NewService(logger, analyzer, p, st.records, svcs.Integration)
	} else {
		logger.Warn("AI_API_KEY not set, text analysis disabled")
		svcs.Parsing = parsing.NewService(logger, nil, p, st.records, svcs.Integration)
	}

	svcs.Learning = learning.NewService(logger, st.records, st.vocabulary, st.structures, words)

	return svcs, nil
}

func (s *Services) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	if !cfg.Store.UsesPostgres() {
		logger.Warn("using in-memory store, data is lost on restart")
		mem := memstore.New()
		return &store{
			records:    mem.Records(),
			vocabulary: mem.Vocabulary(),
			structures: mem.Structures(),
			jobs:       mem.Jobs(),
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s.closers = append(s.closers, pool.Close)
	s.components = append(s.components, rest.Component{Name: "database", Pinger: poolPinger{pool}})

	schema := postgres.NewSchema(pool, logger)
	if cfg.Database.AutoMigrate {
		if err := schema.Ensure(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	txm := postgres.NewTxManager(pool)
	return &store{
		records:    record.New(pool, schema),
		vocabulary: vocabulary.New(pool, txm, schema),
		structures: structure.New(pool, txm, schema),
		jobs:       job.New(pool, schema),
	}, nil
}

func (s *Services) openLock(ctx context.Context, cfg *config.Config, logger *slog.Logger) (jobLocker, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-process job lock")
		return lock.NewLocal(), nil
	}

	rdb, err := lock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	s.closers = append(s.closers, func() { _ = rdb.Close() })

	l := lock.NewRedis(rdb, cfg.Redis.LockTTL)
	s.components = append(s.components, rest.Component{Name: "lock", Pinger: l})
	return l, nil
}

func integrationConfig(c config.IntegrationConfig) integration.Config {
	return integration.Config{
		PageSize:         c.PageSize,
		WriteBatchSize:   c.WriteBatchSize,
		MaxExamples:      c.MaxExamples,
		RepairGroupLimit: c.RepairGroupLimit,
		FlushConcurrency: c.FlushConcurrency,
		IncludeGuessed:   c.IncludeGuessed,
	}
}

// poolPinger adapts pgxpool.Pool to the health check interface.
type poolPinger struct{ pool *pgxpool.Pool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// Run is the server entry point. It loads configuration, wires the services
// and serves HTTP until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log, os.Stderr)
	logger.Info("starting application",
		slog.String("build", BuildVersion()),
		slog.String("store", cfg.Store.Driver),
		slog.String("log_level", cfg.Log.Level),
	)

	svcs, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svcs.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	handler := rest.NewRouter(rest.Handlers{
		Health:      rest.NewHealthHandler(Version, svcs.components...),
		Parse:       rest.NewParseHandler(svcs.Parsing, logger),
		Integration: rest.NewIntegrationHandler(svcs.Integration, logger),
		Learning:    rest.NewLearningHandler(svcs.Learning, logger),
	}, rest.RouterConfig{
		CORS:             cfg.CORS,
		TrustProxy:       cfg.Server.TrustProxy,
		AnalyzePerMinute: cfg.RateLimit.AnalyzePerMinute,
	}, limiter, logger)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
