package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/migrations"
)

// Schema creates the store's tables from the embedded migrations, either
// at startup or lazily the first time a write finds a table missing.
type Schema struct {
	pool *pgxpool.Pool
	log  *slog.Logger

	mu    sync.Mutex
	ready bool
}

// NewSchema creates a Schema for pool.
func NewSchema(pool *pgxpool.Pool, log *slog.Logger) *Schema {
	return &Schema{pool: pool, log: log.With("component", "schema")}
}

// Ensure applies pending migrations. It is safe to call concurrently and
// across processes: goose serialises runners with a session advisory lock.
func (s *Schema) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("goose session locker: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS, goose.WithSessionLocker(locker))
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		s.log.InfoContext(ctx, "migration applied",
			slog.String("source", r.Source.Path),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}

	s.ready = true
	return nil
}

// RetryMissing runs fn and, if it failed because a table does not exist
// yet, applies the migrations and runs fn once more. A nil Schema runs fn
// exactly once.
func (s *Schema) RetryMissing(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if s == nil || err == nil || !(IsUndefinedTable(err) || errors.Is(err, domain.ErrCollectionMissing)) {
		return err
	}

	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	s.log.WarnContext(ctx, "collection missing, creating schema")
	if mErr := s.Ensure(ctx); mErr != nil {
		return fmt.Errorf("create schema: %w (original error: %v)", mErr, err)
	}
	return fn(ctx)
}
