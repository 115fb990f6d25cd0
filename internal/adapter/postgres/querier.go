package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// Querier is the common interface implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// unexported context key type for storing tx
type txCtxKey struct{}

// withTx puts a transaction into the context.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// QuerierFromCtx returns the transaction from context if present,
// otherwise returns the pool.
func QuerierFromCtx(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Builder returns a squirrel statement builder using $n placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// AggregateWhere translates an aggregate filter into a predicate over the
// total_occurrences and tags columns shared by both aggregate tables.
func AggregateWhere(f domain.AggregateFilter) squirrel.And {
	where := squirrel.And{}
	switch f.MasteryOrAll() {
	case domain.MasteryMastered:
		where = append(where, squirrel.GtOrEq{"total_occurrences": domain.MasteryThreshold})
	case domain.MasteryUnmastered:
		where = append(where, squirrel.Lt{"total_occurrences": domain.MasteryThreshold})
	}
	if f.Tag != "" {
		where = append(where, squirrel.Expr("? = ANY(tags)", f.Tag))
	}
	return where
}

// LockKeys takes a transaction-scoped advisory lock on every key of one
// collection. Keys are locked in sorted order so that concurrent writers
// touching overlapping key sets cannot deadlock. It must run inside RunInTx.
func LockKeys(ctx context.Context, q Querier, collection string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	batch := &pgx.Batch{}
	for _, k := range sorted {
		batch.Queue(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, collection+":"+k)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
	}
	return nil
}
