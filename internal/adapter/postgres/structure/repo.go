// Package structure implements the sentence structure and grammar point
// aggregate collection using PostgreSQL.
package structure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/kotoba-backend/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const (
	table   = "sentence_structures_integrated"
	columns = `id, structure, category, difficulty, examples, sources, total_occurrences, first_seen, last_seen, level, tags, mastery_reset, created_at, updated_at`
)

const upsertSQL = `
INSERT INTO sentence_structures_integrated (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (structure) DO UPDATE SET
    category          = EXCLUDED.category,
    difficulty        = EXCLUDED.difficulty,
    examples          = EXCLUDED.examples,
    sources           = EXCLUDED.sources,
    total_occurrences = EXCLUDED.total_occurrences,
    first_seen        = EXCLUDED.first_seen,
    last_seen         = EXCLUDED.last_seen,
    level             = EXCLUDED.level,
    tags              = EXCLUDED.tags,
    mastery_reset     = EXCLUDED.mastery_reset,
    updated_at        = EXCLUDED.updated_at`

// Repo provides structure aggregate persistence backed by PostgreSQL.
type Repo struct {
	pool   *pgxpool.Pool
	txm    *postgres.TxManager
	schema *postgres.Schema
}

// New creates a new structure repository. schema may be nil.
func New(pool *pgxpool.Pool, txm *postgres.TxManager, schema *postgres.Schema) *Repo {
	return &Repo{pool: pool, txm: txm, schema: schema}
}

// Merge upserts a batch of aggregates atomically. Every structure in the batch is
// advisory-locked for the duration of the transaction, existing rows are read
// and folded with merge, and the results are written back in one pgx.Batch.
// Items without an existing row are inserted as-is.
func (r *Repo) Merge(ctx context.Context, items []domain.StructureAggregate, merge domain.StructureMergeFunc) (domain.MergeResult, error) {
	if len(items) == 0 {
		return domain.MergeResult{}, nil
	}

	var result domain.MergeResult
	err := r.schema.RetryMissing(ctx, func(ctx context.Context) error {
		result = domain.MergeResult{}
		return r.txm.RunInTx(ctx, func(ctx context.Context) error {
			q := postgres.QuerierFromCtx(ctx, r.pool)

			keys := make([]string, 0, len(items))
			for _, it := range items {
				keys = append(keys, it.Structure)
			}
			if err := postgres.LockKeys(ctx, q, table, keys); err != nil {
				return err
			}

			current, err := r.byKeys(ctx, q, keys)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			var dirty []string
			for _, it := range items {
				if ex, ok := current[it.Structure]; ok {
					if merge(ex, it) {
						ex.UpdatedAt = now
						dirty = appendOnce(dirty, it.Structure)
						result.Updated++
					} else {
						result.Unchanged++
					}
					continue
				}
				fresh := it
				if fresh.ID == uuid.Nil {
					fresh.ID = uuid.New()
				}
				fresh.CreatedAt, fresh.UpdatedAt = now, now
				current[it.Structure] = &fresh
				dirty = appendOnce(dirty, it.Structure)
				result.Added++
			}

			batch := &pgx.Batch{}
			for _, w := range dirty {
				queueUpsert(batch, *current[w])
			}
			return sendBatch(ctx, q, batch)
		})
	})
	if err != nil {
		return domain.MergeResult{}, err
	}
	return result, nil
}

// DeleteAll removes every aggregate. A missing table counts as already empty.
func (r *Repo) DeleteAll(ctx context.Context) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM `+table)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// GetByKey returns an aggregate by its exact structure text.
func (r *Repo) GetByKey(ctx context.Context, key string) (*domain.StructureAggregate, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	a, err := scanAggregate(q.QueryRow(ctx, `SELECT `+columns+` FROM `+table+` WHERE structure = $1`, key))
	if err != nil {
		return nil, notFoundIfMissing(postgres.MapError(err, "structure", key), key)
	}
	return &a, nil
}

// GetByIDs returns the aggregates with the given IDs in no particular order.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.StructureAggregate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT `+columns+` FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get structures by ids: %w", err)
	}
	return collect(rows)
}

// ListKeys returns the id, structure text and example count of every aggregate.
func (r *Repo) ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT id, structure, jsonb_array_length(examples) FROM `+table+` ORDER BY structure`)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list structure keys: %w", err)
	}
	defer rows.Close()

	var out []domain.AggregateKeyRef
	for rows.Next() {
		var ref domain.AggregateKeyRef
		if err := rows.Scan(&ref.ID, &ref.Key, &ref.ExampleCount); err != nil {
			return nil, fmt.Errorf("scan structure key: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ReplaceGroup stores the merged survivor of a duplicate group and deletes the
// other members, in one transaction.
func (r *Repo) ReplaceGroup(ctx context.Context, keep domain.StructureAggregate, remove []uuid.UUID) error {
	return r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		if len(remove) > 0 {
			if _, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, remove); err != nil {
				return fmt.Errorf("delete duplicates of %s: %w", keep.Structure, err)
			}
		}

		keep.UpdatedAt = time.Now().UTC()
		a := withDefaults(keep)
		tag, err := q.Exec(ctx,
			`UPDATE `+table+` SET examples = $2, sources = $3, total_occurrences = $4,
			        first_seen = $5, last_seen = $6, updated_at = $7
			 WHERE id = $1`,
			a.ID, a.Examples, a.Sources, a.TotalOccurrences, a.FirstSeen, a.LastSeen, a.UpdatedAt,
		)
		if err != nil {
			return postgres.MapError(err, "structure", keep.Structure)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("structure %s: %w", keep.Structure, domain.ErrNotFound)
		}
		return nil
	})
}

// CountByMastery partitions the collection at the mastery threshold,
// optionally restricted to aggregates carrying tag.
func (r *Repo) CountByMastery(ctx context.Context, tag string) (domain.MasteryCounts, error) {
	qb := postgres.Builder().
		Select("count(*)", fmt.Sprintf("count(*) FILTER (WHERE total_occurrences >= %d)", domain.MasteryThreshold)).
		From(table)
	if tag != "" {
		qb = qb.Where("? = ANY(tags)", tag)
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return domain.MasteryCounts{}, fmt.Errorf("build count query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	var c domain.MasteryCounts
	if err := q.QueryRow(ctx, sql, args...).Scan(&c.All, &c.Mastered); err != nil {
		if postgres.IsUndefinedTable(err) {
			return domain.MasteryCounts{}, nil
		}
		return domain.MasteryCounts{}, fmt.Errorf("count structures: %w", err)
	}
	c.Unmastered = c.All - c.Mastered
	return c, nil
}

// List returns a page of aggregates matching the filter together with the
// total number of matches, ordered like the vocabulary listing.
func (r *Repo) List(ctx context.Context, filter domain.AggregateFilter) ([]domain.StructureAggregate, int, error) {
	where := postgres.AggregateWhere(filter)

	q := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		if postgres.IsUndefinedTable(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("count structures: %w", err)
	}

	qb := postgres.Builder().
		Select(strings.Split(columns, ", ")...).
		From(table).
		Where(where).
		OrderBy("total_occurrences ASC", "last_seen DESC", "structure ASC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list structures: %w", err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (r *Repo) byKeys(ctx context.Context, q postgres.Querier, keys []string) (map[string]*domain.StructureAggregate, error) {
	rows, err := q.Query(ctx, `SELECT `+columns+` FROM `+table+` WHERE structure = ANY($1)`, keys)
	if err != nil {
		return nil, postgres.MapError(err, "structure", "batch")
	}
	list, err := collect(rows)
	if err != nil {
		return nil, postgres.MapError(err, "structure", "batch")
	}

	out := make(map[string]*domain.StructureAggregate, len(list))
	for i := range list {
		out[list[i].Structure] = &list[i]
	}
	return out, nil
}

func queueUpsert(b *pgx.Batch, a domain.StructureAggregate) {
	a = withDefaults(a)
	b.Queue(upsertSQL,
		a.ID, a.Structure, a.Category, a.Difficulty, a.Examples, a.Sources, a.TotalOccurrences,
		a.FirstSeen, a.LastSeen, a.Level, a.Tags, a.MasteryReset, a.CreatedAt, a.UpdatedAt,
	)
}

func sendBatch(ctx context.Context, q postgres.Querier, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "structure", "batch")
		}
	}
	return nil
}

// withDefaults replaces nil slices and blank constants so NOT NULL columns accept the row.
func withDefaults(a domain.StructureAggregate) domain.StructureAggregate {
	if a.Examples == nil {
		a.Examples = []domain.AggregateExample{}
	}
	if a.Sources == nil {
		a.Sources = []uuid.UUID{}
	}
	if a.Tags == nil {
		a.Tags = domain.DefaultTags()
	}
	if a.Level == "" {
		a.Level = domain.LevelUserParsed
	}
	if a.Category == "" {
		a.Category = domain.CategorySentenceStructure
	}
	if a.Difficulty == "" {
		a.Difficulty = domain.DifficultyBasic
	}
	now := time.Now().UTC()
	if a.FirstSeen.IsZero() {
		a.FirstSeen = now
	}
	if a.LastSeen.IsZero() {
		a.LastSeen = a.FirstSeen
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	return a
}

func appendOnce(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func notFoundIfMissing(err error, key string) error {
	if errors.Is(err, domain.ErrCollectionMissing) {
		return fmt.Errorf("structure %s: %w", key, domain.ErrNotFound)
	}
	return err
}

func collect(rows pgx.Rows) ([]domain.StructureAggregate, error) {
	defer rows.Close()

	var out []domain.StructureAggregate
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan structure: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanAggregate(row pgx.Row) (domain.StructureAggregate, error) {
	var a domain.StructureAggregate
	err := row.Scan(
		&a.ID, &a.Structure, &a.Category, &a.Difficulty, &a.Examples, &a.Sources, &a.TotalOccurrences,
		&a.FirstSeen, &a.LastSeen, &a.Level, &a.Tags, &a.MasteryReset, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}
