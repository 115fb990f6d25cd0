// Package record implements parse-record persistence using PostgreSQL.
// Records are append-only: there is no update or delete.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/kotoba-backend/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const columns = `id, title, article_title, sentences, raw_text, created_at`

// Repo provides parse record persistence backed by PostgreSQL.
type Repo struct {
	pool   *pgxpool.Pool
	schema *postgres.Schema
}

// New creates a new record repository. schema may be nil, in which case a
// missing table is never created lazily.
func New(pool *pgxpool.Pool, schema *postgres.Schema) *Repo {
	return &Repo{pool: pool, schema: schema}
}

// Create stores a record, assigning its ID and CreatedAt when unset.
func (r *Repo) Create(ctx context.Context, rec *domain.ParseRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	sentences := rec.Sentences
	if sentences == nil {
		sentences = []domain.SentenceAnnotation{}
	}

	return r.schema.RetryMissing(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		_, err := q.Exec(ctx,
			`INSERT INTO parse_records (id, title, article_title, sentences, raw_text, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID, rec.Title, rec.ArticleTitle, sentences, rec.RawText, rec.CreatedAt,
		)
		return postgres.MapError(err, "parse_record", rec.ID.String())
	})
}

// GetByID returns a record by primary key.
// Returns domain.ErrNotFound if it does not exist, including when the table does not.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(q.QueryRow(ctx, `SELECT `+columns+` FROM parse_records WHERE id = $1`, id))
	if err != nil {
		err = postgres.MapError(err, "parse_record", id.String())
		if errors.Is(err, domain.ErrCollectionMissing) {
			return nil, fmt.Errorf("parse_record %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// ListPage returns up to limit records ordered by (created_at DESC, id DESC),
// starting after the cursor position. A nil cursor starts at the newest record.
// A missing table reads as an empty history.
func (r *Repo) ListPage(ctx context.Context, after *domain.RecordCursor, limit int) ([]domain.ParseRecord, error) {
	qb := postgres.Builder().
		Select(strings.Split(columns, ", ")...).
		From("parse_records").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if after != nil {
		qb = qb.Where(squirrel.Expr("(created_at, id) < (?, ?)", after.CreatedAt, after.ID))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list parse_records: %w", err)
	}
	defer rows.Close()

	var out []domain.ParseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parse_record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		if postgres.IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list parse_records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records; zero when the table does not exist.
func (r *Repo) Count(ctx context.Context) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM parse_records`).Scan(&n); err != nil {
		if postgres.IsUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count parse_records: %w", err)
	}
	return n, nil
}

func scanRecord(row pgx.Row) (domain.ParseRecord, error) {
	var rec domain.ParseRecord
	err := row.Scan(&rec.ID, &rec.Title, &rec.ArticleTitle, &rec.Sentences, &rec.RawText, &rec.CreatedAt)
	return rec, err
}
