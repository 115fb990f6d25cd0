// Package job stores checkpoints of resumable rebuild and repair jobs.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/kotoba-backend/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const columns = `id, kind, status, collection, cursor_created_at, cursor_id, cursor_key,
	processed_records, processed_groups, removed_docs, total_words, error, created_at, updated_at`

// Repo provides job checkpoint persistence backed by PostgreSQL.
type Repo struct {
	pool   *pgxpool.Pool
	schema *postgres.Schema
}

// New creates a new job repository. schema may be nil.
func New(pool *pgxpool.Pool, schema *postgres.Schema) *Repo {
	return &Repo{pool: pool, schema: schema}
}

// Create stores a new job, assigning ID and timestamps.
func (r *Repo) Create(ctx context.Context, j *domain.IntegrationJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = domain.JobStatusRunning
	}

	createdAt, cursorID := cursorArgs(j.Cursor)
	return r.schema.RetryMissing(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		_, err := q.Exec(ctx,
			`INSERT INTO integration_jobs (`+columns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			j.ID, j.Kind, j.Status, j.Collection, createdAt, cursorID, j.CursorKey,
			j.ProcessedRecords, j.ProcessedGroups, j.RemovedDocs, j.TotalWords, j.Error, j.CreatedAt, j.UpdatedAt,
		)
		return postgres.MapError(err, "job", j.ID.String())
	})
}

// Get returns a job by ID. An unknown ID, or a missing table, yields domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*domain.IntegrationJob, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	j, err := scanJob(q.QueryRow(ctx, `SELECT `+columns+` FROM integration_jobs WHERE id = $1`, id))
	if err != nil {
		err = postgres.MapError(err, "job", id.String())
		if errors.Is(err, domain.ErrCollectionMissing) {
			return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &j, nil
}

// Update saves the job's progress fields and bumps UpdatedAt.
func (r *Repo) Update(ctx context.Context, j *domain.IntegrationJob) error {
	j.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	createdAt, cursorID := cursorArgs(j.Cursor)

	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE integration_jobs
		 SET status = $2, cursor_created_at = $3, cursor_id = $4, cursor_key = $5,
		     processed_records = $6, processed_groups = $7, removed_docs = $8,
		     total_words = $9, error = $10, updated_at = $11
		 WHERE id = $1`,
		j.ID, j.Status, createdAt, cursorID, j.CursorKey,
		j.ProcessedRecords, j.ProcessedGroups, j.RemovedDocs, j.TotalWords, j.Error, j.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "job", j.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", j.ID, domain.ErrNotFound)
	}
	return nil
}

func cursorArgs(c *domain.RecordCursor) (pgtype.Timestamptz, pgtype.UUID) {
	if c == nil {
		return pgtype.Timestamptz{}, pgtype.UUID{}
	}
	return pgtype.Timestamptz{Time: c.CreatedAt, Valid: true}, pgtype.UUID{Bytes: c.ID, Valid: true}
}

func scanJob(row pgx.Row) (domain.IntegrationJob, error) {
	var (
		j         domain.IntegrationJob
		createdAt pgtype.Timestamptz
		cursorID  pgtype.UUID
	)
	err := row.Scan(
		&j.ID, &j.Kind, &j.Status, &j.Collection, &createdAt, &cursorID, &j.CursorKey,
		&j.ProcessedRecords, &j.ProcessedGroups, &j.RemovedDocs, &j.TotalWords, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return domain.IntegrationJob{}, err
	}
	if createdAt.Valid && cursorID.Valid {
		j.Cursor = &domain.RecordCursor{CreatedAt: createdAt.Time, ID: cursorID.Bytes}
	}
	return j, nil
}
