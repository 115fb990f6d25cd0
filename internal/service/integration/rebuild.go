package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/aggregate"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// RebuildInput holds the parameters for a full rebuild call.
type RebuildInput struct {
	// ContinuationToken resumes the job a previous call returned. Empty starts over.
	ContinuationToken string
	// MaxPages bounds the pages processed by this call. Zero means until exhausted.
	MaxPages int
}

// Validate checks all fields and collects all errors.
func (i RebuildInput) Validate() error {
	var errs []domain.FieldError

	if i.ContinuationToken != "" {
		if _, err := uuid.Parse(i.ContinuationToken); err != nil {
			errs = append(errs, domain.FieldError{Field: "continuation_token", Message: "invalid token"})
		}
	}
	if i.MaxPages < 0 {
		errs = append(errs, domain.FieldError{Field: "max_pages", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RebuildResult reports a full rebuild call.
type RebuildResult struct {
	Success           bool   `json:"success"`
	TotalWords        int    `json:"totalWords"`
	ProcessedRecords  int    `json:"processedRecords"`
	FailedWrites      int    `json:"failedWrites"`
	Done              bool   `json:"done"`
	ContinuationToken string `json:"continuationToken,omitempty"`
	Error             string `json:"error,omitempty"`
}

// RebuildAll wipes both aggregate collections and recomputes them from the
// whole record history, newest first. Progress is checkpointed after every
// page so an interrupted or page-bounded call can be resumed with the
// returned continuation token. When a page fails, the error is returned
// together with a result that carries the token of the last checkpoint.
func (s *Service) RebuildAll(ctx context.Context, in RebuildInput) (*RebuildResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lockName)
	if err != nil {
		return nil, err
	}
	defer s.release(release)

	job, err := s.rebuildJob(ctx, in.ContinuationToken)
	if err != nil {
		return nil, err
	}
	if job.Finished() {
		return rebuildResult(job, 0), nil
	}

	start := time.Now()
	failed := 0

	pages := 0
	exhausted := true
	for page, err := range s.recordPages(ctx, job.Cursor) {
		if err != nil {
			return s.interrupted(ctx, job, failed, fmt.Errorf("list records: %w", err))
		}

		engine := aggregate.NewEngine(aggregate.ModeFull, s.engineOptions())
		for _, rec := range page {
			if err := engine.Add(rec); err != nil {
				return s.interrupted(ctx, job, failed, fmt.Errorf("extract record %s: %w", rec.ID, err))
			}
		}

		res, err := s.flush(ctx, engine.Vocabulary(), engine.Structures())
		if err != nil {
			return s.interrupted(ctx, job, failed, fmt.Errorf("flush page: %w", err))
		}
		failed += res.total().Failed

		cursor := domain.CursorOf(page[len(page)-1])
		job.Cursor = &cursor
		job.ProcessedRecords += len(page)
		if len(page) < s.cfg.PageSize {
			if err := s.finishRebuild(ctx, job); err != nil {
				return s.interrupted(ctx, job, failed, err)
			}
		}

		if err := s.jobs.Update(ctx, job); err != nil {
			return s.interrupted(ctx, job, failed, fmt.Errorf("checkpoint job: %w", err))
		}

		pages++
		if job.Status != domain.JobStatusDone && in.MaxPages > 0 && pages == in.MaxPages {
			exhausted = false
			break
		}
	}

	if exhausted && job.Status != domain.JobStatusDone {
		if err := s.finishRebuild(ctx, job); err != nil {
			return s.interrupted(ctx, job, failed, err)
		}
		if err := s.jobs.Update(ctx, job); err != nil {
			return s.interrupted(ctx, job, failed, fmt.Errorf("finish job: %w", err))
		}
	}

	s.log.InfoContext(ctx, "rebuild progressed",
		slog.String("job_id", job.ID.String()),
		slog.Int("processed_records", job.ProcessedRecords),
		slog.Int("total_words", job.TotalWords),
		slog.Int("failed_writes", failed),
		slog.Bool("done", job.Status == domain.JobStatusDone),
		slog.Duration("duration", time.Since(start)),
	)

	return rebuildResult(job, failed), nil
}

// finishRebuild marks job done and sets its word count from the stored
// vocabulary, which also covers pages written by earlier calls of the job.
func (s *Service) finishRebuild(ctx context.Context, job *domain.IntegrationJob) error {
	keys, err := s.vocabulary.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("count vocabulary: %w", err)
	}
	job.TotalWords = len(keys)
	job.Status = domain.JobStatusDone
	return nil
}

// interrupted fails job with cause and returns a result pointing at the
// last checkpoint alongside the error.
func (s *Service) interrupted(ctx context.Context, job *domain.IntegrationJob, failed int, cause error) (*RebuildResult, error) {
	err := s.failJob(ctx, job, cause)
	res := rebuildResult(job, failed)
	res.Success = false
	res.Error = err.Error()
	res.ContinuationToken = job.ID.String()
	return res, err
}

// rebuildJob starts a new rebuild (wiping both collections) or loads the job a token points at.
func (s *Service) rebuildJob(ctx context.Context, token string) (*domain.IntegrationJob, error) {
	if token != "" {
		return s.resumeJob(ctx, token, domain.JobKindRebuild, "")
	}

	job := &domain.IntegrationJob{Kind: domain.JobKindRebuild, Status: domain.JobStatusRunning}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	vocab, err := s.vocabulary.DeleteAll(ctx)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("wipe vocabulary: %w", err))
	}
	structures, err := s.structures.DeleteAll(ctx)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("wipe structures: %w", err))
	}

	s.log.InfoContext(ctx, "rebuild started",
		slog.String("job_id", job.ID.String()),
		slog.Int64("wiped_vocabulary", vocab),
		slog.Int64("wiped_structures", structures),
	)
	return job, nil
}

// resumeJob loads a job by token and checks it belongs to the calling operation.
func (s *Service) resumeJob(ctx context.Context, token string, kind domain.JobKind, collection domain.Collection) (*domain.IntegrationJob, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, domain.NewValidationError("continuation_token", "invalid token")
	}

	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("continuation_token", "unknown token")
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.Kind != kind || job.Collection != collection {
		return nil, domain.NewValidationError("continuation_token", "token belongs to another job")
	}
	if job.Status == domain.JobStatusFailed {
		// Re-merging a partly flushed page is a no-op per source, so resume from the last checkpoint.
		job.Status = domain.JobStatusRunning
		job.Error = ""
	}
	return job, nil
}

// failJob records cause on the job and returns it.
func (s *Service) failJob(ctx context.Context, job *domain.IntegrationJob, cause error) error {
	job.Status = domain.JobStatusFailed
	job.Error = cause.Error()
	if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log.ErrorContext(ctx, "save failed job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	s.log.ErrorContext(ctx, "integration job failed",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", job.Kind.String()),
		slog.String("error", cause.Error()),
	)
	return cause
}

func (s *Service) release(release func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.log.Warn("release job lock", slog.String("error", err.Error()))
	}
}

func rebuildResult(job *domain.IntegrationJob, failed int) *RebuildResult {
	res := &RebuildResult{
		Success:          true,
		TotalWords:       job.TotalWords,
		ProcessedRecords: job.ProcessedRecords,
		FailedWrites:     failed,
		Done:             job.Status == domain.JobStatusDone,
	}
	if !res.Done {
		res.ContinuationToken = job.ID.String()
	}
	return res
}
