package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// JobRepo stores job checkpoints.
type JobRepo struct{ s *Store }

// Create stores a new job, assigning ID and timestamps.
func (r *JobRepo) Create(_ context.Context, j *domain.IntegrationJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = domain.JobStatusRunning
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.jobs[j.ID] = cloneJob(*j)
	return nil
}

// Get returns a job by ID.
func (r *JobRepo) Get(_ context.Context, id uuid.UUID) (*domain.IntegrationJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	out := cloneJob(j)
	return &out, nil
}

// Update saves the job's progress.
func (r *JobRepo) Update(_ context.Context, j *domain.IntegrationJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.jobs[j.ID]
	if !ok {
		return fmt.Errorf("job %s: %w", j.ID, domain.ErrNotFound)
	}
	j.UpdatedAt = time.Now().UTC()
	next := cloneJob(*j)
	next.Kind, next.Collection, next.CreatedAt = prev.Kind, prev.Collection, prev.CreatedAt
	r.s.jobs[j.ID] = next
	return nil
}

func cloneJob(j domain.IntegrationJob) domain.IntegrationJob {
	if j.Cursor != nil {
		c := *j.Cursor
		j.Cursor = &c
	}
	return j
}
