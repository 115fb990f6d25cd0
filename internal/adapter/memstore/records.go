package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// RecordRepo stores parse records.
type RecordRepo struct{ s *Store }

// Create stores a record, assigning its ID and CreatedAt when unset.
func (r *RecordRepo) Create(_ context.Context, rec *domain.ParseRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[rec.ID]; ok {
		return fmt.Errorf("parse_record %s: %w", rec.ID, domain.ErrAlreadyExists)
	}
	r.s.records[rec.ID] = cloneRecord(*rec)
	return nil
}

// GetByID returns a record by ID.
func (r *RecordRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[id]
	if !ok {
		return nil, fmt.Errorf("parse_record %s: %w", id, domain.ErrNotFound)
	}
	out := cloneRecord(rec)
	return &out, nil
}

// ListPage returns up to limit records after the cursor in (created_at DESC, id DESC) order.
func (r *RecordRepo) ListPage(_ context.Context, after *domain.RecordCursor, limit int) ([]domain.ParseRecord, error) {
	r.s.mu.RLock()
	all := make([]domain.ParseRecord, 0, len(r.s.records))
	for _, rec := range r.s.records {
		if after == nil || after.Before(rec) {
			all = append(all, rec)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b domain.ParseRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})

	all = page(all, limit, 0)
	for i := range all {
		all[i] = cloneRecord(all[i])
	}
	return all, nil
}

// Count returns the number of stored records.
func (r *RecordRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.records), nil
}
