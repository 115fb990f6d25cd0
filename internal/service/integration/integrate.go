package integration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/aggregate"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// IntegrateResult reports one incremental integration.
type IntegrateResult struct {
	Success        bool   `json:"success"`
	AddedCount     int    `json:"addedCount"`
	UpdatedCount   int    `json:"updatedCount"`
	UnchangedCount int    `json:"unchangedCount"`
	FailedCount    int    `json:"failedCount"`
	TotalExtracted int    `json:"totalExtracted"`
	Error          string `json:"error,omitempty"`
}

// IntegrateNewRecord merges one stored record into the aggregates.
// Integrating the same record again changes nothing.
func (s *Service) IntegrateNewRecord(ctx context.Context, recordID uuid.UUID) (*IntegrateResult, error) {
	if recordID == uuid.Nil {
		return nil, domain.NewValidationError("record_id", "required")
	}

	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	return s.IntegrateRecord(ctx, *rec)
}

// IntegrateRecord merges an already loaded record into the aggregates.
func (s *Service) IntegrateRecord(ctx context.Context, rec domain.ParseRecord) (*IntegrateResult, error) {
	engine := aggregate.NewEngine(aggregate.ModeIncremental, s.engineOptions())
	if err := engine.Add(rec); err != nil {
		return nil, fmt.Errorf("extract record %s: %w", rec.ID, err)
	}

	res, err := s.flush(ctx, engine.Vocabulary(), engine.Structures())
	if err != nil {
		return nil, fmt.Errorf("flush record %s: %w", rec.ID, err)
	}
	total := res.total()

	s.log.InfoContext(ctx, "record integrated",
		slog.String("record_id", rec.ID.String()),
		slog.Int("added", total.Added),
		slog.Int("updated", total.Updated),
		slog.Int("unchanged", total.Unchanged),
		slog.Int("failed", total.Failed),
	)

	return &IntegrateResult{
		Success:        true,
		AddedCount:     total.Added,
		UpdatedCount:   total.Updated,
		UnchangedCount: total.Unchanged,
		FailedCount:    total.Failed,
		TotalExtracted: engine.TotalExtracted(),
	}, nil
}
