// Package parsing turns raw Japanese text into stored parse records: it asks
// the AI provider for an analysis, parses the reply into sentence
// annotations, stores the record and folds it into the aggregates.
package parsing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

type analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

type textParser interface {
	Parse(text string) parser.Result
}

type recordRepo interface {
	Create(ctx context.Context, rec *domain.ParseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
}

type integrator interface {
	IntegrateRecord(ctx context.Context, rec domain.ParseRecord) (*integration.IntegrateResult, error)
}

// Service implements parsing business logic.
type Service struct {
	log        *slog.Logger
	analyzer   analyzer
	parser     textParser
	records    recordRepo
	integrator integrator
}

// NewService creates a new parsing service. A nil analyzer disables AnalyzeText.
func NewService(
	log *slog.Logger,
	analyzer analyzer,
	parser textParser,
	records recordRepo,
	integrator integrator,
) *Service {
	return &Service{
		log:        log.With("service", "parsing"),
		analyzer:   analyzer,
		parser:     parser,
		records:    records,
		integrator: integrator,
	}
}
