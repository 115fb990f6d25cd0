// Package integration folds parse records into the vocabulary and structure
// aggregate collections: one record at a time, as a resumable full rebuild,
// or as a resumable duplicate-key repair.
package integration

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/aggregate"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

type recordRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	ListPage(ctx context.Context, after *domain.RecordCursor, limit int) ([]domain.ParseRecord, error)
}

type vocabularyRepo interface {
	Merge(ctx context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.VocabularyAggregate, error)
	ReplaceGroup(ctx context.Context, keep domain.VocabularyAggregate, remove []uuid.UUID) error
}

type structureRepo interface {
	Merge(ctx context.Context, items []domain.StructureAggregate, merge domain.StructureMergeFunc) (domain.MergeResult, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.StructureAggregate, error)
	ReplaceGroup(ctx context.Context, keep domain.StructureAggregate, remove []uuid.UUID) error
}

type jobRepo interface {
	Create(ctx context.Context, j *domain.IntegrationJob) error
	Get(ctx context.Context, id uuid.UUID) (*domain.IntegrationJob, error)
	Update(ctx context.Context, j *domain.IntegrationJob) error
}

type locker interface {
	Acquire(ctx context.Context, name string) (func(ctx context.Context) error, error)
}

// lockName is shared by rebuild and repair: both rewrite whole collections.
const lockName = "aggregates"

// Config tunes the aggregation passes.
type Config struct {
	PageSize         int
	WriteBatchSize   int
	MaxExamples      int
	RepairGroupLimit int
	FlushConcurrency int
	IncludeGuessed   bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:         100,
		WriteBatchSize:   20,
		MaxExamples:      domain.MaxExamples,
		RepairGroupLimit: 20,
		FlushConcurrency: 4,
		IncludeGuessed:   true,
	}
}

// Service implements integration business logic.
type Service struct {
	log        *slog.Logger
	records    recordRepo
	vocabulary vocabularyRepo
	structures structureRepo
	jobs       jobRepo
	locker     locker
	cfg        Config
}

// NewService creates a new integration service.
func NewService(
	log *slog.Logger,
	records recordRepo,
	vocabulary vocabularyRepo,
	structures structureRepo,
	jobs jobRepo,
	locker locker,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.WriteBatchSize <= 0 {
		cfg.WriteBatchSize = def.WriteBatchSize
	}
	if cfg.MaxExamples <= 0 || cfg.MaxExamples > domain.MaxExamples {
		cfg.MaxExamples = def.MaxExamples
	}
	if cfg.RepairGroupLimit <= 0 {
		cfg.RepairGroupLimit = def.RepairGroupLimit
	}
	if cfg.FlushConcurrency <= 0 {
		cfg.FlushConcurrency = def.FlushConcurrency
	}
	return &Service{
		log:        log.With("service", "integration"),
		records:    records,
		vocabulary: vocabulary,
		structures: structures,
		jobs:       jobs,
		locker:     locker,
		cfg:        cfg,
	}
}

func (s *Service) engineOptions() aggregate.Options {
	return aggregate.Options{MaxExamples: s.cfg.MaxExamples, IncludeGuessed: s.cfg.IncludeGuessed}
}

func (s *Service) mergeVocabulary(existing *domain.VocabularyAggregate, incoming domain.VocabularyAggregate) bool {
	return aggregate.MergeVocabulary(existing, incoming, s.cfg.MaxExamples)
}

func (s *Service) mergeStructure(existing *domain.StructureAggregate, incoming domain.StructureAggregate) bool {
	return aggregate.MergeStructure(existing, incoming, s.cfg.MaxExamples)
}
