package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// recordStore is what the services need from the record collection.
type recordStore interface {
	Create(ctx context.Context, rec *domain.ParseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	ListPage(ctx context.Context, after *domain.RecordCursor, limit int) ([]domain.ParseRecord, error)
	Count(ctx context.Context) (int, error)
}

type vocabularyStore interface {
	Merge(ctx context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.VocabularyAggregate, error)
	ReplaceGroup(ctx context.Context, keep domain.VocabularyAggregate, remove []uuid.UUID) error
	CountByMastery(ctx context.Context, tag string) (domain.MasteryCounts, error)
	List(ctx context.Context, filter domain.AggregateFilter) ([]domain.VocabularyAggregate, int, error)
	ResetMastery(ctx context.Context, word string) (*domain.VocabularyAggregate, error)
}

type structureStore interface {
	Merge(ctx context.Context, items []domain.StructureAggregate, merge domain.StructureMergeFunc) (domain.MergeResult, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.StructureAggregate, error)
	ReplaceGroup(ctx context.Context, keep domain.StructureAggregate, remove []uuid.UUID) error
	CountByMastery(ctx context.Context, tag string) (domain.MasteryCounts, error)
	List(ctx context.Context, filter domain.AggregateFilter) ([]domain.StructureAggregate, int, error)
}

type jobStore interface {
	Create(ctx context.Context, j *domain.IntegrationJob) error
	Get(ctx context.Context, id uuid.UUID) (*domain.IntegrationJob, error)
	Update(ctx context.Context, j *domain.IntegrationJob) error
}

type jobLocker interface {
	Acquire(ctx context.Context, name string) (func(ctx context.Context) error, error)
}

// store is the set of repositories one store driver provides.
type store struct {
	records    recordStore
	vocabulary vocabularyStore
	structures structureStore
	jobs       jobStore
}
