// Package memstore is an in-process document store implementing the same
// repository contracts as the PostgreSQL adapter. It backs the "memory"
// store driver and multi-step service tests.
package memstore

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// Store holds every collection behind one lock, so each repository call is
// atomic with respect to all others.
type Store struct {
	mu         sync.RWMutex
	records    map[uuid.UUID]domain.ParseRecord
	vocabulary map[string]*domain.VocabularyAggregate
	structures map[string]*domain.StructureAggregate
	jobs       map[uuid.UUID]domain.IntegrationJob
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records:    make(map[uuid.UUID]domain.ParseRecord),
		vocabulary: make(map[string]*domain.VocabularyAggregate),
		structures: make(map[string]*domain.StructureAggregate),
		jobs:       make(map[uuid.UUID]domain.IntegrationJob),
	}
}

// Records returns the parse record repository.
func (s *Store) Records() *RecordRepo { return &RecordRepo{s: s} }

// Vocabulary returns the vocabulary aggregate repository.
func (s *Store) Vocabulary() *VocabularyRepo { return &VocabularyRepo{s: s} }

// Structures returns the structure aggregate repository.
func (s *Store) Structures() *StructureRepo { return &StructureRepo{s: s} }

// Jobs returns the job checkpoint repository.
func (s *Store) Jobs() *JobRepo { return &JobRepo{s: s} }

func cloneExamples(in []domain.AggregateExample) []domain.AggregateExample {
	return slices.Clone(in)
}

func cloneVocabulary(a domain.VocabularyAggregate) domain.VocabularyAggregate {
	a.Examples = cloneExamples(a.Examples)
	a.Sources = slices.Clone(a.Sources)
	a.Tags = slices.Clone(a.Tags)
	return a
}

func cloneStructure(a domain.StructureAggregate) domain.StructureAggregate {
	a.Examples = cloneExamples(a.Examples)
	a.Sources = slices.Clone(a.Sources)
	a.Tags = slices.Clone(a.Tags)
	return a
}

func cloneRecord(r domain.ParseRecord) domain.ParseRecord {
	r.Sentences = slices.Clone(r.Sentences)
	for i := range r.Sentences {
		r.Sentences[i].Vocabulary = slices.Clone(r.Sentences[i].Vocabulary)
	}
	return r
}

// masteryCounts partitions occurrence counts at the mastery threshold.
func masteryCounts(totals []int) domain.MasteryCounts {
	c := domain.MasteryCounts{All: len(totals)}
	for _, n := range totals {
		if n >= domain.MasteryThreshold {
			c.Mastered++
		}
	}
	c.Unmastered = c.All - c.Mastered
	return c
}

// page applies offset and limit to a sorted slice. A non-positive limit means no limit.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
