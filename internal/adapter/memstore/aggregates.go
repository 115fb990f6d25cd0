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

// VocabularyRepo stores vocabulary aggregates keyed by word.
type VocabularyRepo struct{ s *Store }

// Merge folds each item into the aggregate with the same word, or inserts it.
func (r *VocabularyRepo) Merge(_ context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	var res domain.MergeResult
	for _, it := range items {
		if ex, ok := r.s.vocabulary[it.Word]; ok {
			if merge(ex, cloneVocabulary(it)) {
				ex.UpdatedAt = now
				res.Updated++
			} else {
				res.Unchanged++
			}
			continue
		}
		fresh := cloneVocabulary(it)
		if fresh.ID == uuid.Nil {
			fresh.ID = uuid.New()
		}
		fresh.CreatedAt, fresh.UpdatedAt = now, now
		r.s.vocabulary[it.Word] = &fresh
		res.Added++
	}
	return res, nil
}

// DeleteAll removes every aggregate and returns how many there were.
func (r *VocabularyRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.vocabulary))
	clear(r.s.vocabulary)
	return n, nil
}

// GetByWord returns the aggregate for an exact word.
func (r *VocabularyRepo) GetByWord(_ context.Context, word string) (*domain.VocabularyAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.vocabulary[word]
	if !ok {
		return nil, fmt.Errorf("vocabulary %s: %w", word, domain.ErrNotFound)
	}
	out := cloneVocabulary(*a)
	return &out, nil
}

// GetByIDs returns the aggregates with the given IDs.
func (r *VocabularyRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.VocabularyAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.VocabularyAggregate
	for _, a := range r.s.vocabulary {
		if slices.Contains(ids, a.ID) {
			out = append(out, cloneVocabulary(*a))
		}
	}
	return out, nil
}

// ListKeys returns a lightweight view of every aggregate ordered by word.
func (r *VocabularyRepo) ListKeys(_ context.Context) ([]domain.AggregateKeyRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.AggregateKeyRef, 0, len(r.s.vocabulary))
	for _, a := range r.s.vocabulary {
		out = append(out, domain.AggregateKeyRef{ID: a.ID, Key: a.Word, ExampleCount: len(a.Examples)})
	}
	slices.SortFunc(out, func(a, b domain.AggregateKeyRef) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

// ReplaceGroup stores the merged survivor and deletes the other group members.
func (r *VocabularyRepo) ReplaceGroup(_ context.Context, keep domain.VocabularyAggregate, remove []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var current *domain.VocabularyAggregate
	for _, a := range r.s.vocabulary {
		if a.ID == keep.ID {
			current = a
		}
	}
	if current == nil {
		return fmt.Errorf("vocabulary %s: %w", keep.Word, domain.ErrNotFound)
	}

	for w, a := range r.s.vocabulary {
		if slices.Contains(remove, a.ID) {
			delete(r.s.vocabulary, w)
		}
	}
	current.Examples = cloneExamples(keep.Examples)
	current.Sources = slices.Clone(keep.Sources)
	current.TotalOccurrences = keep.TotalOccurrences
	current.FirstSeen, current.LastSeen = keep.FirstSeen, keep.LastSeen
	current.UpdatedAt = time.Now().UTC()
	return nil
}

// CountByMastery partitions the aggregates carrying tag (all when empty).
func (r *VocabularyRepo) CountByMastery(_ context.Context, tag string) (domain.MasteryCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var totals []int
	for _, a := range r.s.vocabulary {
		if tag == "" || slices.Contains(a.Tags, tag) {
			totals = append(totals, a.TotalOccurrences)
		}
	}
	return masteryCounts(totals), nil
}

// List returns a filtered page ordered by total_occurrences ASC, last_seen DESC, word ASC.
func (r *VocabularyRepo) List(_ context.Context, filter domain.AggregateFilter) ([]domain.VocabularyAggregate, int, error) {
	r.s.mu.RLock()
	var all []domain.VocabularyAggregate
	for _, a := range r.s.vocabulary {
		if !filter.MatchesOccurrences(a.TotalOccurrences) {
			continue
		}
		if filter.Tag != "" && !slices.Contains(a.Tags, filter.Tag) {
			continue
		}
		all = append(all, cloneVocabulary(*a))
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b domain.VocabularyAggregate) int {
		return compareListing(a.TotalOccurrences, b.TotalOccurrences, a.LastSeen, b.LastSeen, a.Word, b.Word)
	})
	return page(all, filter.Limit, filter.Offset), len(all), nil
}

// ResetMastery sets the occurrence count back to one and marks the word as reset.
func (r *VocabularyRepo) ResetMastery(_ context.Context, word string) (*domain.VocabularyAggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.vocabulary[word]
	if !ok {
		return nil, fmt.Errorf("vocabulary %s: %w", word, domain.ErrNotFound)
	}
	a.TotalOccurrences = 1
	a.MasteryReset = true
	a.UpdatedAt = time.Now().UTC()
	out := cloneVocabulary(*a)
	return &out, nil
}

// StructureRepo stores structure aggregates keyed by structure text.
type StructureRepo struct{ s *Store }

// Merge folds each item into the aggregate with the same structure, or inserts it.
func (r *StructureRepo) Merge(_ context.Context, items []domain.StructureAggregate, merge domain.StructureMergeFunc) (domain.MergeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	var res domain.MergeResult
	for _, it := range items {
		if ex, ok := r.s.structures[it.Structure]; ok {
			if merge(ex, cloneStructure(it)) {
				ex.UpdatedAt = now
				res.Updated++
			} else {
				res.Unchanged++
			}
			continue
		}
		fresh := cloneStructure(it)
		if fresh.ID == uuid.Nil {
			fresh.ID = uuid.New()
		}
		fresh.CreatedAt, fresh.UpdatedAt = now, now
		r.s.structures[it.Structure] = &fresh
		res.Added++
	}
	return res, nil
}

// DeleteAll removes every aggregate and returns how many there were.
func (r *StructureRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.structures))
	clear(r.s.structures)
	return n, nil
}

// GetByKey returns the aggregate for an exact structure text.
func (r *StructureRepo) GetByKey(_ context.Context, key string) (*domain.StructureAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.structures[key]
	if !ok {
		return nil, fmt.Errorf("structure %s: %w", key, domain.ErrNotFound)
	}
	out := cloneStructure(*a)
	return &out, nil
}

// GetByIDs returns the aggregates with the given IDs.
func (r *StructureRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.StructureAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.StructureAggregate
	for _, a := range r.s.structures {
		if slices.Contains(ids, a.ID) {
			out = append(out, cloneStructure(*a))
		}
	}
	return out, nil
}

// ListKeys returns a lightweight view of every aggregate ordered by structure.
func (r *StructureRepo) ListKeys(_ context.Context) ([]domain.AggregateKeyRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.AggregateKeyRef, 0, len(r.s.structures))
	for _, a := range r.s.structures {
		out = append(out, domain.AggregateKeyRef{ID: a.ID, Key: a.Structure, ExampleCount: len(a.Examples)})
	}
	slices.SortFunc(out, func(a, b domain.AggregateKeyRef) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

// ReplaceGroup stores the merged survivor and deletes the other group members.
func (r *StructureRepo) ReplaceGroup(_ context.Context, keep domain.StructureAggregate, remove []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var current *domain.StructureAggregate
	for _, a := range r.s.structures {
		if a.ID == keep.ID {
			current = a
		}
	}
	if current == nil {
		return fmt.Errorf("structure %s: %w", keep.Structure, domain.ErrNotFound)
	}

	for k, a := range r.s.structures {
		if slices.Contains(remove, a.ID) {
			delete(r.s.structures, k)
		}
	}
	current.Examples = cloneExamples(keep.Examples)
	current.Sources = slices.Clone(keep.Sources)
	current.TotalOccurrences = keep.TotalOccurrences
	current.FirstSeen, current.LastSeen = keep.FirstSeen, keep.LastSeen
	current.UpdatedAt = time.Now().UTC()
	return nil
}

// CountByMastery partitions the aggregates carrying tag (all when empty).
func (r *StructureRepo) CountByMastery(_ context.Context, tag string) (domain.MasteryCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var totals []int
	for _, a := range r.s.structures {
		if tag == "" || slices.Contains(a.Tags, tag) {
			totals = append(totals, a.TotalOccurrences)
		}
	}
	return masteryCounts(totals), nil
}

// List returns a filtered page ordered like the vocabulary listing.
func (r *StructureRepo) List(_ context.Context, filter domain.AggregateFilter) ([]domain.StructureAggregate, int, error) {
	r.s.mu.RLock()
	var all []domain.StructureAggregate
	for _, a := range r.s.structures {
		if !filter.MatchesOccurrences(a.TotalOccurrences) {
			continue
		}
		if filter.Tag != "" && !slices.Contains(a.Tags, filter.Tag) {
			continue
		}
		all = append(all, cloneStructure(*a))
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b domain.StructureAggregate) int {
		return compareListing(a.TotalOccurrences, b.TotalOccurrences, a.LastSeen, b.LastSeen, a.Structure, b.Structure)
	})
	return page(all, filter.Limit, filter.Offset), len(all), nil
}

func compareListing(totalA, totalB int, seenA, seenB time.Time, keyA, keyB string) int {
	if totalA != totalB {
		return totalA - totalB
	}
	if c := seenB.Compare(seenA); c != 0 {
		return c
	}
	return strings.Compare(keyA, keyB)
}
