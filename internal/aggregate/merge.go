package aggregate

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// MergeVocabulary folds incoming into existing and reports whether existing
// changed. Only sources not yet recorded count: each contributes one
// occurrence and at most one example, so merging the same record twice is a
// no-op. Romaji and meaning keep their first-seen values.
func MergeVocabulary(existing *domain.VocabularyAggregate, incoming domain.VocabularyAggregate, maxExamples int) bool {
	fresh := newSources(existing.Sources, incoming.Sources)
	if len(fresh) == 0 {
		return false
	}

	existing.Sources = append(existing.Sources, fresh...)
	existing.TotalOccurrences += len(fresh)

	for _, ex := range incoming.Examples {
		if len(existing.Examples) >= maxExamples {
			break
		}
		if slices.Contains(fresh, ex.SourceRecordID) && !hasExampleFrom(existing.Examples, ex.SourceRecordID) {
			existing.Examples = append(existing.Examples, ex)
		}
	}

	if existing.Romaji == "" {
		existing.Romaji = incoming.Romaji
	}
	if existing.Meaning == "" {
		existing.Meaning = incoming.Meaning
	}
	existing.Guessed = existing.Guessed && incoming.Guessed
	existing.FirstSeen, existing.LastSeen = widen(existing.FirstSeen, existing.LastSeen, incoming.FirstSeen, incoming.LastSeen)
	return true
}

// MergeStructure folds incoming into existing and reports whether existing
// changed. Examples are de-duplicated by (sentence, translation) regardless
// of source; occurrences count distinct sources.
func MergeStructure(existing *domain.StructureAggregate, incoming domain.StructureAggregate, maxExamples int) bool {
	changed := false

	for _, ex := range incoming.Examples {
		if len(existing.Examples) >= maxExamples {
			break
		}
		if existing.HasExamplePair(ex) {
			continue
		}
		existing.Examples = append(existing.Examples, ex)
		changed = true
	}

	if fresh := newSources(existing.Sources, incoming.Sources); len(fresh) > 0 {
		existing.Sources = append(existing.Sources, fresh...)
		existing.TotalOccurrences += len(fresh)
		changed = true
	}

	if !changed {
		return false
	}
	if existing.Category == "" {
		existing.Category = incoming.Category
	}
	if existing.Difficulty == "" {
		existing.Difficulty = incoming.Difficulty
	}
	existing.FirstSeen, existing.LastSeen = widen(existing.FirstSeen, existing.LastSeen, incoming.FirstSeen, incoming.LastSeen)
	return true
}

// MergeStructureDuplicates folds a group of documents that share one key
// into the member with the most examples. It returns the merged keeper and
// the ids of the documents to delete.
func MergeStructureDuplicates(group []domain.StructureAggregate, maxExamples int) (domain.StructureAggregate, []uuid.UUID) {
	keepIdx := 0
	for i, a := range group {
		if len(a.Examples) > len(group[keepIdx].Examples) {
			keepIdx = i
		}
	}

	keep := group[keepIdx]
	keep.Examples = slices.Clone(keep.Examples)
	keep.Sources = slices.Clone(keep.Sources)

	var remove []uuid.UUID
	for i, a := range group {
		if i == keepIdx {
			continue
		}
		remove = append(remove, a.ID)
		keep.Examples = appendDistinctPairs(keep.Examples, a.Examples, maxExamples)
		keep.Sources = append(keep.Sources, newSources(keep.Sources, a.Sources)...)
		keep.FirstSeen, keep.LastSeen = widen(keep.FirstSeen, keep.LastSeen, a.FirstSeen, a.LastSeen)
	}
	keep.TotalOccurrences = len(keep.Sources)
	return keep, remove
}

// MergeVocabularyDuplicates is MergeStructureDuplicates for the vocabulary collection.
func MergeVocabularyDuplicates(group []domain.VocabularyAggregate, maxExamples int) (domain.VocabularyAggregate, []uuid.UUID) {
	keepIdx := 0
	for i, a := range group {
		if len(a.Examples) > len(group[keepIdx].Examples) {
			keepIdx = i
		}
	}

	keep := group[keepIdx]
	keep.Examples = slices.Clone(keep.Examples)
	keep.Sources = slices.Clone(keep.Sources)

	var remove []uuid.UUID
	for i, a := range group {
		if i == keepIdx {
			continue
		}
		remove = append(remove, a.ID)
		keep.Examples = appendDistinctPairs(keep.Examples, a.Examples, maxExamples)
		keep.Sources = append(keep.Sources, newSources(keep.Sources, a.Sources)...)
		keep.Guessed = keep.Guessed && a.Guessed
		keep.FirstSeen, keep.LastSeen = widen(keep.FirstSeen, keep.LastSeen, a.FirstSeen, a.LastSeen)
	}
	keep.TotalOccurrences = len(keep.Sources)
	return keep, remove
}

func newSources(have, incoming []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range incoming {
		if !slices.Contains(have, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func hasExampleFrom(examples []domain.AggregateExample, id uuid.UUID) bool {
	return slices.ContainsFunc(examples, func(e domain.AggregateExample) bool { return e.SourceRecordID == id })
}

func appendDistinctPairs(dst, src []domain.AggregateExample, maxExamples int) []domain.AggregateExample {
	for _, ex := range src {
		if len(dst) >= maxExamples {
			break
		}
		if !slices.ContainsFunc(dst, ex.SamePair) {
			dst = append(dst, ex)
		}
	}
	return dst
}

// widen extends [first, last] to cover [from, to]. Zero times are ignored.
func widen(first, last, from, to time.Time) (time.Time, time.Time) {
	if !from.IsZero() && (first.IsZero() || from.Before(first)) {
		first = from
	}
	if !to.IsZero() && (last.IsZero() || to.After(last)) {
		last = to
	}
	return first, last
}
