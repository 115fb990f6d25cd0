// Package learning serves the study read-model built on the aggregate
// collections: learning word lists, smart plans and mastery statistics.
package learning

import (
	"context"
	"log/slog"
	"slices"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/japanese"
)

type recordRepo interface {
	Count(ctx context.Context) (int, error)
}

type vocabularyRepo interface {
	CountByMastery(ctx context.Context, tag string) (domain.MasteryCounts, error)
	List(ctx context.Context, filter domain.AggregateFilter) ([]domain.VocabularyAggregate, int, error)
	ResetMastery(ctx context.Context, word string) (*domain.VocabularyAggregate, error)
}

type structureRepo interface {
	CountByMastery(ctx context.Context, tag string) (domain.MasteryCounts, error)
	List(ctx context.Context, filter domain.AggregateFilter) ([]domain.StructureAggregate, int, error)
}

type reader interface {
	Reading(text string) string
}

// EmptyLibraryMessage is returned with success=false while no record has been parsed yet.
const EmptyLibraryMessage = "no parsed content yet: parse some Japanese text first"

// Service implements learning business logic.
type Service struct {
	log        *slog.Logger
	records    recordRepo
	vocabulary vocabularyRepo
	structures structureRepo
	reader     reader
}

// NewService creates a new learning service. A nil reader leaves kana
// readings to words already written in kana.
func NewService(
	log *slog.Logger,
	records recordRepo,
	vocabulary vocabularyRepo,
	structures structureRepo,
	reader reader,
) *Service {
	return &Service{
		log:        log.With("service", "learning"),
		records:    records,
		vocabulary: vocabulary,
		structures: structures,
		reader:     reader,
	}
}

// toLearningWord projects an aggregate into its display shape.
func (s *Service) toLearningWord(a domain.VocabularyAggregate) domain.LearningWord {
	w := domain.LearningWord{
		ID:          a.ID,
		Word:        a.Word,
		Kana:        s.kana(a.Word),
		Romaji:      a.Romaji,
		Meaning:     a.Meaning,
		Type:        domain.WordTypeNew,
		Level:       a.Level,
		Examples:    slices.Clone(a.Examples),
		SourceCount: a.TotalOccurrences,
		FirstSeen:   a.FirstSeen,
		LastSeen:    a.LastSeen,
		Tags:        slices.Clone(a.Tags),
	}
	if a.Mastered() {
		w.Type = domain.WordTypeReview
	}
	if len(a.Examples) > 0 {
		w.Source = a.Examples[0].SourceLabel
	}
	if w.Examples == nil {
		w.Examples = []domain.AggregateExample{}
	}
	return w
}

func (s *Service) kana(word string) string {
	if japanese.IsKana(word) {
		return word
	}
	if s.reader == nil {
		return ""
	}
	return s.reader.Reading(word)
}

// libraryEmpty reports whether no parse record exists yet.
func (s *Service) libraryEmpty(ctx context.Context) (bool, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
