package learning

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// GetStatistics returns the mastery partition of both collections and the record count.
func (s *Service) GetStatistics(ctx context.Context) (*domain.LibraryStatistics, error) {
	var stats domain.LibraryStatistics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.records.Count(gctx)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		stats.Records = n
		return nil
	})
	g.Go(func() error {
		c, err := s.vocabulary.CountByMastery(gctx, "")
		if err != nil {
			return fmt.Errorf("count vocabulary: %w", err)
		}
		stats.Vocabulary = c
		return nil
	})
	g.Go(func() error {
		c, err := s.structures.CountByMastery(gctx, "")
		if err != nil {
			return fmt.Errorf("count structures: %w", err)
		}
		stats.Structures = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ResetMastery sends a word back to the new pool: its occurrence count
// becomes one while examples and sources are kept.
func (s *Service) ResetMastery(ctx context.Context, word string) (*domain.VocabularyAggregate, error) {
	word = domain.NormalizeKey(word)
	if word == "" {
		return nil, domain.NewValidationError("word", "required")
	}

	a, err := s.vocabulary.ResetMastery(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("reset mastery: %w", err)
	}

	s.log.InfoContext(ctx, "mastery reset", slog.String("word", word))
	return a, nil
}

// ListVocabulary returns a page of word aggregates and the filtered total.
func (s *Service) ListVocabulary(ctx context.Context, in ListInput) ([]domain.VocabularyAggregate, int, error) {
	if err := in.Validate(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.vocabulary.List(ctx, in.filter())
	if err != nil {
		return nil, 0, fmt.Errorf("list vocabulary: %w", err)
	}
	return items, total, nil
}

// ListStructures returns a page of structure aggregates and the filtered total.
func (s *Service) ListStructures(ctx context.Context, in ListInput) ([]domain.StructureAggregate, int, error) {
	if err := in.Validate(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.structures.List(ctx, in.filter())
	if err != nil {
		return nil, 0, fmt.Errorf("list structures: %w", err)
	}
	return items, total, nil
}
