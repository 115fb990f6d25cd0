package learning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// LearningWordsResult is the response of GetLearningWords.
type LearningWordsResult struct {
	Success        bool                  `json:"success"`
	Words          []domain.LearningWord `json:"words"`
	TotalAvailable int                   `json:"totalAvailable"`
	Error          string                `json:"error,omitempty"`
}

// GetLearningWords returns up to Count words, least-seen first and, among
// equally seen words, the most recently seen first. Unmastered words
// therefore always precede mastered ones.
func (s *Service) GetLearningWords(ctx context.Context, in LearningWordsInput) (*LearningWordsResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	empty, err := s.libraryEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if empty {
		return &LearningWordsResult{Words: []domain.LearningWord{}, Error: EmptyLibraryMessage}, nil
	}

	aggs, total, err := s.vocabulary.List(ctx, domain.AggregateFilter{Limit: in.count()})
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}

	words := make([]domain.LearningWord, 0, len(aggs))
	for _, a := range aggs {
		words = append(words, s.toLearningWord(a))
	}

	s.log.DebugContext(ctx, "learning words",
		slog.Int("requested", in.count()),
		slog.Int("returned", len(words)),
		slog.Int("available", total),
	)

	return &LearningWordsResult{Success: true, Words: words, TotalAvailable: total}, nil
}
