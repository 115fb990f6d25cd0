package learning

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// PlanResult is the response of GetSmartLearningPlan.
type PlanResult struct {
	Success    bool                  `json:"success"`
	Words      []domain.LearningWord `json:"words"`
	Plan       domain.PlanCounts     `json:"plan"`
	Statistics domain.PlanStatistics `json:"statistics"`
	Error      string                `json:"error,omitempty"`
}

// GetSmartLearningPlan draws a study session from the new pool (fewer than
// three occurrences) and the review pool (three or more).
//
// For a mixed plan the new share is floor(total*new/(new+review)) and review
// takes the remainder; whichever pool runs short is backfilled from the
// other. A new or review plan draws from its own pool only.
func (s *Service) GetSmartLearningPlan(ctx context.Context, in PlanInput) (*PlanResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.normalized()

	empty, err := s.libraryEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if empty {
		return &PlanResult{Words: []domain.LearningWord{}, Error: EmptyLibraryMessage}, nil
	}

	counts, err := s.vocabulary.CountByMastery(ctx, in.SourceTag)
	if err != nil {
		return nil, fmt.Errorf("count vocabulary: %w", err)
	}

	plan := splitPlan(in)
	newN, reviewN := selectCounts(in.Type, plan, counts.Unmastered, counts.Mastered)

	var newWords, reviewWords []domain.VocabularyAggregate
	g, gctx := errgroup.WithContext(ctx)
	if newN > 0 {
		g.Go(func() error {
			var err error
			newWords, _, err = s.vocabulary.List(gctx, domain.AggregateFilter{
				Mastery: domain.MasteryUnmastered, Tag: in.SourceTag, Limit: newN,
			})
			return err
		})
	}
	if reviewN > 0 {
		g.Go(func() error {
			var err error
			reviewWords, _, err = s.vocabulary.List(gctx, domain.AggregateFilter{
				Mastery: domain.MasteryMastered, Tag: in.SourceTag, Limit: reviewN,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load plan pools: %w", err)
	}

	words := make([]domain.LearningWord, 0, len(newWords)+len(reviewWords))
	for _, a := range newWords {
		words = append(words, s.toLearningWord(a))
	}
	for _, a := range reviewWords {
		words = append(words, s.toLearningWord(a))
	}

	stats := domain.PlanStatistics{
		TotalWords:      counts.All,
		MasteredWords:   counts.Mastered,
		UnmasteredWords: counts.Unmastered,
		NewAvailable:    counts.Unmastered,
		ReviewAvailable: counts.Mastered,
		NewSelected:     len(newWords),
		ReviewSelected:  len(reviewWords),
	}

	s.log.InfoContext(ctx, "learning plan",
		slog.String("type", in.Type.String()),
		slog.Int("new_target", plan.NewCount),
		slog.Int("review_target", plan.ReviewCount),
		slog.Int("new_selected", stats.NewSelected),
		slog.Int("review_selected", stats.ReviewSelected),
	)

	return &PlanResult{Success: true, Words: words, Plan: plan, Statistics: stats}, nil
}

// splitPlan computes the target counts before pool sizes are known.
func splitPlan(in PlanInput) domain.PlanCounts {
	p := domain.PlanCounts{TotalCount: in.TotalCount}
	switch in.Type {
	case domain.PlanTypeNew:
		p.NewCount = in.TotalCount
	case domain.PlanTypeReview:
		p.ReviewCount = in.TotalCount
	default:
		p.NewCount = in.TotalCount * in.NewRatio / (in.NewRatio + in.ReviewRatio)
		p.ReviewCount = in.TotalCount - p.NewCount
	}
	return p
}

// selectCounts clamps the targets to what each pool holds, moving a mixed
// plan's shortfall to the other pool.
func selectCounts(t domain.PlanType, p domain.PlanCounts, newAvail, reviewAvail int) (newN, reviewN int) {
	newN = min(p.NewCount, newAvail)
	reviewN = min(p.ReviewCount, reviewAvail)
	if t != domain.PlanTypeMixed {
		return newN, reviewN
	}

	if short := p.NewCount - newN; short > 0 {
		reviewN = min(reviewN+short, reviewAvail)
	}
	if short := p.ReviewCount - min(p.ReviewCount, reviewAvail); short > 0 {
		newN = min(newN+short, newAvail)
	}
	return newN, reviewN
}
