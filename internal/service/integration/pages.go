package integration

import (
	"context"
	"iter"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// recordPages lazily yields the record history newest first, one page per
// step, starting after cursor. The next page is fetched only when the
// consumer asks for it; iteration ends after the first empty or short page.
func (s *Service) recordPages(ctx context.Context, after *domain.RecordCursor) iter.Seq2[[]domain.ParseRecord, error] {
	return func(yield func([]domain.ParseRecord, error) bool) {
		for {
			page, err := s.records.ListPage(ctx, after, s.cfg.PageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page) == 0 || !yield(page, nil) || len(page) < s.cfg.PageSize {
				return
			}
			c := domain.CursorOf(page[len(page)-1])
			after = &c
		}
	}
}
