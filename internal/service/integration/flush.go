package integration

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// flushResult splits merge outcomes by collection.
type flushResult struct {
	Vocabulary domain.MergeResult
	Structures domain.MergeResult
}

func (r flushResult) total() domain.MergeResult {
	t := r.Vocabulary
	t.Add(r.Structures)
	return t
}

// flush merges an engine's output into both collections in WriteBatchSize
// chunks, at most FlushConcurrency chunks at a time. A failed chunk is retried
// item by item; items that still fail are logged and counted, never returned.
// Only context cancellation aborts the flush.
func (s *Service) flush(ctx context.Context, vocab []domain.VocabularyAggregate, structures []domain.StructureAggregate) (flushResult, error) {
	var (
		mu  sync.Mutex
		res flushResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FlushConcurrency)

	for _, batch := range chunk(vocab, s.cfg.WriteBatchSize) {
		g.Go(func() error {
			r := s.mergeBatch(gctx, len(batch), func(ctx context.Context, i int) (domain.MergeResult, error) {
				if i < 0 {
					return s.vocabulary.Merge(ctx, batch, s.mergeVocabulary)
				}
				return s.vocabulary.Merge(ctx, batch[i:i+1], s.mergeVocabulary)
			}, func(i int) string { return batch[i].Word })
			mu.Lock()
			res.Vocabulary.Add(r)
			mu.Unlock()
			return gctx.Err()
		})
	}
	for _, batch := range chunk(structures, s.cfg.WriteBatchSize) {
		g.Go(func() error {
			r := s.mergeBatch(gctx, len(batch), func(ctx context.Context, i int) (domain.MergeResult, error) {
				if i < 0 {
					return s.structures.Merge(ctx, batch, s.mergeStructure)
				}
				return s.structures.Merge(ctx, batch[i:i+1], s.mergeStructure)
			}, func(i int) string { return batch[i].Structure })
			mu.Lock()
			res.Structures.Add(r)
			mu.Unlock()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// mergeBatch runs merge(ctx, -1) for the whole batch and, on failure,
// merge(ctx, i) for each of its n items.
func (s *Service) mergeBatch(ctx context.Context, n int, merge func(ctx context.Context, i int) (domain.MergeResult, error), key func(i int) string) domain.MergeResult {
	r, err := merge(ctx, -1)
	if err == nil {
		return r
	}
	if ctx.Err() != nil {
		return domain.MergeResult{Failed: n}
	}

	s.log.WarnContext(ctx, "batch merge failed, retrying per item",
		slog.Int("items", n),
		slog.String("error", err.Error()),
	)

	var out domain.MergeResult
	for i := range n {
		one, err := merge(ctx, i)
		if err != nil {
			s.log.ErrorContext(ctx, "aggregate write failed",
				slog.String("key", key(i)),
				slog.String("error", err.Error()),
			)
			out.Failed++
			continue
		}
		out.Add(one)
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	return append(out, items)
}
