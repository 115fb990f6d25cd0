package integration

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/aggregate"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// RepairInput holds the parameters for a duplicate repair call.
type RepairInput struct {
	Collection        domain.Collection
	ContinuationToken string
}

// Validate checks all fields and collects all errors.
func (i RepairInput) Validate() error {
	var errs []domain.FieldError

	if !i.Collection.IsValid() {
		errs = append(errs, domain.FieldError{Field: "collection", Message: "unknown collection"})
	}
	if i.ContinuationToken != "" {
		if _, err := uuid.Parse(i.ContinuationToken); err != nil {
			errs = append(errs, domain.FieldError{Field: "continuation_token", Message: "invalid token"})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RepairResult reports one repair call. The Total fields cover the whole job.
type RepairResult struct {
	Success             bool   `json:"success"`
	RepairedGroups      int    `json:"repairedGroups"`
	RemovedDocs         int    `json:"removedDocs"`
	FailedGroups        int    `json:"failedGroups"`
	TotalRepairedGroups int    `json:"totalRepairedGroups"`
	TotalRemovedDocs    int    `json:"totalRemovedDocs"`
	Done                bool   `json:"done"`
	ContinuationToken   string `json:"continuationToken,omitempty"`
	Error               string `json:"error,omitempty"`
	// SimilarKeys lists distinct keys that only differ by width or inner
	// whitespace. They are reported for review and never merged.
	SimilarKeys [][]string `json:"similarKeys,omitempty"`
}

// similarKeysLimit caps the number of reported similar key sets.
const similarKeysLimit = 100

// duplicateGroup is a set of documents whose keys are equal after trimming.
type duplicateGroup struct {
	key string
	ids []uuid.UUID
}

// RepairDuplicates merges documents whose keys differ only by surrounding
// whitespace into the member with the most examples. This is the same key
// normalization integration applies, so a repaired collection stays stable
// under later integrations. At most RepairGroupLimit groups are handled per call; the rest are left for
// the next call with the returned continuation token.
func (s *Service) RepairDuplicates(ctx context.Context, in RepairInput) (*RepairResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lockName)
	if err != nil {
		return nil, err
	}
	defer s.release(release)

	job, err := s.repairJob(ctx, in)
	if err != nil {
		return nil, err
	}
	res := &RepairResult{Success: true}
	if job.Finished() {
		return repairResult(res, job), nil
	}

	keys, err := s.listKeys(ctx, in.Collection)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Errorf("list keys: %w", err))
	}

	groups := pendingGroups(keys, job.CursorKey)
	batch := groups[:min(len(groups), s.cfg.RepairGroupLimit)]

	for _, g := range batch {
		removed, err := s.repairGroup(ctx, in.Collection, g.ids)
		if err != nil {
			if ctx.Err() != nil {
				return nil, s.failJob(ctx, job, ctx.Err())
			}
			s.log.ErrorContext(ctx, "repair group failed",
				slog.String("collection", in.Collection.String()),
				slog.String("key", g.key),
				slog.String("error", err.Error()),
			)
			res.FailedGroups++
		} else if removed > 0 {
			res.RepairedGroups++
			res.RemovedDocs += removed
		}
		job.CursorKey = g.key
	}

	job.ProcessedGroups += res.RepairedGroups
	job.RemovedDocs += res.RemovedDocs
	if len(batch) == len(groups) {
		job.Status = domain.JobStatusDone
		res.SimilarKeys = similarKeys(keys, similarKeysLimit)
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("checkpoint job: %w", err)
	}

	s.log.InfoContext(ctx, "repair progressed",
		slog.String("job_id", job.ID.String()),
		slog.String("collection", in.Collection.String()),
		slog.Int("repaired_groups", res.RepairedGroups),
		slog.Int("removed_docs", res.RemovedDocs),
		slog.Int("remaining_groups", len(groups)-len(batch)),
	)

	return repairResult(res, job), nil
}

func (s *Service) repairJob(ctx context.Context, in RepairInput) (*domain.IntegrationJob, error) {
	if in.ContinuationToken != "" {
		return s.resumeJob(ctx, in.ContinuationToken, domain.JobKindRepair, in.Collection)
	}
	job := &domain.IntegrationJob{
		Kind:       domain.JobKindRepair,
		Status:     domain.JobStatusRunning,
		Collection: in.Collection,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *Service) listKeys(ctx context.Context, c domain.Collection) ([]domain.AggregateKeyRef, error) {
	if c == domain.CollectionVocabulary {
		return s.vocabulary.ListKeys(ctx)
	}
	return s.structures.ListKeys(ctx)
}

// repairGroup merges one group and returns how many documents it removed.
func (s *Service) repairGroup(ctx context.Context, c domain.Collection, ids []uuid.UUID) (int, error) {
	if c == domain.CollectionVocabulary {
		docs, err := s.vocabulary.GetByIDs(ctx, ids)
		if err != nil {
			return 0, err
		}
		if len(docs) < 2 {
			return 0, nil
		}
		keep, remove := aggregate.MergeVocabularyDuplicates(docs, s.cfg.MaxExamples)
		if err := s.vocabulary.ReplaceGroup(ctx, keep, remove); err != nil {
			return 0, err
		}
		return len(remove), nil
	}

	docs, err := s.structures.GetByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(docs) < 2 {
		return 0, nil
	}
	keep, remove := aggregate.MergeStructureDuplicates(docs, s.cfg.MaxExamples)
	if err := s.structures.ReplaceGroup(ctx, keep, remove); err != nil {
		return 0, err
	}
	return len(remove), nil
}

// pendingGroups returns the duplicate groups sorted by normalized key,
// skipping those at or before cursor.
func pendingGroups(keys []domain.AggregateKeyRef, cursor string) []duplicateGroup {
	byKey := make(map[string][]uuid.UUID)
	for _, k := range keys {
		n := domain.NormalizeKey(k.Key)
		byKey[n] = append(byKey[n], k.ID)
	}

	var out []duplicateGroup
	for key, ids := range byKey {
		if len(ids) < 2 || (cursor != "" && key <= cursor) {
			continue
		}
		out = append(out, duplicateGroup{key: key, ids: ids})
	}
	slices.SortFunc(out, func(a, b duplicateGroup) int { return strings.Compare(a.key, b.key) })
	return out
}

// similarKeys returns up to limit sets of distinct normalized keys that fold
// to the same GroupKey, sorted by their first key.
func similarKeys(keys []domain.AggregateKeyRef, limit int) [][]string {
	byGroup := make(map[string][]string)
	for _, k := range keys {
		n := domain.NormalizeKey(k.Key)
		g := domain.GroupKey(n)
		if !slices.Contains(byGroup[g], n) {
			byGroup[g] = append(byGroup[g], n)
		}
	}

	var out [][]string
	for _, set := range byGroup {
		if len(set) < 2 {
			continue
		}
		slices.Sort(set)
		out = append(out, set)
	}
	slices.SortFunc(out, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func repairResult(res *RepairResult, job *domain.IntegrationJob) *RepairResult {
	res.TotalRepairedGroups = job.ProcessedGroups
	res.TotalRemovedDocs = job.RemovedDocs
	res.Done = job.Status == domain.JobStatusDone
	if !res.Done {
		res.ContinuationToken = job.ID.String()
	}
	return res
}
