package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/heartmarshall/kotoba-backend/internal/adapter/lock"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/memstore"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

//go:generate moq -out vocabulary_repo_mock_test.go -pkg integration . vocabularyRepo
//go:generate moq -out locker_mock_test.go -pkg integration . locker

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memstore.Store
	svc   *Service
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	st := memstore.New()
	return &fixture{
		store: st,
		svc: NewService(
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			st.Records(), st.Vocabulary(), st.Structures(), st.Jobs(),
			lock.NewLocal(),
			cfg,
		),
	}
}

func (f *fixture) seed(t *testing.T, recs ...domain.ParseRecord) {
	t.Helper()
	for i := range recs {
		require.NoError(t, f.store.Records().Create(context.Background(), &recs[i]))
	}
}

// snapshot maps every vocabulary word to "occurrences/examples".
func (f *fixture) snapshot(t *testing.T) map[string]string {
	t.Helper()
	all, _, err := f.store.Vocabulary().List(context.Background(), domain.AggregateFilter{})
	require.NoError(t, err)
	out := make(map[string]string, len(all))
	for _, a := range all {
		out[a.Word] = fmt.Sprintf("%d/%d", a.TotalOccurrences, len(a.Examples))
	}
	return out
}

func taberu() domain.VocabEntry {
	return domain.VocabEntry{Word: "食べる", Romanization: "taberu", Meaning: "to eat"}
}

func entry(word string) domain.VocabEntry {
	return domain.VocabEntry{Word: word, Romanization: "r-" + word, Meaning: "m-" + word}
}

func record(n int, sentences ...domain.SentenceAnnotation) domain.ParseRecord {
	return domain.ParseRecord{
		ID:        uuid.New(),
		Title:     fmt.Sprintf("record %d", n),
		Sentences: sentences,
		CreatedAt: baseTime.Add(time.Duration(n) * time.Hour),
	}
}

func sentence(text string, vocab ...domain.VocabEntry) domain.SentenceAnnotation {
	return domain.SentenceAnnotation{
		OriginalText: text,
		Translation:  "translation of " + text,
		Vocabulary:   vocab,
	}
}

// history is seven records sharing some words, enough for several pages.
func history() []domain.ParseRecord {
	return []domain.ParseRecord{
		record(1, sentence("りんごを食べる。", taberu(), entry("りんご"))),
		record(2, sentence("水を飲む。", entry("水"), entry("飲む"))),
		record(3, sentence("ご飯を食べる。", taberu(), entry("ご飯"))),
		record(4, sentence("本を読む。", entry("本"), entry("読む"))),
		record(5, sentence("パンを食べる。", taberu(), entry("パン"))),
		record(6, sentence("水を飲みたい。", entry("水"))),
		record(7, sentence("新聞を読む。", entry("新聞"), entry("読む"))),
	}
}

// ---------------------------------------------------------------------------
// IntegrateNewRecord
// ---------------------------------------------------------------------------

func TestIntegrateNewRecord_FirstIntegration(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	r := record(1, sentence("りんごを食べる。", taberu()))
	f.seed(t, r)

	res, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.AddedCount)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Equal(t, 1, res.TotalExtracted)

	got, err := f.store.Vocabulary().GetByWord(context.Background(), "食べる")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalOccurrences)
	assert.Len(t, got.Examples, 1)
	assert.Equal(t, []uuid.UUID{r.ID}, got.Sources)
}

func TestIntegrateNewRecord_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	r := record(1, sentence("りんごを食べる。", taberu(), entry("りんご")))
	f.seed(t, r)

	_, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)
	before := f.snapshot(t)

	res, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AddedCount)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Equal(t, 2, res.UnchangedCount)
	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, "1/1", f.snapshot(t)["食べる"])
}

func TestIntegrateNewRecord_TwoRecordsSameWord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	r1 := record(1, sentence("りんごを食べる。", taberu()))
	r2 := record(2, sentence("パンを食べる。", taberu()))
	f.seed(t, r1, r2)

	_, err := f.svc.IntegrateNewRecord(context.Background(), r1.ID)
	require.NoError(t, err)
	res, err := f.svc.IntegrateNewRecord(context.Background(), r2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)

	got, err := f.store.Vocabulary().GetByWord(context.Background(), "食べる")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalOccurrences)
	assert.Len(t, got.Examples, 2)
	assert.Equal(t, r1.CreatedAt, got.FirstSeen)
	assert.Equal(t, r2.CreatedAt, got.LastSeen)
}

func TestIntegrateNewRecord_ExampleCap(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	for n := range 8 {
		r := record(n, sentence(fmt.Sprintf("文%dを食べる。", n), taberu()))
		f.seed(t, r)
		_, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, "8/5", f.snapshot(t)["食べる"])
}

func TestIntegrateNewRecord_IncompleteEntrySkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	r := record(1, sentence("猫がいる。",
		domain.VocabEntry{Word: "猫", Romanization: "neko"},
		domain.VocabEntry{Word: "いる", Meaning: "to be"},
	))
	f.seed(t, r)

	res, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AddedCount)
	assert.Empty(t, f.snapshot(t))
}

func TestIntegrateNewRecord_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())

	_, err := f.svc.IntegrateNewRecord(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.IntegrateNewRecord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// flush
// ---------------------------------------------------------------------------

func TestFlush_FailedBatchRetriedPerItem(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	vocab := &vocabularyRepoMock{
		MergeFunc: func(ctx context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error) {
			if len(items) > 1 {
				return domain.MergeResult{}, errors.New("batch too large")
			}
			if items[0].Word == "水" {
				return domain.MergeResult{}, errors.New("write failed")
			}
			return st.Vocabulary().Merge(ctx, items, merge)
		},
	}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)),
		st.Records(), vocab, st.Structures(), st.Jobs(), lock.NewLocal(),
		Config{WriteBatchSize: 3, FlushConcurrency: 2})

	r := record(1, sentence("水とりんごとパンを食べる。", taberu(), entry("水"), entry("りんご"), entry("パン")))
	require.NoError(t, st.Records().Create(context.Background(), &r))

	res, err := svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.AddedCount)
	assert.Equal(t, 1, res.FailedCount)

	// one batch of 3, one batch of 1, then 3 single retries
	assert.Len(t, vocab.MergeCalls(), 5)

	_, err = st.Vocabulary().GetByWord(context.Background(), "水")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFlush_ContextCanceled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.flush(ctx, []domain.VocabularyAggregate{{Word: "水"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{name: "empty", items: nil, size: 3, want: nil},
		{name: "exact", items: []int{1, 2, 3}, size: 3, want: [][]int{{1, 2, 3}}},
		{name: "remainder", items: []int{1, 2, 3, 4, 5}, size: 2, want: [][]int{{1, 2}, {3, 4}, {5}}},
		{name: "larger size", items: []int{1}, size: 20, want: [][]int{{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chunk(tt.items, tt.size))
		})
	}
}

// ---------------------------------------------------------------------------
// RebuildAll
// ---------------------------------------------------------------------------

func TestRebuildAll_IndependentOfPageSize(t *testing.T) {
	t.Parallel()

	recs := history()

	var snapshots []map[string]string
	for _, size := range []int{1, 2, 3, 100} {
		f := newFixture(t, Config{PageSize: size})
		f.seed(t, recs...)

		res, err := f.svc.RebuildAll(context.Background(), RebuildInput{})
		require.NoError(t, err, "page size %d", size)
		assert.True(t, res.Done)
		assert.Empty(t, res.ContinuationToken)
		assert.Equal(t, len(recs), res.ProcessedRecords)
		assert.Equal(t, 9, res.TotalWords, "page size %d", size)

		snapshots = append(snapshots, f.snapshot(t))
	}

	for _, s := range snapshots[1:] {
		assert.Equal(t, snapshots[0], s)
	}
	assert.Equal(t, "3/3", snapshots[0]["食べる"])
	assert.Equal(t, "2/2", snapshots[0]["水"])
}

func TestRebuildAll_Twice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{PageSize: 2})
	f.seed(t, history()...)

	_, err := f.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)
	first := f.snapshot(t)

	_, err = f.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)
	assert.Equal(t, first, f.snapshot(t))
}

func TestRebuildAll_WipesStaleAggregates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	f.seed(t, record(1, sentence("りんごを食べる。", taberu())))

	_, err := f.store.Vocabulary().Merge(context.Background(),
		[]domain.VocabularyAggregate{{Word: "幽霊", TotalOccurrences: 9}}, nil)
	require.NoError(t, err)

	_, err = f.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"食べる": "1/1"}, f.snapshot(t))
}

func TestRebuildAll_EmptyHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())

	res, err := f.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Done)
	assert.Zero(t, res.ProcessedRecords)
}

func TestRebuildAll_Resumable(t *testing.T) {
	t.Parallel()

	recs := history()

	full := newFixture(t, DefaultConfig())
	full.seed(t, recs...)
	_, err := full.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)

	f := newFixture(t, Config{PageSize: 2})
	f.seed(t, recs...)

	res, err := f.svc.RebuildAll(context.Background(), RebuildInput{MaxPages: 1})
	require.NoError(t, err)
	require.False(t, res.Done)
	require.NotEmpty(t, res.ContinuationToken)
	assert.Equal(t, 2, res.ProcessedRecords)

	token := res.ContinuationToken
	calls := 1
	for !res.Done {
		res, err = f.svc.RebuildAll(context.Background(), RebuildInput{ContinuationToken: token, MaxPages: 1})
		require.NoError(t, err)
		calls++
		require.Less(t, calls, 10)
	}

	assert.Equal(t, 4, calls)
	assert.Equal(t, len(recs), res.ProcessedRecords)
	assert.Equal(t, 9, res.TotalWords)
	assert.Equal(t, full.snapshot(t), f.snapshot(t))

	// A finished job reports its totals again without doing work.
	again, err := f.svc.RebuildAll(context.Background(), RebuildInput{ContinuationToken: token})
	require.NoError(t, err)
	assert.True(t, again.Done)
	assert.Equal(t, len(recs), again.ProcessedRecords)
	assert.Equal(t, 9, again.TotalWords)
}

// cancelingRecords cancels the caller's context when the second page is requested.
type cancelingRecords struct {
	recordRepo
	cancel context.CancelFunc
	calls  int
}

func (r *cancelingRecords) ListPage(ctx context.Context, after *domain.RecordCursor, limit int) ([]domain.ParseRecord, error) {
	r.calls++
	if r.calls == 2 {
		r.cancel()
		return nil, ctx.Err()
	}
	return r.recordRepo.ListPage(ctx, after, limit)
}

func TestRebuildAll_CanceledMidRunResumes(t *testing.T) {
	t.Parallel()

	recs := history()

	full := newFixture(t, DefaultConfig())
	full.seed(t, recs...)
	_, err := full.svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)

	st := memstore.New()
	for i := range recs {
		require.NoError(t, st.Records().Create(context.Background(), &recs[i]))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	records := &cancelingRecords{recordRepo: st.Records(), cancel: cancel}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)),
		records, st.Vocabulary(), st.Structures(), st.Jobs(), lock.NewLocal(),
		Config{PageSize: 2})

	res, err := svc.RebuildAll(ctx, RebuildInput{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.False(t, res.Done)
	assert.Contains(t, res.Error, "context canceled")
	assert.Equal(t, 2, res.ProcessedRecords)
	require.NotEmpty(t, res.ContinuationToken)

	id, err := uuid.Parse(res.ContinuationToken)
	require.NoError(t, err)
	job, err := st.Jobs().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)

	res, err = svc.RebuildAll(context.Background(), RebuildInput{ContinuationToken: res.ContinuationToken})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Done)
	assert.Equal(t, len(recs), res.ProcessedRecords)
	assert.Equal(t, 9, res.TotalWords)

	resumed := &fixture{store: st, svc: svc}
	assert.Equal(t, full.snapshot(t), resumed.snapshot(t))
}

func TestRebuildAll_Locked(t *testing.T) {
	t.Parallel()

	locks := &lockerMock{
		AcquireFunc: func(ctx context.Context, name string) (func(ctx context.Context) error, error) {
			return nil, fmt.Errorf("lock %s: %w", name, domain.ErrJobLocked)
		},
	}
	st := memstore.New()
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)),
		st.Records(), st.Vocabulary(), st.Structures(), st.Jobs(), locks, DefaultConfig())

	_, err := svc.RebuildAll(context.Background(), RebuildInput{})
	assert.ErrorIs(t, err, domain.ErrJobLocked)
	require.Len(t, locks.AcquireCalls(), 1)
	assert.Equal(t, lockName, locks.AcquireCalls()[0].Name)
}

func TestRebuildAll_ReleasesLock(t *testing.T) {
	t.Parallel()

	released := 0
	locks := &lockerMock{
		AcquireFunc: func(ctx context.Context, name string) (func(ctx context.Context) error, error) {
			return func(context.Context) error { released++; return nil }, nil
		},
	}
	st := memstore.New()
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)),
		st.Records(), st.Vocabulary(), st.Structures(), st.Jobs(), locks, DefaultConfig())

	_, err := svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)
	_, err = svc.RebuildAll(context.Background(), RebuildInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, released)
}

func TestRebuildAll_InvalidTokens(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())

	repairJob := &domain.IntegrationJob{Kind: domain.JobKindRepair, Collection: domain.CollectionVocabulary}
	require.NoError(t, f.store.Jobs().Create(context.Background(), repairJob))

	tests := []struct {
		name  string
		input RebuildInput
	}{
		{name: "malformed", input: RebuildInput{ContinuationToken: "nope"}},
		{name: "unknown", input: RebuildInput{ContinuationToken: uuid.NewString()}},
		{name: "repair job", input: RebuildInput{ContinuationToken: repairJob.ID.String()}},
		{name: "negative pages", input: RebuildInput{MaxPages: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RebuildAll(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

// ---------------------------------------------------------------------------
// RepairDuplicates
// ---------------------------------------------------------------------------

func example(sentence string) domain.AggregateExample {
	return domain.AggregateExample{Sentence: sentence, Translation: "t " + sentence, SourceRecordID: uuid.New()}
}

func TestRepairDuplicates_Structures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{RepairGroupLimit: 2})
	ctx := context.Background()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	_, err := f.store.Structures().Merge(ctx, []domain.StructureAggregate{
		{Structure: "ABC", Examples: []domain.AggregateExample{example("1")}, Sources: []uuid.UUID{a}, TotalOccurrences: 1},
		{Structure: " ABC", Examples: []domain.AggregateExample{example("2"), example("3")}, Sources: []uuid.UUID{b, c}, TotalOccurrences: 2},
		{Structure: "ＡＢＣ", Examples: []domain.AggregateExample{example("4")}, Sources: []uuid.UUID{c}, TotalOccurrences: 1},
		{Structure: "名詞 + は", Sources: []uuid.UUID{a}, TotalOccurrences: 1},
		{Structure: "名詞 + は　", Sources: []uuid.UUID{a, b}, TotalOccurrences: 2},
		{Structure: "名詞 ＋ は", Sources: []uuid.UUID{c}, TotalOccurrences: 1},
		{Structure: "動詞 + て", Sources: []uuid.UUID{c}, TotalOccurrences: 1},
		{Structure: " 動詞 + て ", Sources: []uuid.UUID{a}, TotalOccurrences: 1},
		{Structure: "unique", Sources: []uuid.UUID{a}, TotalOccurrences: 1},
	}, func(*domain.StructureAggregate, domain.StructureAggregate) bool { return false })
	require.NoError(t, err)

	res, err := f.svc.RepairDuplicates(ctx, RepairInput{Collection: domain.CollectionStructures})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.RepairedGroups)
	assert.Equal(t, 2, res.RemovedDocs)
	assert.Empty(t, res.SimilarKeys)
	require.False(t, res.Done)
	require.NotEmpty(t, res.ContinuationToken)

	res, err = f.svc.RepairDuplicates(ctx, RepairInput{
		Collection:        domain.CollectionStructures,
		ContinuationToken: res.ContinuationToken,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RepairedGroups)
	assert.True(t, res.Done)
	assert.Equal(t, 3, res.TotalRepairedGroups)
	assert.Equal(t, 3, res.TotalRemovedDocs)
	assert.Equal(t, [][]string{{"ABC", "ＡＢＣ"}, {"名詞 + は", "名詞 ＋ は"}}, res.SimilarKeys)

	keys, err := f.store.Structures().ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 6)

	var merged []uuid.UUID
	for _, k := range keys {
		if domain.NormalizeKey(k.Key) == "ABC" {
			merged = append(merged, k.ID)
		}
	}
	require.Len(t, merged, 1)
	docs, err := f.store.Structures().GetByIDs(ctx, merged)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Examples, 3)
	assert.Equal(t, 3, docs[0].TotalOccurrences)

	// Width variants are distinct keys and stay as they were.
	wide, err := f.store.Structures().GetByKey(ctx, "ＡＢＣ")
	require.NoError(t, err)
	assert.Len(t, wide.Examples, 1)
	assert.Equal(t, []uuid.UUID{c}, wide.Sources)

	plus, err := f.store.Structures().GetByKey(ctx, "名詞 ＋ は")
	require.NoError(t, err)
	assert.Equal(t, 1, plus.TotalOccurrences)
}

func TestRepairDuplicates_NothingToRepair(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	r := record(1, sentence("りんごを食べる。", taberu()))
	f.seed(t, r)
	_, err := f.svc.IntegrateNewRecord(context.Background(), r.ID)
	require.NoError(t, err)

	res, err := f.svc.RepairDuplicates(context.Background(), RepairInput{Collection: domain.CollectionVocabulary})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Zero(t, res.RepairedGroups)
	assert.Equal(t, "1/1", f.snapshot(t)["食べる"])
}

func TestRepairDuplicates_Vocabulary(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	_, err := f.store.Vocabulary().Merge(ctx, []domain.VocabularyAggregate{
		{Word: "ﾀﾍﾞﾙ", Examples: []domain.AggregateExample{example("1")}, Sources: []uuid.UUID{a}, TotalOccurrences: 1},
		{Word: "タベル", Examples: []domain.AggregateExample{example("1"), example("2")}, Sources: []uuid.UUID{b}, TotalOccurrences: 1},
		{Word: "食べる ", Examples: []domain.AggregateExample{example("3")}, Sources: []uuid.UUID{c}, TotalOccurrences: 1},
		{Word: "食べる", Examples: []domain.AggregateExample{example("4"), example("5")}, Sources: []uuid.UUID{a}, TotalOccurrences: 1},
	}, func(*domain.VocabularyAggregate, domain.VocabularyAggregate) bool { return false })
	require.NoError(t, err)

	res, err := f.svc.RepairDuplicates(ctx, RepairInput{Collection: domain.CollectionVocabulary})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, 1, res.RepairedGroups)
	assert.Equal(t, 1, res.RemovedDocs)
	assert.Equal(t, [][]string{{"タベル", "ﾀﾍﾞﾙ"}}, res.SimilarKeys)

	assert.Equal(t, map[string]string{
		"ﾀﾍﾞﾙ": "1/1",
		"タベル":  "1/2",
		"食べる":  "2/3",
	}, f.snapshot(t))
}

func TestRepairDuplicates_KeepsIntegrationIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	half := record(1, sentence("ﾀﾍﾞﾙ。", entry("ﾀﾍﾞﾙ")))
	full := record(2, sentence("タベル。", entry("タベル")))
	f.seed(t, half, full)
	for _, r := range []domain.ParseRecord{half, full} {
		_, err := f.svc.IntegrateNewRecord(ctx, r.ID)
		require.NoError(t, err)
	}

	res, err := f.svc.RepairDuplicates(ctx, RepairInput{Collection: domain.CollectionVocabulary})
	require.NoError(t, err)
	assert.Zero(t, res.RemovedDocs)
	repaired := f.snapshot(t)
	assert.Equal(t, map[string]string{"ﾀﾍﾞﾙ": "1/1", "タベル": "1/1"}, repaired)

	again, err := f.svc.IntegrateNewRecord(ctx, half.ID)
	require.NoError(t, err)
	assert.Zero(t, again.AddedCount)
	assert.Zero(t, again.UpdatedCount)
	assert.Equal(t, repaired, f.snapshot(t))

	_, err = f.svc.RebuildAll(ctx, RebuildInput{})
	require.NoError(t, err)
	assert.Equal(t, repaired, f.snapshot(t))
}

func TestRepairDuplicates_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	_, err := f.svc.RepairDuplicates(ctx, RepairInput{Collection: "users"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	job := &domain.IntegrationJob{Kind: domain.JobKindRepair, Collection: domain.CollectionStructures}
	require.NoError(t, f.store.Jobs().Create(ctx, job))

	_, err = f.svc.RepairDuplicates(ctx, RepairInput{
		Collection:        domain.CollectionVocabulary,
		ContinuationToken: job.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.RepairDuplicates(ctx, RepairInput{
		Collection:        domain.CollectionStructures,
		ContinuationToken: "not-a-token",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPendingGroups(t *testing.T) {
	t.Parallel()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	keys := []domain.AggregateKeyRef{
		{ID: ids[0], Key: "b"},
		{ID: ids[1], Key: " b"},
		{ID: ids[2], Key: "a"},
		{ID: ids[3], Key: "a\t"},
		{ID: ids[4], Key: "ａ"},
	}

	groups := pendingGroups(keys, "")
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].key)
	assert.ElementsMatch(t, []uuid.UUID{ids[2], ids[3]}, groups[0].ids)
	assert.Equal(t, "b", groups[1].key)
	assert.ElementsMatch(t, []uuid.UUID{ids[0], ids[1]}, groups[1].ids)

	after := pendingGroups(keys, "a")
	require.Len(t, after, 1)
	assert.Equal(t, "b", after[0].key)
}

func TestSimilarKeys(t *testing.T) {
	t.Parallel()

	keys := []domain.AggregateKeyRef{
		{ID: uuid.New(), Key: "ﾀﾍﾞﾙ"},
		{ID: uuid.New(), Key: "タベル"},
		{ID: uuid.New(), Key: " タベル"},
		{ID: uuid.New(), Key: "ABC"},
		{ID: uuid.New(), Key: "ＡＢＣ"},
		{ID: uuid.New(), Key: "unique"},
	}

	assert.Equal(t, [][]string{{"ABC", "ＡＢＣ"}, {"タベル", "ﾀﾍﾞﾙ"}}, similarKeys(keys, 10))
	assert.Len(t, similarKeys(keys, 1), 1)
	assert.Empty(t, similarKeys(keys[3:4], 10))
}

func TestRecordPages_CoversHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	recs := history()
	f := newFixture(t, Config{PageSize: 2})
	f.seed(t, recs...)

	seen := 0
	pages := 0
	for page, err := range f.svc.recordPages(context.Background(), nil) {
		require.NoError(t, err)
		require.NotEmpty(t, page)
		require.LessOrEqual(t, len(page), 2)
		seen += len(page)
		pages++
	}
	assert.Equal(t, len(recs), seen)
	assert.Equal(t, (len(recs)+1)/2, pages)

	// Stopping early leaves the rest unread.
	for page := range f.svc.recordPages(context.Background(), nil) {
		assert.Len(t, page, 2)
		break
	}
}
