package integration

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

var _ vocabularyRepo = &vocabularyRepoMock{}

type vocabularyRepoMock struct {
	MergeFunc        func(ctx context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error)
	DeleteAllFunc    func(ctx context.Context) (int64, error)
	ListKeysFunc     func(ctx context.Context) ([]domain.AggregateKeyRef, error)
	GetByIDsFunc     func(ctx context.Context, ids []uuid.UUID) ([]domain.VocabularyAggregate, error)
	ReplaceGroupFunc func(ctx context.Context, keep domain.VocabularyAggregate, remove []uuid.UUID) error

	calls struct {
		Merge []struct {
			Ctx   context.Context
			Items []domain.VocabularyAggregate
			Merge domain.VocabularyMergeFunc
		}
		DeleteAll []struct {
			Ctx context.Context
		}
		ListKeys []struct {
			Ctx context.Context
		}
		GetByIDs []struct {
			Ctx context.Context
			IDs []uuid.UUID
		}
		ReplaceGroup []struct {
			Ctx    context.Context
			Keep   domain.VocabularyAggregate
			Remove []uuid.UUID
		}
	}
	lockMerge        sync.RWMutex
	lockDeleteAll    sync.RWMutex
	lockListKeys     sync.RWMutex
	lockGetByIDs     sync.RWMutex
	lockReplaceGroup sync.RWMutex
}

func (mock *vocabularyRepoMock) Merge(ctx context.Context, items []domain.VocabularyAggregate, merge domain.VocabularyMergeFunc) (domain.MergeResult, error) {
	if mock.MergeFunc == nil {
		panic("vocabularyRepoMock.MergeFunc: method is nil but vocabularyRepo.Merge was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Items []domain.VocabularyAggregate
		Merge domain.VocabularyMergeFunc
	}{Ctx: ctx, Items: items, Merge: merge}
	mock.lockMerge.Lock()
	mock.calls.Merge = append(mock.calls.Merge, callInfo)
	mock.lockMerge.Unlock()
	return mock.MergeFunc(ctx, items, merge)
}

func (mock *vocabularyRepoMock) MergeCalls() []struct {
	Ctx   context.Context
	Items []domain.VocabularyAggregate
	Merge domain.VocabularyMergeFunc
} {
	mock.lockMerge.RLock()
	calls := mock.calls.Merge
	mock.lockMerge.RUnlock()
	return calls
}

func (mock *vocabularyRepoMock) DeleteAll(ctx context.Context) (int64, error) {
	if mock.DeleteAllFunc == nil {
		panic("vocabularyRepoMock.DeleteAllFunc: method is nil but vocabularyRepo.DeleteAll was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockDeleteAll.Lock()
	mock.calls.DeleteAll = append(mock.calls.DeleteAll, callInfo)
	mock.lockDeleteAll.Unlock()
	return mock.DeleteAllFunc(ctx)
}

func (mock *vocabularyRepoMock) DeleteAllCalls() []struct{ Ctx context.Context } {
	mock.lockDeleteAll.RLock()
	calls := mock.calls.DeleteAll
	mock.lockDeleteAll.RUnlock()
	return calls
}

func (mock *vocabularyRepoMock) ListKeys(ctx context.Context) ([]domain.AggregateKeyRef, error) {
	if mock.ListKeysFunc == nil {
		panic("vocabularyRepoMock.ListKeysFunc: method is nil but vocabularyRepo.ListKeys was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockListKeys.Lock()
	mock.calls.ListKeys = append(mock.calls.ListKeys, callInfo)
	mock.lockListKeys.Unlock()
	return mock.ListKeysFunc(ctx)
}

func (mock *vocabularyRepoMock) ListKeysCalls() []struct{ Ctx context.Context } {
	mock.lockListKeys.RLock()
	calls := mock.calls.ListKeys
	mock.lockListKeys.RUnlock()
	return calls
}

func (mock *vocabularyRepoMock) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.VocabularyAggregate, error) {
	if mock.GetByIDsFunc == nil {
		panic("vocabularyRepoMock.GetByIDsFunc: method is nil but vocabularyRepo.GetByIDs was just called")
	}
	callInfo := struct {
		Ctx context.Context
		IDs []uuid.UUID
	}{Ctx: ctx, IDs: ids}
	mock.lockGetByIDs.Lock()
	mock.calls.GetByIDs = append(mock.calls.GetByIDs, callInfo)
	mock.lockGetByIDs.Unlock()
	return mock.GetByIDsFunc(ctx, ids)
}

func (mock *vocabularyRepoMock) GetByIDsCalls() []struct {
	Ctx context.Context
	IDs []uuid.UUID
} {
	mock.lockGetByIDs.RLock()
	calls := mock.calls.GetByIDs
	mock.lockGetByIDs.RUnlock()
	return calls
}

func (mock *vocabularyRepoMock) ReplaceGroup(ctx context.Context, keep domain.VocabularyAggregate, remove []uuid.UUID) error {
	if mock.ReplaceGroupFunc == nil {
		panic("vocabularyRepoMock.ReplaceGroupFunc: method is nil but vocabularyRepo.ReplaceGroup was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Keep   domain.VocabularyAggregate
		Remove []uuid.UUID
	}{Ctx: ctx, Keep: keep, Remove: remove}
	mock.lockReplaceGroup.Lock()
	mock.calls.ReplaceGroup = append(mock.calls.ReplaceGroup, callInfo)
	mock.lockReplaceGroup.Unlock()
	return mock.ReplaceGroupFunc(ctx, keep, remove)
}

func (mock *vocabularyRepoMock) ReplaceGroupCalls() []struct {
	Ctx    context.Context
	Keep   domain.VocabularyAggregate
	Remove []uuid.UUID
} {
	mock.lockReplaceGroup.RLock()
	calls := mock.calls.ReplaceGroup
	mock.lockReplaceGroup.RUnlock()
	return calls
}
