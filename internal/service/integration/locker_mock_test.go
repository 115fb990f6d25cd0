package integration

import (
	"context"
	"sync"
)

var _ locker = &lockerMock{}

type lockerMock struct {
	AcquireFunc func(ctx context.Context, name string) (func(ctx context.Context) error, error)

	calls struct {
		Acquire []struct {
			Ctx  context.Context
			Name string
		}
	}
	lockAcquire sync.RWMutex
}

func (mock *lockerMock) Acquire(ctx context.Context, name string) (func(ctx context.Context) error, error) {
	if mock.AcquireFunc == nil {
		panic("lockerMock.AcquireFunc: method is nil but locker.Acquire was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Name string
	}{Ctx: ctx, Name: name}
	mock.lockAcquire.Lock()
	mock.calls.Acquire = append(mock.calls.Acquire, callInfo)
	mock.lockAcquire.Unlock()
	return mock.AcquireFunc(ctx, name)
}

func (mock *lockerMock) AcquireCalls() []struct {
	Ctx  context.Context
	Name string
} {
	mock.lockAcquire.RLock()
	calls := mock.calls.Acquire
	mock.lockAcquire.RUnlock()
	return calls
}
