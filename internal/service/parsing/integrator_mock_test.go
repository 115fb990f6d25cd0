package parsing

import (
	"context"
	"sync"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

var _ integrator = &integratorMock{}

type integratorMock struct {
	IntegrateRecordFunc func(ctx context.Context, rec domain.ParseRecord) (*integration.IntegrateResult, error)

	calls struct {
		IntegrateRecord []struct {
			Ctx context.Context
			Rec domain.ParseRecord
		}
	}
	lockIntegrateRecord sync.RWMutex
}

func (mock *integratorMock) IntegrateRecord(ctx context.Context, rec domain.ParseRecord) (*integration.IntegrateResult, error) {
	if mock.IntegrateRecordFunc == nil {
		panic("integratorMock.IntegrateRecordFunc: method is nil but integrator.IntegrateRecord was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Rec domain.ParseRecord
	}{Ctx: ctx, Rec: rec}
	mock.lockIntegrateRecord.Lock()
	mock.calls.IntegrateRecord = append(mock.calls.IntegrateRecord, callInfo)
	mock.lockIntegrateRecord.Unlock()
	return mock.IntegrateRecordFunc(ctx, rec)
}

func (mock *integratorMock) IntegrateRecordCalls() []struct {
	Ctx context.Context
	Rec domain.ParseRecord
} {
	mock.lockIntegrateRecord.RLock()
	calls := mock.calls.IntegrateRecord
	mock.lockIntegrateRecord.RUnlock()
	return calls
}
