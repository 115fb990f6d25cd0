package learning

import (
	"sync"
)

var _ reader = &readerMock{}

type readerMock struct {
	ReadingFunc func(text string) string

	calls struct {
		Reading []struct {
			Text string
		}
	}
	lockReading sync.RWMutex
}

func (mock *readerMock) Reading(text string) string {
	if mock.ReadingFunc == nil {
		panic("readerMock.ReadingFunc: method is nil but reader.Reading was just called")
	}
	callInfo := struct{ Text string }{Text: text}
	mock.lockReading.Lock()
	mock.calls.Reading = append(mock.calls.Reading, callInfo)
	mock.lockReading.Unlock()
	return mock.ReadingFunc(text)
}

func (mock *readerMock) ReadingCalls() []struct{ Text string } {
	mock.lockReading.RLock()
	calls := mock.calls.Reading
	mock.lockReading.RUnlock()
	return calls
}
