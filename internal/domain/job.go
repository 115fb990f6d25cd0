package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationJob is the checkpoint of a resumable rebuild or repair job.
// Its ID doubles as the continuation token handed back to callers.
type IntegrationJob struct {
	ID               uuid.UUID
	Kind             JobKind
	Status           JobStatus
	Collection       Collection
	Cursor           *RecordCursor
	CursorKey        string
	ProcessedRecords int
	ProcessedGroups  int
	RemovedDocs      int
	TotalWords       int
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Finished reports whether the job reached a terminal status.
func (j IntegrationJob) Finished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
