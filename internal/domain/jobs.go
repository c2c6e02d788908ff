package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ingest job states.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Ingest job kinds.
const (
	JobKindPDF = "ingest_pdf"
	JobKindCSV = "ingest_csv"
)

// IngestJob is one queued file-ingestion request.
type IngestJob struct {
	ID        uuid.UUID
	Kind      string
	URL       string
	Filename  string
	UserID    string
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestJobRepository queues and claims ingestion work.
type IngestJobRepository interface {
	Enqueue(ctx context.Context, job *IngestJob) error

	// ClaimNext locks and returns the oldest pending job, or nil when
	// the queue is empty.
	ClaimNext(ctx context.Context) (*IngestJob, error)

	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string) error
}

// TransactionManager runs fn inside a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
