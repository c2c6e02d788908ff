package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"knowledge-orchestrator/internal/domain"
	"knowledge-orchestrator/internal/infra/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubJobRepo struct {
	mu           sync.Mutex
	jobs         []*domain.IngestJob // jobs to return from ClaimNext (consumed FIFO)
	err          error
	done         []uuid.UUID
	failed       map[uuid.UUID]string
	failedCtxErr map[uuid.UUID]error // ctx.Err() observed at MarkFailed time
}

func (s *stubJobRepo) Enqueue(ctx context.Context, job *domain.IngestJob) error { return nil }

func (s *stubJobRepo) ClaimNext(ctx context.Context) (*domain.IngestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.jobs) == 0 {
		return nil, nil
	}
	job := s.jobs[0]
	s.jobs = s.jobs[1:]
	return job, nil
}

func (s *stubJobRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, id)
	return nil
}

func (s *stubJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = make(map[uuid.UUID]string)
		s.failedCtxErr = make(map[uuid.UUID]error)
	}
	s.failed[id] = cause
	s.failedCtxErr[id] = ctx.Err()
	return nil
}

type stubIngestor struct {
	mu             sync.Mutex
	capturedCtx    context.Context
	pdfCalls       int
	csvCalls       int
	returnErr      error
	blockUntilDone bool // hold the job until its context expires
}

func (s *stubIngestor) IngestPDF(ctx context.Context, url, filename, userID string) error {
	s.mu.Lock()
	s.capturedCtx = ctx
	s.pdfCalls++
	block := s.blockUntilDone
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returnErr
}

func (s *stubIngestor) IngestCSV(ctx context.Context, url, filename, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturedCtx = ctx
	s.csvCalls++
	return s.returnErr
}

func makeJob(kind string) *domain.IngestJob {
	return &domain.IngestJob{
		ID:       uuid.New(),
		Kind:     kind,
		URL:      "https://example.com/file",
		Filename: "file.pdf",
		UserID:   "alice",
		Status:   domain.JobStatusRunning,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newFastWorker removes rate limiting so tests don't wait.
func newFastWorker(repo *stubJobRepo, ingestor *stubIngestor) *JobWorker {
	w := NewJobWorker(repo, ingestor, ingestor, 1, testLogger())
	w.limiter.SetLimit(1e6)
	return w
}

// --- tests ---

func TestProcessNextJob_ContextHasTimeout(t *testing.T) {
	ingestor := &stubIngestor{}
	repo := &stubJobRepo{jobs: []*domain.IngestJob{makeJob(domain.JobKindPDF)}}

	w := newFastWorker(repo, ingestor)
	w.processNextJob()

	ingestor.mu.Lock()
	defer ingestor.mu.Unlock()

	assert.NotNil(t, ingestor.capturedCtx, "IngestPDF should have been called")
	deadline, ok := ingestor.capturedCtx.Deadline()
	assert.True(t, ok, "context passed to the ingestor must have a deadline")
	assert.WithinDuration(t, time.Now().Add(defaultJobTimeout), deadline, 5*time.Second)
}

func TestProcessNextJob_ContextCarriesJobMetadata(t *testing.T) {
	job := makeJob(domain.JobKindPDF)
	ingestor := &stubIngestor{}
	repo := &stubJobRepo{jobs: []*domain.IngestJob{job}}

	w := newFastWorker(repo, ingestor)
	w.processNextJob()

	ingestor.mu.Lock()
	defer ingestor.mu.Unlock()

	require.NotNil(t, ingestor.capturedCtx)
	assert.Equal(t, job.ID.String(), ingestor.capturedCtx.Value(logger.JobIDKey))
	assert.Equal(t, "file.pdf", ingestor.capturedCtx.Value(logger.FilenameKey))
	assert.Equal(t, "ingest", ingestor.capturedCtx.Value(logger.StageKey))
}

func TestProcessNextJob_MarksFailedAfterJobDeadline(t *testing.T) {
	job := makeJob(domain.JobKindPDF)
	repo := &stubJobRepo{jobs: []*domain.IngestJob{job}}
	ingestor := &stubIngestor{blockUntilDone: true}

	w := newFastWorker(repo, ingestor)
	w.jobTimeout = 50 * time.Millisecond
	w.processNextJob()

	// The failure cause is the expired deadline, but the status write
	// itself must land on a live context or the row stays running.
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Contains(t, repo.failed, job.ID)
	assert.Contains(t, repo.failed[job.ID], context.DeadlineExceeded.Error())
	assert.NoError(t, repo.failedCtxErr[job.ID], "status update must not reuse the expired job context")
}

func TestProcessNextJob_DispatchesByKind(t *testing.T) {
	ingestor := &stubIngestor{}
	repo := &stubJobRepo{jobs: []*domain.IngestJob{
		makeJob(domain.JobKindPDF),
		makeJob(domain.JobKindCSV),
	}}

	w := newFastWorker(repo, ingestor)
	w.processNextJob()
	w.processNextJob()

	ingestor.mu.Lock()
	defer ingestor.mu.Unlock()
	assert.Equal(t, 1, ingestor.pdfCalls)
	assert.Equal(t, 1, ingestor.csvCalls)
	assert.Len(t, repo.done, 2)
}

func TestProcessNextJob_UnknownKindFails(t *testing.T) {
	job := makeJob("ingest_docx")
	repo := &stubJobRepo{jobs: []*domain.IngestJob{job}}

	w := newFastWorker(repo, &stubIngestor{})
	w.processNextJob()

	assert.Contains(t, repo.failed[job.ID], "unknown job kind")
}

func TestProcessNextJob_FailureRecordsCause(t *testing.T) {
	job := makeJob(domain.JobKindPDF)
	repo := &stubJobRepo{jobs: []*domain.IngestJob{job}}
	ingestor := &stubIngestor{returnErr: errors.New("embedder unreachable")}

	w := newFastWorker(repo, ingestor)
	w.processNextJob()

	assert.Equal(t, "embedder unreachable", repo.failed[job.ID])
	assert.Empty(t, repo.done)
}

func TestJobWorker_BacksOffOnConsecutiveFailures(t *testing.T) {
	repo := &stubJobRepo{
		jobs: []*domain.IngestJob{makeJob(domain.JobKindPDF), makeJob(domain.JobKindPDF), makeJob(domain.JobKindPDF)},
	}
	ingestor := &stubIngestor{returnErr: errors.New("embedder unreachable")}

	w := newFastWorker(repo, ingestor)

	// First failure: backoff should be initialBackoff (1s)
	w.processNextJob()
	assert.Equal(t, initialBackoff, w.backoff)

	// Second failure: backoff doubles to 2s
	w.processNextJob()
	assert.Equal(t, 2*time.Second, w.backoff)

	// Third failure: backoff doubles to 4s
	w.processNextJob()
	assert.Equal(t, 4*time.Second, w.backoff)
}

func TestJobWorker_BackoffResetsOnSuccess(t *testing.T) {
	repo := &stubJobRepo{
		jobs: []*domain.IngestJob{makeJob(domain.JobKindPDF), makeJob(domain.JobKindPDF)},
	}
	ingestor := &stubIngestor{returnErr: errors.New("fail")}

	w := newFastWorker(repo, ingestor)

	// Failure sets backoff
	w.processNextJob()
	assert.Equal(t, initialBackoff, w.backoff)

	// Now succeed
	ingestor.mu.Lock()
	ingestor.returnErr = nil
	ingestor.mu.Unlock()

	w.processNextJob()
	assert.Equal(t, time.Duration(0), w.backoff, "backoff should reset on success")
}

func TestJobWorker_BackoffCapsAtMax(t *testing.T) {
	w := NewJobWorker(nil, nil, nil, 1, testLogger())

	bo := time.Duration(0)
	for i := 0; i < 20; i++ {
		bo = w.nextBackoff(bo)
	}
	assert.Equal(t, maxBackoff, bo, "backoff must cap at maxBackoff")
	assert.LessOrEqual(t, bo, maxBackoff)
}
