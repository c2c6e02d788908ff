package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"knowledge-orchestrator/internal/domain"
	"knowledge-orchestrator/internal/infra/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultJobTimeout   = 10 * time.Minute
	statusTimeout       = 30 * time.Second
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// PDFIngestor processes a queued PDF ingestion.
type PDFIngestor interface {
	IngestPDF(ctx context.Context, url, filename, userID string) error
}

// CSVIngestor processes a queued CSV ingestion.
type CSVIngestor interface {
	IngestCSV(ctx context.Context, url, filename, userID string) error
}

// JobWorker polls the ingest queue and runs jobs one at a time. Jobs
// are model-heavy, so a rate limiter paces how fast they are claimed
// even when the queue is deep.
type JobWorker struct {
	jobRepo  domain.IngestJobRepository
	pdf      PDFIngestor
	csv      CSVIngestor
	limiter  *rate.Limiter
	logger   *slog.Logger
	ctxLog   *logger.ContextLogger
	stopChan chan struct{}
	backoff  time.Duration

	pollInterval time.Duration
	jobTimeout   time.Duration
}

func NewJobWorker(
	jobRepo domain.IngestJobRepository,
	pdf PDFIngestor,
	csv CSVIngestor,
	jobsPerMinute int,
	log *slog.Logger,
) *JobWorker {
	if jobsPerMinute <= 0 {
		jobsPerMinute = 6
	}
	return &JobWorker{
		jobRepo:      jobRepo,
		pdf:          pdf,
		csv:          csv,
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(jobsPerMinute)), 1),
		logger:       log,
		ctxLog:       logger.NewContextLogger(log, "job-worker"),
		stopChan:     make(chan struct{}),
		pollInterval: defaultPollInterval,
		jobTimeout:   defaultJobTimeout,
	}
}

// SetPollInterval overrides how often the queue is polled when idle.
func (w *JobWorker) SetPollInterval(d time.Duration) {
	if d > 0 {
		w.pollInterval = d
	}
}

func (w *JobWorker) Start() {
	w.logger.Info("Starting JobWorker")
	go w.run()
}

func (w *JobWorker) Stop() {
	w.logger.Info("Stopping JobWorker")
	close(w.stopChan)
}

func (w *JobWorker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processNextJob()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(w.pollInterval)
			}
		}
	}
}

func (w *JobWorker) processNextJob() {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	job, err := w.jobRepo.ClaimNext(ctx)
	if err != nil {
		w.logger.Error("Failed to claim next job", "error", err)
		return
	}
	if job == nil {
		return // queue empty
	}

	ctx = logger.WithJobID(ctx, job.ID.String())
	ctx = logger.WithFilename(ctx, job.Filename)
	ctx = logger.WithStage(ctx, "ingest")
	log := w.ctxLog.WithContext(ctx)

	if err := w.limiter.Wait(ctx); err != nil {
		log.Warn("Rate limiter interrupted", "error", err)
		w.markFailed(job.ID, err.Error())
		return
	}

	log.Info("Processing job", "kind", job.Kind)

	var processErr error
	switch job.Kind {
	case domain.JobKindPDF:
		processErr = w.pdf.IngestPDF(ctx, job.URL, job.Filename, job.UserID)
	case domain.JobKindCSV:
		processErr = w.csv.IngestCSV(ctx, job.URL, job.Filename, job.UserID)
	default:
		processErr = fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	if processErr != nil {
		w.backoff = w.nextBackoff(w.backoff)
		log.Warn("Worker backing off", "backoff", w.backoff, "error", processErr)
		w.markFailed(job.ID, processErr.Error())
		return
	}

	w.backoff = 0
	log.Info("Job completed")
	w.markDone(job.ID)
}

// Terminal status updates run on their own context. The job context
// may already be expired (that is often why the job failed), and a
// status write that never lands leaves the row in running forever.
func (w *JobWorker) markFailed(id uuid.UUID, cause string) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	if err := w.jobRepo.MarkFailed(ctx, id, cause); err != nil {
		w.logger.Error("Failed to update job status", "job_id", id, "error", err)
	}
}

func (w *JobWorker) markDone(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	if err := w.jobRepo.MarkDone(ctx, id); err != nil {
		w.logger.Error("Failed to update job status", "job_id", id, "error", err)
	}
}

func (w *JobWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
