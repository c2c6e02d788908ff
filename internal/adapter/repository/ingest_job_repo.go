package repository

import (
	"context"
	"fmt"
	"time"

	"knowledge-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IngestJobRepository struct {
	db *pgxpool.Pool
}

func NewIngestJobRepository(db *pgxpool.Pool) domain.IngestJobRepository {
	return &IngestJobRepository{db: db}
}

func (r *IngestJobRepository) Enqueue(ctx context.Context, job *domain.IngestJob) error {
	query := `
		INSERT INTO ingest_jobs (id, kind, url, filename, userid, status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.Kind,
		job.URL,
		job.Filename,
		job.UserID,
		job.Status,
		job.Attempts,
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// ClaimNext atomically flips the oldest pending job to running so
// concurrent workers never pick up the same job.
func (r *IngestJobRepository) ClaimNext(ctx context.Context) (*domain.IngestJob, error) {
	cteQuery := `
		WITH next_job AS (
			SELECT id
			FROM ingest_jobs
			WHERE status = 'pending'
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE ingest_jobs
		SET status = 'running', attempts = attempts + 1, updated_at = $1
		FROM next_job
		WHERE ingest_jobs.id = next_job.id
		RETURNING ingest_jobs.id, ingest_jobs.kind, ingest_jobs.url, ingest_jobs.filename,
			ingest_jobs.userid, ingest_jobs.status, ingest_jobs.attempts,
			ingest_jobs.last_error, ingest_jobs.created_at, ingest_jobs.updated_at
	`

	var job domain.IngestJob
	err := r.db.QueryRow(ctx, cteQuery, time.Now()).Scan(
		&job.ID,
		&job.Kind,
		&job.URL,
		&job.Filename,
		&job.UserID,
		&job.Status,
		&job.Attempts,
		&job.LastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim next job: %w", err)
	}

	return &job, nil
}

func (r *IngestJobRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, domain.JobStatusDone, "")
}

func (r *IngestJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	return r.updateStatus(ctx, id, domain.JobStatusFailed, cause)
}

func (r *IngestJobRepository) updateStatus(ctx context.Context, id uuid.UUID, status, lastError string) error {
	query := `
		UPDATE ingest_jobs
		SET status = $1, last_error = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, status, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}
