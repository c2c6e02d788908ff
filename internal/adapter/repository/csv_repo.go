package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"knowledge-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type csvRepository struct {
	pool *pgxpool.Pool
}

// NewCSVRepository creates the Postgres-backed CSVRepository. Header
// and rows are stored as jsonb so files with any column shape fit one
// table.
func NewCSVRepository(pool *pgxpool.Pool) domain.CSVRepository {
	return &csvRepository{pool: pool}
}

func (r *csvRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *csvRepository) Save(ctx context.Context, file *domain.CSVFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	headerBytes, err := json.Marshal(file.Header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	rowsBytes, err := json.Marshal(file.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	query := `
		INSERT INTO csv_files (id, filename, header, rows, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filename) DO UPDATE
		SET header = EXCLUDED.header, rows = EXCLUDED.rows, created_at = EXCLUDED.created_at
	`
	_, err = r.getExecutor(ctx).Exec(ctx, query,
		file.ID, file.Filename, headerBytes, rowsBytes, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save csv file: %w", err)
	}
	return nil
}

func (r *csvRepository) Load(ctx context.Context, filename string) (*domain.CSVFile, error) {
	query := `
		SELECT id, filename, header, rows, created_at
		FROM csv_files
		WHERE filename = $1
	`
	var (
		file        domain.CSVFile
		headerBytes []byte
		rowsBytes   []byte
	)
	row := r.getExecutor(ctx).QueryRow(ctx, query, filename)
	if err := row.Scan(&file.ID, &file.Filename, &headerBytes, &rowsBytes, &file.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrFileNotMapped
		}
		return nil, fmt.Errorf("failed to load csv file: %w", err)
	}

	if err := json.Unmarshal(headerBytes, &file.Header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}
	if err := json.Unmarshal(rowsBytes, &file.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	return &file, nil
}

func (r *csvRepository) ListFilenames(ctx context.Context) ([]string, error) {
	rows, err := r.getExecutor(ctx).Query(ctx, `SELECT filename FROM csv_files ORDER BY filename ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list csv files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan filename: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}
