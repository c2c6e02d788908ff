package repository

import (
	"context"
	"fmt"
	"time"

	"knowledge-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates the pgvector-backed DocumentStore.
func NewDocumentRepository(pool *pgxpool.Pool) domain.DocumentStore {
	return &documentRepository{pool: pool}
}

type dbExecutor interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *documentRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

// Store assigns fresh IDs and bulk-inserts into the category's
// collection. Duplicate content across re-ingestions is accepted.
func (r *documentRepository) Store(ctx context.Context, category domain.Category, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return err
	}

	now := time.Now()
	rows := make([][]interface{}, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.Meta.Source == "" || doc.Meta.UserID == "" {
			return fmt.Errorf("document %d: %w", i, domain.ErrMissingOwnership)
		}
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		rows[i] = []interface{}{
			doc.ID,
			string(category),
			doc.Content,
			doc.Embedding,
			doc.Meta.Source,
			doc.Meta.UserID,
			doc.Meta.Page,
			doc.Meta.Image,
			doc.Meta.Summary,
			doc.CreatedAt,
		}
	}

	_, err := r.getExecutor(ctx).CopyFrom(
		ctx,
		pgx.Identifier{"documents"},
		[]string{"id", "collection", "content", "embedding", "source", "userid", "page", "image", "summary", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert documents: %w", err)
	}

	return nil
}

// DeleteBySource drops every row ingested from the named source,
// regardless of which collection it landed in.
func (r *documentRepository) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return domain.ErrMissingOwnership
	}
	_, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return fmt.Errorf("failed to delete documents for source %q: %w", source, err)
	}
	return nil
}

// Query retrieves the topK nearest documents by cosine distance,
// restricted to rows owned by the filter's source OR user.
func (r *documentRepository) Query(ctx context.Context, category domain.Category, queryVector []float32, topK int, filter domain.QueryFilter) ([]domain.Document, error) {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return nil, err
	}
	if filter.Source == "" && filter.UserID == "" {
		return nil, domain.ErrMissingOwnership
	}

	query := `
		SELECT id, content, embedding, source, userid, page, image, summary, created_at
		FROM documents
		WHERE collection = $1 AND (source = $2 OR userid = $3)
		ORDER BY embedding <=> $4
		LIMIT $5
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query,
		string(category),
		filter.Source,
		filter.UserID,
		pgvector.NewVector(queryVector),
		topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(
			&d.ID,
			&d.Content,
			&d.Embedding,
			&d.Meta.Source,
			&d.Meta.UserID,
			&d.Meta.Page,
			&d.Meta.Image,
			&d.Meta.Summary,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return docs, nil
}
