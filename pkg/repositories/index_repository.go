package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// IndexRepository persists the semantic index documents. Mutating methods take
// a Querier so a full rebuild can run its delete-then-insert sequence inside a
// single transaction; ReplaceAll owns that transaction.
type IndexRepository interface {
	// ReplaceAll clears the index and runs fn inside the same transaction.
	// Any error from fn rolls everything back, leaving the previous index
	// intact.
	ReplaceAll(ctx context.Context, fn func(q database.Querier) error) error
	DeleteAll(ctx context.Context, q database.Querier) error
	InsertBatch(ctx context.Context, q database.Querier, docs []*models.IndexedDocument) error
	GetActive(ctx context.Context) ([]*models.IndexedDocument, error)
	Stats(ctx context.Context) (*models.IndexReport, error)
}

type indexRepository struct {
	db *database.DB
}

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(db *database.DB) IndexRepository {
	return &indexRepository{db: db}
}

var _ IndexRepository = (*indexRepository)(nil)

func (r *indexRepository) ReplaceAll(ctx context.Context, fn func(q database.Querier) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin index rebuild: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := r.DeleteAll(ctx, tx); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit index rebuild: %w", err)
	}
	return nil
}

func (r *indexRepository) DeleteAll(ctx context.Context, q database.Querier) error {
	if _, err := q.Exec(ctx, "DELETE FROM engine_index_documents"); err != nil {
		return fmt.Errorf("failed to clear index documents: %w", err)
	}
	return nil
}

func (r *indexRepository) InsertBatch(ctx context.Context, q database.Querier, docs []*models.IndexedDocument) error {
	query := `
		INSERT INTO engine_index_documents (
			id, record_type, record_id, content, embedding, priority, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	for _, doc := range docs {
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if _, err := q.Exec(ctx, query,
			doc.ID, doc.RecordType, doc.RecordID, doc.Content,
			doc.Embedding, doc.Priority, doc.IsActive, doc.CreatedAt, doc.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert index document for %s/%s: %w", doc.RecordType, doc.RecordID, err)
		}
	}
	return nil
}

func (r *indexRepository) GetActive(ctx context.Context) ([]*models.IndexedDocument, error) {
	query := `
		SELECT id, record_type, record_id, content, embedding, priority, is_active, created_at, updated_at
		FROM engine_index_documents
		WHERE is_active = true
		ORDER BY priority, record_type, record_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get index documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.IndexedDocument, 0)
	for rows.Next() {
		doc := &models.IndexedDocument{}
		if err := rows.Scan(
			&doc.ID, &doc.RecordType, &doc.RecordID, &doc.Content,
			&doc.Embedding, &doc.Priority, &doc.IsActive, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan index document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index documents: %w", err)
	}
	return docs, nil
}

func (r *indexRepository) Stats(ctx context.Context) (*models.IndexReport, error) {
	report := &models.IndexReport{PerType: make(map[string]int64)}

	query := `
		SELECT record_type, COUNT(*)
		FROM engine_index_documents
		WHERE is_active = true
		GROUP BY record_type
		ORDER BY record_type`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get index stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordType string
		var count int64
		if err := rows.Scan(&recordType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan index stats: %w", err)
		}
		report.PerType[recordType] = count
		report.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index stats: %w", err)
	}
	return report, nil
}
