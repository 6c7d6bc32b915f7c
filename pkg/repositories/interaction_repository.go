package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// InteractionRepository appends resolved queries to the audit log. The log is
// insert-only; nothing in the engine updates or deletes past interactions.
type InteractionRepository interface {
	Insert(ctx context.Context, interaction *models.Interaction) error
	GetRecent(ctx context.Context, limit int) ([]*models.Interaction, error)
}

type interactionRepository struct {
	db *database.DB
}

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(db *database.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

var _ InteractionRepository = (*interactionRepository)(nil)

func (r *interactionRepository) Insert(ctx context.Context, interaction *models.Interaction) error {
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	interaction.CreatedAt = time.Now()

	query := `
		INSERT INTO engine_interactions (
			id, query, action, method, result_count, response, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.Exec(ctx, query,
		interaction.ID, interaction.Query, interaction.Action, interaction.Method,
		interaction.ResultCount, interaction.Response, interaction.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

func (r *interactionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, query, action, method, result_count, response, created_at
		FROM engine_interactions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get interactions: %w", err)
	}
	defer rows.Close()

	interactions := make([]*models.Interaction, 0)
	for rows.Next() {
		i := &models.Interaction{}
		if err := rows.Scan(
			&i.ID, &i.Query, &i.Action, &i.Method, &i.ResultCount, &i.Response, &i.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return interactions, nil
}
