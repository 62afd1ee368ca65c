package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

// LineageOriginRepository stores the first placement of rescheduled lineages.
type LineageOriginRepository struct {
	db *sqlx.DB
}

// NewLineageOriginRepository builds the repository.
func NewLineageOriginRepository(db *sqlx.DB) *LineageOriginRepository {
	return &LineageOriginRepository{db: db}
}

// Find returns the origin of a lineage.
func (r *LineageOriginRepository) Find(ctx context.Context, lineageID int64) (*models.LineageOrigin, error) {
	const query = `SELECT lineage_id, term_id, snapshot, created_at FROM lineage_origins WHERE lineage_id = $1`
	var origin models.LineageOrigin
	if err := r.db.GetContext(ctx, &origin, query, lineageID); err != nil {
		return nil, err
	}
	return &origin, nil
}

// SaveIfAbsentWithTx records the origin unless one already exists.
func (r *LineageOriginRepository) SaveIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, origin *models.LineageOrigin) error {
	if origin.CreatedAt.IsZero() {
		origin.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lineage_origins (lineage_id, term_id, snapshot, created_at)
VALUES (:lineage_id, :term_id, :snapshot, :created_at)
ON CONFLICT (lineage_id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, origin); err != nil {
		return fmt.Errorf("save lineage origin: %w", err)
	}
	return nil
}

// DeleteWithTx forgets the origin once a lineage has been merged back.
func (r *LineageOriginRepository) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, lineageID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lineage_origins WHERE lineage_id = $1`, lineageID); err != nil {
		return fmt.Errorf("delete lineage origin: %w", err)
	}
	return nil
}
