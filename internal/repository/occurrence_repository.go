package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

const occurrenceColumns = `id, term_id, lineage_id, day_of_week, start_slot, span, start_week, end_week, parity, is_modified, name, location, instructor, note, color, created_at, updated_at`

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// OccurrenceRepository persists course occurrences.
type OccurrenceRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewOccurrenceRepository builds the repository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// WithMetrics times the read queries.
func (r *OccurrenceRepository) WithMetrics(metrics queryObserver) *OccurrenceRepository {
	r.metrics = metrics
	return r
}

func (r *OccurrenceRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// exec picks tx when present so the same statements run inside or outside
// a transaction.
func (r *OccurrenceRepository) exec(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// BeginTxx starts a transaction on the underlying database.
func (r *OccurrenceRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// List returns occurrences matching the filter ordered by day, slot and id.
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]models.CourseOccurrence, error) {
	query := "SELECT " + occurrenceColumns + " FROM course_occurrences"
	var args []interface{}
	if filter.TermID != "" {
		query += " WHERE term_id = $1"
		args = append(args, filter.TermID)
	}
	query += " ORDER BY day_of_week ASC, start_slot ASC, id ASC"

	defer r.observe("occurrences.list", time.Now())
	var items []models.CourseOccurrence
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list course occurrences: %w", err)
	}
	return items, nil
}

// FindByID loads one occurrence.
func (r *OccurrenceRepository) FindByID(ctx context.Context, id int64) (*models.CourseOccurrence, error) {
	query := "SELECT " + occurrenceColumns + " FROM course_occurrences WHERE id = $1"
	var item models.CourseOccurrence
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByLineage returns the root and every record derived from it. A record
// only stands for its own id when it has no lineage of its own.
func (r *OccurrenceRepository) ListByLineage(ctx context.Context, lineageID int64) ([]models.CourseOccurrence, error) {
	query := "SELECT " + occurrenceColumns + " FROM course_occurrences WHERE lineage_id = $1 OR (id = $1 AND lineage_id IS NULL) ORDER BY id ASC"
	defer r.observe("occurrences.lineage", time.Now())
	var items []models.CourseOccurrence
	if err := r.db.SelectContext(ctx, &items, query, lineageID); err != nil {
		return nil, fmt.Errorf("list lineage occurrences: %w", err)
	}
	return items, nil
}

// Create inserts a single occurrence outside of any transaction.
func (r *OccurrenceRepository) Create(ctx context.Context, occurrence *models.CourseOccurrence) error {
	return r.insert(ctx, r.db, occurrence)
}

// InsertBatchWithTx inserts records inside tx, assigning their ids.
func (r *OccurrenceRepository) InsertBatchWithTx(ctx context.Context, tx *sqlx.Tx, occurrences []models.CourseOccurrence) ([]int64, error) {
	ids := make([]int64, 0, len(occurrences))
	for i := range occurrences {
		if err := r.insert(ctx, r.exec(tx), &occurrences[i]); err != nil {
			return nil, err
		}
		ids = append(ids, occurrences[i].ID)
	}
	return ids, nil
}

func (r *OccurrenceRepository) insert(ctx context.Context, exec sqlx.ExtContext, occurrence *models.CourseOccurrence) error {
	now := time.Now().UTC()
	if occurrence.CreatedAt.IsZero() {
		occurrence.CreatedAt = now
	}
	occurrence.UpdatedAt = now

	const query = `INSERT INTO course_occurrences (term_id, lineage_id, day_of_week, start_slot, span, start_week, end_week, parity, is_modified, name, location, instructor, note, color, created_at, updated_at)
VALUES (:term_id, :lineage_id, :day_of_week, :start_slot, :span, :start_week, :end_week, :parity, :is_modified, :name, :location, :instructor, :note, :color, :created_at, :updated_at)
RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, exec, query, occurrence)
	if err != nil {
		return fmt.Errorf("insert course occurrence: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert course occurrence: %w", err)
		}
		return fmt.Errorf("insert course occurrence: no id returned")
	}
	if err := rows.Scan(&occurrence.ID); err != nil {
		return fmt.Errorf("scan course occurrence id: %w", err)
	}
	return nil
}

// DeleteWithTx removes one record and reports how many rows went away.
func (r *OccurrenceRepository) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	res, err := r.exec(tx).ExecContext(ctx, `DELETE FROM course_occurrences WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete course occurrence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete course occurrence rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByIDsWithTx removes every listed record.
func (r *OccurrenceRepository) DeleteByIDsWithTx(ctx context.Context, tx *sqlx.Tx, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.exec(tx).ExecContext(ctx, `DELETE FROM course_occurrences WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete course occurrences: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete course occurrences rows affected: %w", err)
	}
	return affected, nil
}

// UpdatePlacementsWithTx rewrites start slot and span of existing records.
func (r *OccurrenceRepository) UpdatePlacementsWithTx(ctx context.Context, tx *sqlx.Tx, placements []models.SlotAssignment) error {
	const query = `UPDATE course_occurrences SET start_slot = $1, span = $2, updated_at = $3 WHERE id = $4`
	now := time.Now().UTC()
	for _, p := range placements {
		if _, err := r.exec(tx).ExecContext(ctx, query, p.StartSlot, p.Span, now, p.ID); err != nil {
			return fmt.Errorf("update course occurrence placement: %w", err)
		}
	}
	return nil
}
