package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

func TestLineageOriginRepositoryFind(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLineageOriginRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lineage_origins WHERE lineage_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"lineage_id", "term_id", "snapshot", "created_at"}).
			AddRow(7, "term-1", []byte(`{"id":7,"start_slot":3}`), time.Now()))

	origin, err := repo.Find(context.Background(), 7)
	require.NoError(t, err)
	var snapshot models.CourseOccurrence
	require.NoError(t, origin.Snapshot.Unmarshal(&snapshot))
	assert.Equal(t, 3, snapshot.StartSlot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLineageOriginRepositorySaveAndDelete(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLineageOriginRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO lineage_origins .* ON CONFLICT \(lineage_id\) DO NOTHING`).
		WithArgs(int64(7), "term-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lineage_origins WHERE lineage_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	origin := &models.LineageOrigin{LineageID: 7, TermID: "term-1", Snapshot: types.JSONText(`{"id":7}`)}
	require.NoError(t, repo.SaveIfAbsentWithTx(context.Background(), tx, origin))
	assert.False(t, origin.CreatedAt.IsZero())
	require.NoError(t, repo.DeleteWithTx(context.Background(), tx, 7))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
