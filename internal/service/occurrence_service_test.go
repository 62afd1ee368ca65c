package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

func validOccurrenceRequest() dto.OccurrenceRequest {
	return dto.OccurrenceRequest{
		TermID:    "term-1",
		DayOfWeek: 2,
		StartSlot: 1,
		Span:      2,
		StartWeek: 1,
		EndWeek:   16,
		Parity:    "odd",
		Name:      "  Chemistry ",
		Location:  "C301",
	}
}

func TestOccurrenceServiceCreate(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	store := newOccurrenceStore()
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), validOccurrenceRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(101), created.ID)
	assert.Equal(t, "Chemistry", created.Name)
	assert.Equal(t, weekset.ParityOdd, created.Parity)
	assert.True(t, created.IsRoot())
	assert.Len(t, store.items, 1)
}

func TestOccurrenceServiceCreateValidation(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	svc := NewOccurrenceService(newOccurrenceStore(), newTermStub(testTerm()), tx, nil, nil, nil, nil)

	cases := map[string]func(*dto.OccurrenceRequest){
		"sections overflow": func(r *dto.OccurrenceRequest) { r.StartSlot = 12 },
		"beyond term":       func(r *dto.OccurrenceRequest) { r.EndWeek = 21 },
		"reversed weeks":    func(r *dto.OccurrenceRequest) { r.StartWeek, r.EndWeek = 9, 3 },
		"unknown parity":    func(r *dto.OccurrenceRequest) { r.Parity = "weekly" },
		"missing name":      func(r *dto.OccurrenceRequest) { r.Name = "" },
		"empty parity week": func(r *dto.OccurrenceRequest) { r.StartWeek, r.EndWeek, r.Parity = 2, 2, "ODD" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validOccurrenceRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
		})
	}
}

func TestOccurrenceServiceCreateUnknownTerm(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	svc := NewOccurrenceService(newOccurrenceStore(), newTermStub(), tx, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), validOccurrenceRequest())
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestOccurrenceServiceUpdateKeepsLineage(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	existing := occurrence(30, 1, 3, 2, 1, 8, weekset.ParityAll)
	existing.LineageID = lineageOf(7)
	existing.IsModified = true
	store := newOccurrenceStore(existing)
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := svc.Update(context.Background(), 30, validOccurrenceRequest())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NotEqual(t, int64(30), updated.ID)
	assert.Equal(t, int64(7), updated.RootLineage())
	assert.True(t, updated.IsModified)
	assert.Equal(t, 2, updated.DayOfWeek)
	_, old := store.items[30]
	assert.False(t, old)
}

func TestOccurrenceServiceUpdateRejectsTermChange(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	store := newOccurrenceStore(occurrence(30, 1, 3, 2, 1, 8, weekset.ParityAll))
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, nil, nil, nil)

	req := validOccurrenceRequest()
	req.TermID = "term-2"
	_, err := svc.Update(context.Background(), 30, req)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}

func TestOccurrenceServiceUpdateStaleRecord(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	store := newOccurrenceStore(occurrence(30, 1, 3, 2, 1, 8, weekset.ParityAll))
	store.staleDelete = true
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 30, validOccurrenceRequest())
	assert.Equal(t, "CONFLICT", errorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceServiceDelete(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	store := newOccurrenceStore(occurrence(30, 1, 3, 2, 1, 8, weekset.ParityAll))
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(context.Background(), 30))
	assert.Empty(t, store.items)

	err := svc.Delete(context.Background(), 30)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceServiceCheckConflicts(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	store := newOccurrenceStore(
		occurrence(1, 2, 1, 2, 1, 16, weekset.ParityOdd),
		occurrence(2, 2, 4, 2, 1, 16, weekset.ParityAll),
	)
	svc := NewOccurrenceService(store, newTermStub(testTerm()), tx, nil, NewMetricsService(), nil, nil)

	report, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TermID: "term-1", DayOfWeek: 2, StartSlot: 2, Span: 1,
		StartWeek: 1, EndWeek: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, report.Weeks)
	require.Len(t, report.Occurrences, 1)
	assert.Equal(t, int64(1), report.Occurrences[0].Occurrence.ID)

	report, err = svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TermID: "term-1", DayOfWeek: 2, StartSlot: 2, Span: 1,
		Weeks: []int{4, 2}, StartWeek: 1, EndWeek: 6,
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts())

	report, err = svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TermID: "term-1", DayOfWeek: 2, StartSlot: 1, Span: 1,
		Weeks: []int{3}, ExcludeID: 1,
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts())
}

func TestOccurrenceServiceCheckConflictsNeedsWeeks(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	svc := NewOccurrenceService(newOccurrenceStore(), newTermStub(testTerm()), tx, nil, nil, nil, nil)

	_, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TermID: "term-1", DayOfWeek: 2, StartSlot: 2, Span: 1,
	})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}
