package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

type sqlmockTxProvider struct {
	db *sqlx.DB
}

func (p *sqlmockTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

func newSQLMockTx(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlmockTxProvider{db: sqlx.NewDb(db, "sqlmock")}, mock
}

// occurrenceStore is an in-memory occurrence repository. Writes are applied
// immediately; tests assert transaction outcomes through sqlmock.
type occurrenceStore struct {
	items  map[int64]models.CourseOccurrence
	nextID int64

	listErr   error
	insertErr error
	deleteErr error
	// staleDelete makes deletes report zero affected rows.
	staleDelete bool

	listCalls  int
	placements []models.SlotAssignment
}

func newOccurrenceStore(items ...models.CourseOccurrence) *occurrenceStore {
	s := &occurrenceStore{items: make(map[int64]models.CourseOccurrence), nextID: 100}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *occurrenceStore) sorted() []models.CourseOccurrence {
	out := make([]models.CourseOccurrence, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *occurrenceStore) List(ctx context.Context, filter models.OccurrenceFilter) ([]models.CourseOccurrence, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.CourseOccurrence
	for _, item := range s.sorted() {
		if filter.TermID != "" && item.TermID != filter.TermID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *occurrenceStore) FindByID(ctx context.Context, id int64) (*models.CourseOccurrence, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *occurrenceStore) ListByLineage(ctx context.Context, lineageID int64) ([]models.CourseOccurrence, error) {
	var out []models.CourseOccurrence
	for _, item := range s.sorted() {
		if item.RootLineage() == lineageID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *occurrenceStore) Create(ctx context.Context, occurrence *models.CourseOccurrence) error {
	ids, err := s.InsertBatchWithTx(ctx, nil, []models.CourseOccurrence{*occurrence})
	if err != nil {
		return err
	}
	occurrence.ID = ids[0]
	return nil
}

func (s *occurrenceStore) InsertBatchWithTx(ctx context.Context, tx *sqlx.Tx, occurrences []models.CourseOccurrence) ([]int64, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	ids := make([]int64, 0, len(occurrences))
	for i := range occurrences {
		s.nextID++
		occurrences[i].ID = s.nextID
		s.items[s.nextID] = occurrences[i]
		ids = append(ids, s.nextID)
	}
	return ids, nil
}

func (s *occurrenceStore) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	return s.DeleteByIDsWithTx(ctx, tx, []int64{id})
}

func (s *occurrenceStore) DeleteByIDsWithTx(ctx context.Context, tx *sqlx.Tx, ids []int64) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	if s.staleDelete {
		return 0, nil
	}
	var affected int64
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			affected++
		}
	}
	return affected, nil
}

func (s *occurrenceStore) UpdatePlacementsWithTx(ctx context.Context, tx *sqlx.Tx, placements []models.SlotAssignment) error {
	s.placements = append(s.placements, placements...)
	return nil
}

type termStub struct {
	terms map[string]models.Term
}

func newTermStub(terms ...models.Term) *termStub {
	s := &termStub{terms: make(map[string]models.Term)}
	for _, term := range terms {
		s.terms[term.ID] = term
	}
	return s
}

func (s *termStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term, ok := s.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

type originStub struct {
	origins map[int64]models.LineageOrigin
	saveErr error
}

func newOriginStub() *originStub {
	return &originStub{origins: make(map[int64]models.LineageOrigin)}
}

func (s *originStub) Find(ctx context.Context, lineageID int64) (*models.LineageOrigin, error) {
	origin, ok := s.origins[lineageID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &origin, nil
}

func (s *originStub) SaveIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, origin *models.LineageOrigin) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.origins[origin.LineageID]; !ok {
		s.origins[origin.LineageID] = *origin
	}
	return nil
}

func (s *originStub) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, lineageID int64) error {
	delete(s.origins, lineageID)
	return nil
}

func testTerm() models.Term {
	return models.Term{
		ID:             "term-1",
		Name:           "Autumn",
		StartDate:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		TotalWeeks:     20,
		SectionsPerDay: 12,
	}
}

func occurrence(id int64, day, slot, span, start, end int, parity weekset.Parity) models.CourseOccurrence {
	return models.CourseOccurrence{
		ID:        id,
		TermID:    "term-1",
		DayOfWeek: day,
		StartSlot: slot,
		Span:      span,
		StartWeek: start,
		EndWeek:   end,
		Parity:    parity,
		Name:      "Physics",
		Location:  "A101",
	}
}

func lineageOf(id int64) *int64 {
	return &id
}

func weeksOf(records []models.CourseOccurrence) []int {
	var weeks []int
	for _, rec := range records {
		weeks = append(weeks, rec.Weeks()...)
	}
	sort.Ints(weeks)
	return weeks
}

func errorCode(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
