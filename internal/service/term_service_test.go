package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

type termRepoStub struct {
	terms       map[string]models.Term
	occurrences map[string]int
	listErr     error
	lastFilter  models.TermFilter
	deleted     []string
}

func newTermRepoStub(terms ...models.Term) *termRepoStub {
	s := &termRepoStub{terms: make(map[string]models.Term), occurrences: make(map[string]int)}
	for _, term := range terms {
		s.terms[term.ID] = term
	}
	return s
}

func (s *termRepoStub) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var out []models.Term
	for _, term := range s.terms {
		out = append(out, term)
	}
	return out, len(out), nil
}

func (s *termRepoStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term, ok := s.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

func (s *termRepoStub) Create(ctx context.Context, term *models.Term) error {
	term.ID = "term-new"
	s.terms[term.ID] = *term
	return nil
}

func (s *termRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.terms, id)
	return nil
}

func (s *termRepoStub) CountOccurrences(ctx context.Context, id string) (int, error) {
	return s.occurrences[id], nil
}

func TestTermServiceCreate(t *testing.T) {
	repo := newTermRepoStub()
	svc := NewTermService(repo, nil, nil)

	start := time.Date(2026, 9, 7, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	term, err := svc.Create(context.Background(), CreateTermRequest{Name: "Autumn", StartDate: start, TotalWeeks: 20, SectionsPerDay: 12})
	require.NoError(t, err)
	assert.Equal(t, "term-new", term.ID)
	assert.Equal(t, time.UTC, term.StartDate.Location())

	_, err = svc.Create(context.Background(), CreateTermRequest{Name: "Broken", StartDate: start, TotalWeeks: 0, SectionsPerDay: 12})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}

func TestTermServiceListPagination(t *testing.T) {
	repo := newTermRepoStub(testTerm())
	svc := NewTermService(repo, nil, nil)

	terms, pagination, err := svc.List(context.Background(), models.TermFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, terms, 1)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, pagination)

	repo.listErr = errors.New("db down")
	_, _, err = svc.List(context.Background(), models.TermFilter{})
	assert.Equal(t, "INTERNAL_ERROR", errorCode(err))
}

func TestTermServiceDelete(t *testing.T) {
	repo := newTermRepoStub(testTerm())
	repo.occurrences["term-1"] = 3
	svc := NewTermService(repo, nil, nil)

	err := svc.Delete(context.Background(), "term-1")
	assert.Equal(t, "PRECONDITION_FAILED", errorCode(err))
	assert.Empty(t, repo.deleted)

	repo.occurrences["term-1"] = 0
	require.NoError(t, svc.Delete(context.Background(), "term-1"))
	assert.Equal(t, []string{"term-1"}, repo.deleted)

	err = svc.Delete(context.Background(), "term-1")
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}
