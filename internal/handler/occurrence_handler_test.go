package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
)

type occurrenceServiceMock struct {
	item       *models.CourseOccurrence
	err        error
	report     *models.ConflictReport
	lastID     int64
	lastReq    dto.OccurrenceRequest
	lastCheck  dto.ConflictCheckRequest
	lastTermID string
	deleted    bool
}

func (m *occurrenceServiceMock) Get(ctx context.Context, id int64) (*models.CourseOccurrence, error) {
	m.lastID = id
	return m.item, m.err
}

func (m *occurrenceServiceMock) ListByTerm(ctx context.Context, termID string) ([]models.CourseOccurrence, error) {
	m.lastTermID = termID
	if m.item == nil {
		return []models.CourseOccurrence{}, m.err
	}
	return []models.CourseOccurrence{*m.item}, m.err
}

func (m *occurrenceServiceMock) Create(ctx context.Context, req dto.OccurrenceRequest) (*models.CourseOccurrence, error) {
	m.lastReq = req
	return m.item, m.err
}

func (m *occurrenceServiceMock) Update(ctx context.Context, id int64, req dto.OccurrenceRequest) (*models.CourseOccurrence, error) {
	m.lastID = id
	m.lastReq = req
	return m.item, m.err
}

func (m *occurrenceServiceMock) Delete(ctx context.Context, id int64) error {
	m.lastID = id
	m.deleted = true
	return m.err
}

func (m *occurrenceServiceMock) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*models.ConflictReport, error) {
	m.lastCheck = req
	return m.report, m.err
}

const occurrenceBody = `{"termId":"term-1","dayOfWeek":1,"startSlot":3,"span":2,"startWeek":1,"endWeek":16,"parity":"ODD","name":"Physics"}`

func TestOccurrenceHandlerCreate(t *testing.T) {
	mockSvc := &occurrenceServiceMock{item: &models.CourseOccurrence{ID: 11, Name: "Physics"}}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodPost, "/occurrences", occurrenceBody)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ODD", mockSvc.lastReq.Parity)
	assert.Equal(t, 16, mockSvc.lastReq.EndWeek)
}

func TestOccurrenceHandlerUpdatePassesID(t *testing.T) {
	mockSvc := &occurrenceServiceMock{item: &models.CourseOccurrence{ID: 12}}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodPut, "/occurrences/11", occurrenceBody, gin.Param{Key: "id", Value: "11"})
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(11), mockSvc.lastID)
}

func TestOccurrenceHandlerGetNotFound(t *testing.T) {
	mockSvc := &occurrenceServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodGet, "/occurrences/5", "", gin.Param{Key: "id", Value: "5"})
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOccurrenceHandlerDelete(t *testing.T) {
	mockSvc := &occurrenceServiceMock{}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodDelete, "/occurrences/5", "", gin.Param{Key: "id", Value: "5"})
	handler.Delete(c)
	// gin defers writing the status header until the engine finishes the
	// handler chain; flush it here since the handler is invoked directly.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.deleted)
}

func TestOccurrenceHandlerDeleteRejectsZeroID(t *testing.T) {
	mockSvc := &occurrenceServiceMock{}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodDelete, "/occurrences/0", "", gin.Param{Key: "id", Value: "0"})
	handler.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.deleted)
}

func TestOccurrenceHandlerListByTerm(t *testing.T) {
	mockSvc := &occurrenceServiceMock{item: &models.CourseOccurrence{ID: 3}}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodGet, "/terms/term-1/occurrences", "", gin.Param{Key: "id", Value: "term-1"})
	handler.ListByTerm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mockSvc.lastTermID)
}

func TestOccurrenceHandlerCheckConflicts(t *testing.T) {
	mockSvc := &occurrenceServiceMock{report: &models.ConflictReport{Weeks: []int{2, 4}}}
	handler := NewOccurrenceHandler(mockSvc)

	w, c := newJSONContext(http.MethodPost, "/occurrences/conflicts",
		`{"termId":"term-1","dayOfWeek":1,"startSlot":1,"span":2,"weeks":[2,4,6]}`)
	handler.CheckConflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{2, 4, 6}, mockSvc.lastCheck.Weeks)

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body.Meta["has_conflicts"])
}
