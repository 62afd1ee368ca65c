package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/export"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/storage"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

type gridSourceStub struct {
	grid  *models.WeekGrid
	err   error
	query WeekQuery
}

func (s *gridSourceStub) WeekGrid(ctx context.Context, termID string, query WeekQuery) (*models.WeekGrid, error) {
	s.query = query
	return s.grid, s.err
}

type recordingRenderer struct {
	data export.Dataset
	err  error
}

func (r *recordingRenderer) Render(data export.Dataset) ([]byte, error) {
	r.data = data
	if r.err != nil {
		return nil, r.err
	}
	return []byte("rendered"), nil
}

func (r *recordingRenderer) ContentType() string { return "text/plain" }
func (r *recordingRenderer) Extension() string   { return "txt" }

type romanLabels struct{}

func (romanLabels) Label(index int) string {
	return []string{"", "I", "II", "III", "IV"}[index%5]
}

func sampleGrid() *models.WeekGrid {
	physics := occurrence(1, 1, 3, 2, 1, 16, weekset.ParityAll)
	physics.Instructor = "Dr. Wu"
	art := occurrence(2, 5, 1, 1, 1, 4, weekset.ParityAll)
	art.Name = "Art"
	art.Location = ""
	return &models.WeekGrid{
		TermID:         "term-1",
		Week:           7,
		SectionsPerDay: 4,
		Cells: []models.GridCell{
			{DayOfWeek: 5, StartSlot: 1, Occurrence: &art, Current: false},
			{DayOfWeek: 1, StartSlot: 3, Occurrence: &physics, Current: true, Alternatives: 1},
		},
	}
}

func TestWeekDataset(t *testing.T) {
	data := WeekDataset(testTerm(), sampleGrid(), nil)

	assert.Equal(t, "Autumn - week 7", data.Title)
	assert.Equal(t, []string{"Section", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, data.Headers)
	require.Len(t, data.Rows, 4)
	assert.Equal(t, "3", data.Rows[2][0])
	assert.Equal(t, "Physics\nA101\nDr. Wu\nsections 3-4\n+1 more", data.Rows[2][1])
	assert.Equal(t, "Art\n[not this week]", data.Rows[0][5])
	assert.Empty(t, data.Rows[3][1])
}

func TestWeekDatasetUsesSectionLabels(t *testing.T) {
	data := WeekDataset(testTerm(), sampleGrid(), romanLabels{})
	assert.Equal(t, "I", data.Rows[0][0])
	assert.Equal(t, "IV", data.Rows[3][0])
}

func TestExportServiceExportWeek(t *testing.T) {
	grids := &gridSourceStub{grid: sampleGrid()}
	renderer := &recordingRenderer{}
	svc := NewExportService(grids, newTermStub(testTerm()), nil, map[string]DatasetRenderer{"txt": renderer}, nil)

	result, err := svc.ExportWeek(context.Background(), "term-1", WeekQuery{Week: 7}, " TXT ")
	require.NoError(t, err)
	assert.Equal(t, "timetable_week_07.txt", result.Filename)
	assert.Equal(t, "text/plain", result.ContentType)
	assert.Equal(t, []byte("rendered"), result.Data)
	assert.Equal(t, 7, grids.query.Week)
	assert.Equal(t, "Autumn - week 7", renderer.data.Title)
}

func TestExportServiceDefaultCSV(t *testing.T) {
	grids := &gridSourceStub{grid: sampleGrid()}
	svc := NewExportService(grids, newTermStub(testTerm()), nil, nil, nil)

	result, err := svc.ExportWeek(context.Background(), "term-1", WeekQuery{Week: 7}, "")
	require.NoError(t, err)
	assert.Equal(t, "timetable_week_07.csv", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "Section,Mon,Tue"))
}

func TestExportServiceErrors(t *testing.T) {
	grids := &gridSourceStub{grid: sampleGrid()}
	renderer := &recordingRenderer{err: errors.New("boom")}
	svc := NewExportService(grids, newTermStub(testTerm()), nil, map[string]DatasetRenderer{"txt": renderer}, nil)

	_, err := svc.ExportWeek(context.Background(), "term-1", WeekQuery{}, "docx")
	assert.Equal(t, "UNSUPPORTED_FORMAT", errorCode(err))

	_, err = svc.ExportWeek(context.Background(), "term-1", WeekQuery{}, "txt")
	assert.Equal(t, "INTERNAL_ERROR", errorCode(err))

	_, err = svc.ExportWeek(context.Background(), "missing", WeekQuery{}, "txt")
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func newArchivedExportService(t *testing.T, ttl time.Duration) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	grids := &gridSourceStub{grid: sampleGrid()}
	return NewExportService(grids, newTermStub(testTerm()), nil, nil, nil).
		WithArchive(store, storage.NewLinkSigner("secret", ttl), "/api/v1/")
}

func TestExportServiceSaveAndOpen(t *testing.T) {
	svc := newArchivedExportService(t, time.Hour)

	saved, err := svc.SaveWeek(context.Background(), "term-1", WeekQuery{Week: 7}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "timetable_week_07.csv", saved.Filename)
	assert.Equal(t, "/api/v1/exports/"+saved.Token, saved.URL)
	assert.NotEmpty(t, saved.ID)

	doc, err := svc.OpenSaved(context.Background(), saved.Token)
	require.NoError(t, err)
	assert.Equal(t, "timetable_week_07.csv", doc.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.True(t, strings.HasPrefix(string(doc.Data), "Section,Mon"))

	_, err = svc.OpenSaved(context.Background(), saved.Token+"0")
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	purged, err := svc.PurgeSaved(-time.Minute)
	require.NoError(t, err)
	assert.Len(t, purged, 1)
	_, err = svc.OpenSaved(context.Background(), saved.Token)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestExportServiceOpenExpiredLink(t *testing.T) {
	svc := newArchivedExportService(t, time.Hour)
	saved, err := svc.SaveWeek(context.Background(), "term-1", WeekQuery{Week: 7}, "csv")
	require.NoError(t, err)

	svc.signer = expiringSigner{}
	_, err = svc.OpenSaved(context.Background(), saved.Token)
	assert.Equal(t, "LINK_EXPIRED", errorCode(err))
}

func TestExportServiceSaveDisabled(t *testing.T) {
	svc := NewExportService(&gridSourceStub{grid: sampleGrid()}, newTermStub(testTerm()), nil, nil, nil)

	_, err := svc.SaveWeek(context.Background(), "term-1", WeekQuery{Week: 7}, "csv")
	assert.Equal(t, "PRECONDITION_FAILED", errorCode(err))
	_, err = svc.OpenSaved(context.Background(), "token")
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

type expiringSigner struct{}

func (expiringSigner) Sign(id, relPath string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("not used")
}

func (expiringSigner) Verify(token string) (*storage.Link, error) {
	return nil, storage.ErrLinkExpired
}
