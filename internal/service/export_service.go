package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/export"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/storage"
)

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DatasetRenderer encodes a dataset into one document format.
type DatasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type weekGridSource interface {
	WeekGrid(ctx context.Context, termID string, query WeekQuery) (*models.WeekGrid, error)
}

type sectionLabeler interface {
	Label(index int) string
}

type documentStore interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type linkSigner interface {
	Sign(id, relPath string) (string, time.Time, error)
	Verify(token string) (*storage.Link, error)
}

// ExportResult is a rendered document ready to be downloaded.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService turns a rendered week into CSV, PDF or XLSX.
type ExportService struct {
	grids     weekGridSource
	terms     termLookup
	labels    sectionLabeler
	renderers map[string]DatasetRenderer
	logger    *zap.Logger

	store     documentStore
	signer    linkSigner
	apiPrefix string
}

// NewExportService constructs an ExportService. renderers is keyed by
// format name.
func NewExportService(grids weekGridSource, terms termLookup, labels sectionLabeler, renderers map[string]DatasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = DefaultRenderers("")
	}
	return &ExportService{grids: grids, terms: terms, labels: labels, renderers: renderers, logger: logger}
}

// DefaultRenderers returns the csv, pdf and xlsx encoders. sheet names the
// xlsx worksheet.
func DefaultRenderers(sheet string) map[string]DatasetRenderer {
	return map[string]DatasetRenderer{
		"csv":  export.NewCSVExporter(),
		"pdf":  export.NewPDFExporter(),
		"xlsx": export.NewXLSXExporter(sheet),
	}
}

// WithArchive enables saved exports. Download links are built under
// apiPrefix.
func (s *ExportService) WithArchive(store documentStore, signer linkSigner, apiPrefix string) *ExportService {
	s.store = store
	s.signer = signer
	s.apiPrefix = strings.TrimRight(apiPrefix, "/")
	return s
}

// ExportWeek renders the week grid of a term in the requested format.
func (s *ExportService) ExportWeek(ctx context.Context, termID string, query WeekQuery, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	term, err := loadTerm(ctx, s.terms, termID)
	if err != nil {
		return nil, err
	}
	grid, err := s.grids.WeekGrid(ctx, termID, query)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(WeekDataset(*term, grid, s.labels))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("week exported", zap.String("term_id", termID), zap.Int("week", grid.Week), zap.String("format", format), zap.Int("bytes", len(data)))
	return &ExportResult{
		Filename:    fmt.Sprintf("timetable_week_%02d.%s", grid.Week, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// WeekDataset lays a grid out as one row per section and one column per day.
// An occurrence is written in the row of its first section.
func WeekDataset(term models.Term, grid *models.WeekGrid, labels sectionLabeler) export.Dataset {
	headers := append([]string{"Section"}, weekdayNames...)
	sections := grid.SectionsPerDay
	for _, c := range grid.Cells {
		if c.Occurrence != nil && c.Occurrence.EndSlot() > sections {
			sections = c.Occurrence.EndSlot()
		}
	}

	rows := make([][]string, sections)
	for i := range rows {
		rows[i] = make([]string, len(headers))
		if labels != nil {
			rows[i][0] = labels.Label(i + 1)
		} else {
			rows[i][0] = fmt.Sprintf("%d", i+1)
		}
	}

	cells := make([]models.GridCell, len(grid.Cells))
	copy(cells, grid.Cells)
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].DayOfWeek == cells[j].DayOfWeek {
			return cells[i].StartSlot < cells[j].StartSlot
		}
		return cells[i].DayOfWeek < cells[j].DayOfWeek
	})
	for _, c := range cells {
		if c.Occurrence == nil || c.DayOfWeek < 1 || c.DayOfWeek > 7 || c.StartSlot < 1 || c.StartSlot > sections {
			continue
		}
		rows[c.StartSlot-1][c.DayOfWeek] = describeCell(c)
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s - week %d", term.Name, grid.Week),
		Headers: headers,
		Rows:    rows,
	}
}

func describeCell(c models.GridCell) string {
	o := c.Occurrence
	lines := []string{o.Name}
	if o.Location != "" {
		lines = append(lines, o.Location)
	}
	if o.Instructor != "" {
		lines = append(lines, o.Instructor)
	}
	if o.Span > 1 {
		lines = append(lines, fmt.Sprintf("sections %d-%d", o.StartSlot, o.EndSlot()))
	}
	if !c.Current {
		lines = append(lines, "[not this week]")
	}
	if c.Alternatives > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", c.Alternatives))
	}
	return strings.Join(lines, "\n")
}

// SaveWeek renders a week, stores it and returns a signed download link.
func (s *ExportService) SaveWeek(ctx context.Context, termID string, query WeekQuery, format string) (*dto.SavedExport, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "saved exports are disabled")
	}
	result, err := s.ExportWeek(ctx, termID, query, format)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	relPath, err := s.store.Save(path.Join(safeSegment(termID), id+"_"+result.Filename), result.Data)
	if err != nil {
		return nil, storageFailure(err)
	}
	token, expiresAt, err := s.signer.Sign(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.logger.Info("export saved", zap.String("term_id", termID), zap.String("export_id", id), zap.String("path", relPath))
	return &dto.SavedExport{
		ID:        id,
		Filename:  result.Filename,
		Token:     token,
		URL:       s.apiPrefix + "/exports/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// OpenSaved resolves a download token to the stored document.
func (s *ExportService) OpenSaved(ctx context.Context, token string) (*ExportResult, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	link, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrLinkExpired) {
			return nil, appErrors.ErrLinkExpired
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	data, err := s.store.Read(link.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export was purged")
		}
		return nil, storageFailure(err)
	}

	filename := strings.TrimPrefix(path.Base(link.Path), link.ID+"_")
	contentType := "application/octet-stream"
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	for _, renderer := range s.renderers {
		if renderer.Extension() == ext {
			contentType = renderer.ContentType()
			break
		}
	}
	return &ExportResult{Filename: filename, ContentType: contentType, Data: data}, nil
}

// PurgeSaved removes stored exports older than retention.
func (s *ExportService) PurgeSaved(retention time.Duration) ([]string, error) {
	if s.store == nil {
		return nil, nil
	}
	deleted, err := s.store.CleanupOlderThan(retention)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("saved exports purged", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

func safeSegment(raw string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "_")
	if out := replacer.Replace(raw); out != "" {
		return out
	}
	return "na"
}
