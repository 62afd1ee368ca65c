package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

type occurrenceRepository interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]models.CourseOccurrence, error)
	FindByID(ctx context.Context, id int64) (*models.CourseOccurrence, error)
	ListByLineage(ctx context.Context, lineageID int64) ([]models.CourseOccurrence, error)
	Create(ctx context.Context, occurrence *models.CourseOccurrence) error
	InsertBatchWithTx(ctx context.Context, tx *sqlx.Tx, occurrences []models.CourseOccurrence) ([]int64, error)
	DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	DeleteByIDsWithTx(ctx context.Context, tx *sqlx.Tx, ids []int64) (int64, error)
}

type termLookup interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// OccurrenceService is the editor: it creates, replaces and removes
// occurrences and answers conflict hints.
type OccurrenceService struct {
	repo      occurrenceRepository
	terms     termLookup
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOccurrenceService builds the editor service.
func NewOccurrenceService(repo occurrenceRepository, terms termLookup, tx txProvider, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OccurrenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{repo: repo, terms: terms, tx: tx, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Get returns one occurrence.
func (s *OccurrenceService) Get(ctx context.Context, id int64) (*models.CourseOccurrence, error) {
	return findOccurrence(ctx, s.repo, id)
}

// ListByTerm returns every occurrence of a term.
func (s *OccurrenceService) ListByTerm(ctx context.Context, termID string) ([]models.CourseOccurrence, error) {
	if _, err := loadTerm(ctx, s.terms, termID); err != nil {
		return nil, err
	}
	return loadTermOccurrences(ctx, s.repo, s.cache, termID)
}

// Create validates and stores a new occurrence. The record starts its own
// lineage.
func (s *OccurrenceService) Create(ctx context.Context, req dto.OccurrenceRequest) (*models.CourseOccurrence, error) {
	occurrence, err := s.buildOccurrence(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, occurrence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	s.cache.InvalidateTerm(ctx, occurrence.TermID)
	return occurrence, nil
}

// Update replaces an occurrence: the old record is deleted and a new one
// inserted in the same transaction. The replacement stays in the old
// record's lineage.
func (s *OccurrenceService) Update(ctx context.Context, id int64, req dto.OccurrenceRequest) (*models.CourseOccurrence, error) {
	current, err := findOccurrence(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if current.TermID != req.TermID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an occurrence cannot move to another term")
	}
	replacement, err := s.buildOccurrence(ctx, req)
	if err != nil {
		return nil, err
	}
	lineage := current.RootLineage()
	replacement.LineageID = &lineage
	replacement.IsModified = current.IsModified
	replacement.CreatedAt = current.CreatedAt

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var affected int64
	if affected, err = s.repo.DeleteWithTx(ctx, tx, current.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	if affected != 1 {
		err = appErrors.Clone(appErrors.ErrConflict, "occurrence changed while it was being edited")
		return nil, err
	}
	records := []models.CourseOccurrence{*replacement}
	if _, err = s.repo.InsertBatchWithTx(ctx, tx, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}

	s.cache.InvalidateTerm(ctx, current.TermID)
	s.logger.Info("occurrence replaced", zap.Int64("old_id", current.ID), zap.Int64("new_id", records[0].ID), zap.Int64("lineage_id", lineage))
	return &records[0], nil
}

// Delete removes an occurrence.
func (s *OccurrenceService) Delete(ctx context.Context, id int64) error {
	current, err := findOccurrence(ctx, s.repo, id)
	if err != nil {
		return err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var affected int64
	if affected, err = s.repo.DeleteWithTx(ctx, tx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	s.cache.InvalidateTerm(ctx, current.TermID)
	return nil
}

// CheckConflicts reports stored occurrences colliding with a placement.
func (s *OccurrenceService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*models.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	term, err := loadTerm(ctx, s.terms, req.TermID)
	if err != nil {
		return nil, err
	}

	weeks := weekset.Normalize(req.Weeks)
	if len(weeks) == 0 {
		parity, err := parseParity(req.Parity)
		if err != nil {
			return nil, err
		}
		seg := weekset.Segment{StartWeek: req.StartWeek, EndWeek: req.EndWeek, Parity: parity}
		if err := seg.Validate(term.TotalWeeks); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "weeks or a valid week range are required")
		}
		weeks = seg.Weeks()
	}

	pool, err := loadTermOccurrences(ctx, s.repo, s.cache, req.TermID)
	if err != nil {
		return nil, err
	}
	target := models.ConflictTarget{DayOfWeek: req.DayOfWeek, StartSlot: req.StartSlot, Span: req.Span, Weeks: weeks}
	report := FindConflicts(target, pool, req.ExcludeID)
	s.metrics.ObserveConflicts(len(report.Weeks))
	return &report, nil
}

func (s *OccurrenceService) buildOccurrence(ctx context.Context, req dto.OccurrenceRequest) (*models.CourseOccurrence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occurrence payload")
	}
	term, err := loadTerm(ctx, s.terms, req.TermID)
	if err != nil {
		return nil, err
	}
	parity, err := parseParity(req.Parity)
	if err != nil {
		return nil, err
	}

	occurrence := &models.CourseOccurrence{
		TermID:     req.TermID,
		DayOfWeek:  req.DayOfWeek,
		StartSlot:  req.StartSlot,
		Span:       req.Span,
		StartWeek:  req.StartWeek,
		EndWeek:    req.EndWeek,
		Parity:     parity,
		Name:       strings.TrimSpace(req.Name),
		Location:   strings.TrimSpace(req.Location),
		Instructor: strings.TrimSpace(req.Instructor),
		Note:       req.Note,
		Color:      req.Color,
	}
	if err := occurrence.Segment().Validate(term.TotalWeeks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if occurrence.EndSlot() > term.SectionsPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("sections %d-%d exceed the %d sections of a day", occurrence.StartSlot, occurrence.EndSlot(), term.SectionsPerDay))
	}
	return occurrence, nil
}

func parseParity(raw string) (weekset.Parity, error) {
	if strings.TrimSpace(raw) == "" {
		return weekset.ParityAll, nil
	}
	parity, err := weekset.ParseParity(raw)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parity must be ALL, ODD or EVEN")
	}
	return parity, nil
}

type occurrenceFinder interface {
	FindByID(ctx context.Context, id int64) (*models.CourseOccurrence, error)
}

func findOccurrence(ctx context.Context, repo occurrenceFinder, id int64) (*models.CourseOccurrence, error) {
	occurrence, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	return occurrence, nil
}

func loadTerm(ctx context.Context, terms termLookup, id string) (*models.Term, error) {
	term, err := terms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

type occurrenceLister interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]models.CourseOccurrence, error)
}

// loadTermOccurrences reads every occurrence of a term through the cache.
func loadTermOccurrences(ctx context.Context, repo occurrenceLister, cache *CacheService, termID string) ([]models.CourseOccurrence, error) {
	key := TermOccurrencesKey(termID)
	var cached []models.CourseOccurrence
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	items, err := repo.List(ctx, models.OccurrenceFilter{TermID: termID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
	}
	if items == nil {
		items = []models.CourseOccurrence{}
	}
	_ = cache.Set(ctx, key, items, 0)
	return items, nil
}
