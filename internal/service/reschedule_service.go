package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type lineageOriginRepository interface {
	Find(ctx context.Context, lineageID int64) (*models.LineageOrigin, error)
	SaveIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, origin *models.LineageOrigin) error
	DeleteWithTx(ctx context.Context, tx *sqlx.Tx, lineageID int64) error
}

// RescheduleService commits reschedule plans and folds lineages back.
type RescheduleService struct {
	repo      occurrenceRepository
	origins   lineageOriginRepository
	terms     termLookup
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewRescheduleService wires the reschedule workflow.
func NewRescheduleService(repo occurrenceRepository, origins lineageOriginRepository, terms termLookup, tx txProvider, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RescheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		repo:      repo,
		origins:   origins,
		terms:     terms,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		inFlight:  make(map[int64]struct{}),
	}
}

// Preview plans a reschedule and reports conflicts without writing.
func (s *RescheduleService) Preview(ctx context.Context, occurrenceID int64, req dto.RescheduleRequest) (*dto.ReschedulePreview, error) {
	plan, report, err := s.plan(ctx, occurrenceID, req)
	if err != nil {
		return nil, err
	}
	return &dto.ReschedulePreview{
		LineageID: plan.LineageID,
		Remainder: plan.Remainder,
		Relocated: plan.Relocated,
		Conflicts: report,
	}, nil
}

// Commit plans and applies a reschedule. Unconfirmed conflicts abort with a
// conflict error carrying nothing written; the report is still returned so
// the caller can show it.
func (s *RescheduleService) Commit(ctx context.Context, occurrenceID int64, req dto.RescheduleRequest) (*dto.RescheduleResult, error) {
	plan, report, err := s.plan(ctx, occurrenceID, req)
	if err != nil {
		s.metrics.RecordReschedule("reschedule", "rejected", 0)
		return nil, err
	}
	result := &dto.RescheduleResult{LineageID: plan.LineageID, RemovedID: plan.Original.ID, Conflicts: report}
	if report.HasConflicts() && !req.ConfirmConflicts {
		s.metrics.RecordReschedule("reschedule", "conflict", 0)
		return result, appErrors.Clone(appErrors.ErrConflict, "target placement conflicts with existing occurrences; confirm to proceed")
	}

	release, err := s.acquire(plan.LineageID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.apply(ctx, plan); err != nil {
		s.metrics.RecordReschedule("reschedule", "failed", 0)
		return nil, err
	}
	s.cache.InvalidateTerm(ctx, plan.Original.TermID)
	s.metrics.RecordReschedule("reschedule", "success", len(plan.Remainder)+len(plan.Relocated))
	s.logger.Info("occurrence rescheduled",
		zap.Int64("occurrence_id", plan.Original.ID),
		zap.Int64("lineage_id", plan.LineageID),
		zap.Int("remainder", len(plan.Remainder)),
		zap.Int("relocated", len(plan.Relocated)),
		zap.Int("conflict_weeks", len(report.Weeks)))

	result.Remainder = plan.Remainder
	result.Relocated = plan.Relocated
	return result, nil
}

func (s *RescheduleService) plan(ctx context.Context, occurrenceID int64, req dto.RescheduleRequest) (*ReschedulePlan, models.ConflictReport, error) {
	var empty models.ConflictReport
	if len(req.MovedWeeks) == 0 || len(req.TargetWeeks) == 0 {
		return nil, empty, appErrors.ErrEmptyMoveSet
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, empty, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	original, err := findOccurrence(ctx, s.repo, occurrenceID)
	if err != nil {
		return nil, empty, err
	}
	term, err := loadTerm(ctx, s.terms, original.TermID)
	if err != nil {
		return nil, empty, err
	}
	if req.NewStartSlot+original.Span-1 > term.SectionsPerDay {
		return nil, empty, appErrors.Clone(appErrors.ErrValidation, "relocated sections exceed the sections of a day")
	}

	plan, err := PlanReschedule(RescheduleInput{
		Original:     *original,
		MovedWeeks:   req.MovedWeeks,
		TargetWeeks:  req.TargetWeeks,
		NewDay:       req.NewDay,
		NewStartSlot: req.NewStartSlot,
		NewLocation:  req.NewLocation,
		Note:         req.Note,
	}, term.TotalWeeks)
	if err != nil {
		s.logContractViolation(err, original)
		return nil, empty, err
	}

	pool, err := loadTermOccurrences(ctx, s.repo, s.cache, original.TermID)
	if err != nil {
		return nil, empty, err
	}
	target := models.ConflictTarget{
		DayOfWeek: req.NewDay,
		StartSlot: req.NewStartSlot,
		Span:      original.Span,
		Weeks:     weekset.Normalize(req.TargetWeeks),
	}
	report := FindConflicts(target, poolAfter(pool, plan), 0)
	s.metrics.ObserveConflicts(len(report.Weeks))
	return plan, report, nil
}

// apply swaps the original for the planned records in one transaction.
func (s *RescheduleService) apply(ctx context.Context, plan *ReschedulePlan) (err error) {
	snapshot, err := json.Marshal(plan.Original)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot occurrence")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return storageFailure(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.repo.DeleteWithTx(ctx, tx, plan.Original.ID)
	if err != nil {
		return storageFailure(err)
	}
	if affected != 1 {
		err = appErrors.Clone(appErrors.ErrConflict, "occurrence was changed or removed before the reschedule was applied")
		return err
	}
	if _, err = s.repo.InsertBatchWithTx(ctx, tx, plan.Remainder); err != nil {
		return storageFailure(err)
	}
	if _, err = s.repo.InsertBatchWithTx(ctx, tx, plan.Relocated); err != nil {
		return storageFailure(err)
	}
	origin := &models.LineageOrigin{LineageID: plan.LineageID, TermID: plan.Original.TermID, Snapshot: types.JSONText(snapshot)}
	if err = s.origins.SaveIfAbsentWithTx(ctx, tx, origin); err != nil {
		return storageFailure(err)
	}
	if err = tx.Commit(); err != nil {
		return storageFailure(err)
	}
	return nil
}

// Lineage lists every record of a lineage and its recorded origin.
func (s *RescheduleService) Lineage(ctx context.Context, lineageID int64) (*dto.LineageView, error) {
	records, err := s.repo.ListByLineage(ctx, lineageID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lineage not found")
	}
	origin, err := s.loadOrigin(ctx, lineageID)
	if err != nil {
		return nil, err
	}
	var weeks []int
	for _, rec := range records {
		weeks = append(weeks, rec.Weeks()...)
	}
	return &dto.LineageView{LineageID: lineageID, Origin: origin, Occurrences: records, Weeks: weekset.Normalize(weeks)}, nil
}

// Undo folds a lineage back into compressed records at its original
// placement.
func (s *RescheduleService) Undo(ctx context.Context, lineageID int64, req dto.UndoRequest) (*dto.UndoResult, error) {
	release, err := s.acquire(lineageID)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := s.repo.ListByLineage(ctx, lineageID)
	if err != nil {
		return nil, storageFailure(err)
	}
	origin, err := s.loadOrigin(ctx, lineageID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanMerge(MergeInput{LineageID: lineageID, Records: records, Origin: origin, Canonical: req.Canonical})
	if err != nil {
		s.metrics.RecordReschedule("undo", "rejected", 0)
		return nil, err
	}

	if err := s.applyMerge(ctx, plan); err != nil {
		s.metrics.RecordReschedule("undo", "failed", 0)
		return nil, err
	}
	s.cache.InvalidateTerm(ctx, records[0].TermID)
	s.metrics.RecordReschedule("undo", "success", len(plan.Replacement))
	s.logger.Info("lineage merged", zap.Int64("lineage_id", lineageID), zap.Int("removed", len(plan.Removed)), zap.Int("replacement", len(plan.Replacement)))
	return &dto.UndoResult{LineageID: lineageID, Removed: plan.Removed, Replacement: plan.Replacement}, nil
}

func (s *RescheduleService) applyMerge(ctx context.Context, plan *MergePlan) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return storageFailure(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.repo.DeleteByIDsWithTx(ctx, tx, plan.Removed)
	if err != nil {
		return storageFailure(err)
	}
	if affected != int64(len(plan.Removed)) {
		err = appErrors.Clone(appErrors.ErrConflict, "lineage changed while it was being merged")
		return err
	}
	if _, err = s.repo.InsertBatchWithTx(ctx, tx, plan.Replacement); err != nil {
		return storageFailure(err)
	}
	if err = s.origins.DeleteWithTx(ctx, tx, plan.LineageID); err != nil {
		return storageFailure(err)
	}
	if err = tx.Commit(); err != nil {
		return storageFailure(err)
	}
	return nil
}

func (s *RescheduleService) loadOrigin(ctx context.Context, lineageID int64) (*models.CourseOccurrence, error) {
	stored, err := s.origins.Find(ctx, lineageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageFailure(err)
	}
	var origin models.CourseOccurrence
	if err := stored.Snapshot.Unmarshal(&origin); err != nil {
		s.logger.Warn("ignoring unreadable lineage origin", zap.Int64("lineage_id", lineageID), zap.Error(err))
		return nil, nil
	}
	return &origin, nil
}

// acquire marks a lineage busy. The returned func releases it.
func (s *RescheduleService) acquire(lineageID int64) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[lineageID]; busy {
		return nil, appErrors.ErrInFlight
	}
	s.inFlight[lineageID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, lineageID)
		s.mu.Unlock()
	}, nil
}

// logContractViolation reports inputs the editors should never let through.
func (s *RescheduleService) logContractViolation(err error, original *models.CourseOccurrence) {
	appErr := appErrors.FromError(err)
	if appErr.Code != appErrors.ErrInvalidRange.Code {
		return
	}
	s.logger.Error("reschedule rejected invalid week range",
		zap.Int64("occurrence_id", original.ID),
		zap.String("segment", original.Segment().String()),
		zap.Error(err))
}

func storageFailure(err error) error {
	return appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, appErrors.ErrStorageFailure.Message)
}
