package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
)

type placementRepository interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]models.CourseOccurrence, error)
	UpdatePlacementsWithTx(ctx context.Context, tx *sqlx.Tx, placements []models.SlotAssignment) error
}

// DurationService changes the length of every course in a term at once.
type DurationService struct {
	repo      placementRepository
	terms     termLookup
	tx        txProvider
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDurationService builds the batch duration collaborator.
func NewDurationService(repo placementRepository, terms termLookup, tx txProvider, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DurationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DurationService{repo: repo, terms: terms, tx: tx, cache: cache, validator: validate, logger: logger}
}

// Apply rewrites the span of every occurrence of a term and repacks each
// day so that courses stay in the same order without overlapping.
func (s *DurationService) Apply(ctx context.Context, termID string, req dto.DurationRequest) (*dto.DurationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duration payload")
	}
	term, err := loadTerm(ctx, s.terms, termID)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.repo.List(ctx, models.OccurrenceFilter{TermID: termID})
	if err != nil {
		return nil, storageFailure(err)
	}

	placements, err := RepackSlots(occurrences, req.Span, term.SectionsPerDay)
	if err != nil {
		return nil, err
	}
	if len(placements) == 0 {
		return &dto.DurationResult{TermID: termID, Span: req.Span}, nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageFailure(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.repo.UpdatePlacementsWithTx(ctx, tx, placements); err != nil {
		return nil, storageFailure(err)
	}
	if err = tx.Commit(); err != nil {
		return nil, storageFailure(err)
	}

	s.cache.InvalidateTerm(ctx, termID)
	s.logger.Info("course durations applied", zap.String("term_id", termID), zap.Int("span", req.Span), zap.Int("updated", len(placements)))
	return &dto.DurationResult{TermID: termID, Span: req.Span, Updated: len(placements)}, nil
}

// RepackSlots assigns the k-th distinct start slot of each day (k from 0) to
// k*span+1. Occurrences sharing a start slot keep sharing it.
func RepackSlots(occurrences []models.CourseOccurrence, span, sectionsPerDay int) ([]models.SlotAssignment, error) {
	if span < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "span must be at least 1")
	}
	starts := make(map[int][]int)
	for _, o := range occurrences {
		starts[o.DayOfWeek] = append(starts[o.DayOfWeek], o.StartSlot)
	}
	newStart := make(map[int]map[int]int, len(starts))
	for day, slots := range starts {
		sort.Ints(slots)
		mapping := make(map[int]int)
		k := 0
		for i, slot := range slots {
			if i > 0 && slot == slots[i-1] {
				continue
			}
			mapping[slot] = k*span + 1
			k++
		}
		if last := (k-1)*span + span; sectionsPerDay > 0 && last > sectionsPerDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d needs %d sections but only %d exist", day, last, sectionsPerDay))
		}
		newStart[day] = mapping
	}

	placements := make([]models.SlotAssignment, 0, len(occurrences))
	for _, o := range occurrences {
		next := newStart[o.DayOfWeek][o.StartSlot]
		if next == o.StartSlot && span == o.Span {
			continue
		}
		placements = append(placements, models.SlotAssignment{ID: o.ID, StartSlot: next, Span: span})
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].ID < placements[j].ID })
	return placements, nil
}
