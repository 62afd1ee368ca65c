package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
)

// TimetableConfig holds rendering defaults.
type TimetableConfig struct {
	HideNonCurrent bool
	CacheTTL       time.Duration
}

// WeekQuery selects the week to render. Zero Week means the week containing
// today; nil HideNonCurrent falls back to the configured default.
type WeekQuery struct {
	Week           int
	HideNonCurrent *bool
}

// TimetableService renders a term's occurrences as a week grid.
type TimetableService struct {
	repo   occurrenceLister
	terms  termLookup
	cache  *CacheService
	cfg    TimetableConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTimetableService builds the renderer.
func NewTimetableService(repo occurrenceLister, terms termLookup, cache *CacheService, cfg TimetableConfig, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, terms: terms, cache: cache, cfg: cfg, logger: logger, now: time.Now}
}

// WeekGrid picks, for every (day, start slot) holding occurrences, the one
// to show in the requested week.
func (s *TimetableService) WeekGrid(ctx context.Context, termID string, query WeekQuery) (*models.WeekGrid, error) {
	if query.Week < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week must be positive")
	}
	term, err := loadTerm(ctx, s.terms, termID)
	if err != nil {
		return nil, err
	}
	week := query.Week
	if week == 0 {
		// before the term starts the first week is shown
		if week = term.WeekAt(s.now()); week < 1 {
			week = 1
		}
	}
	hide := s.cfg.HideNonCurrent
	if query.HideNonCurrent != nil {
		hide = *query.HideNonCurrent
	}

	key := TermGridKey(termID, week, hide)
	var cached models.WeekGrid
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	occurrences, err := loadTermOccurrences(ctx, s.repo, s.cache, termID)
	if err != nil {
		return nil, err
	}
	grid := BuildWeekGrid(*term, occurrences, week, hide)
	_ = s.cache.Set(ctx, key, grid, s.cfg.CacheTTL)
	return grid, nil
}

// BuildWeekGrid is the pure part of WeekGrid.
func BuildWeekGrid(term models.Term, occurrences []models.CourseOccurrence, week int, hideNonCurrent bool) *models.WeekGrid {
	grid := &models.WeekGrid{
		TermID:         term.ID,
		Week:           week,
		SectionsPerDay: term.SectionsPerDay,
		Cells:          []models.GridCell{},
	}
	keys, groups := groupBySlot(occurrences)
	for _, key := range keys {
		group := groups[key]
		sel := SelectForWeek(group, week, hideNonCurrent)
		if !sel.Found() {
			continue
		}
		grid.Cells = append(grid.Cells, models.GridCell{
			DayOfWeek:    key.Day,
			StartSlot:    key.Slot,
			Occurrence:   sel.Occurrence,
			Current:      sel.Current,
			Overlapping:  sel.Overlapping,
			Alternatives: distinctCourses(group, sel.Occurrence.CourseKey()),
		})
	}
	return grid
}
