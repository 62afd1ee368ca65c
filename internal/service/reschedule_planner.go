package service

import (
	"fmt"
	"sort"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

// RescheduleInput describes moving part of an occurrence to another place.
type RescheduleInput struct {
	Original     models.CourseOccurrence
	MovedWeeks   []int
	TargetWeeks  []int
	NewDay       int
	NewStartSlot int
	NewLocation  string
	Note         string
}

// ReschedulePlan holds the records that replace the original.
type ReschedulePlan struct {
	Original  models.CourseOccurrence   `json:"original"`
	LineageID int64                     `json:"lineage_id"`
	Remainder []models.CourseOccurrence `json:"remainder"`
	Relocated []models.CourseOccurrence `json:"relocated"`
}

// Records returns remainder followed by relocated records.
func (p ReschedulePlan) Records() []models.CourseOccurrence {
	out := make([]models.CourseOccurrence, 0, len(p.Remainder)+len(p.Relocated))
	out = append(out, p.Remainder...)
	out = append(out, p.Relocated...)
	return out
}

// PlanReschedule splits the original into the unchanged remainder and the
// relocated segments. Nothing is persisted. totalWeeks bounds the target
// weeks; pass 0 to skip that check.
func PlanReschedule(in RescheduleInput, totalWeeks int) (*ReschedulePlan, error) {
	original := in.Original
	if err := original.Segment().Validate(totalWeeks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, "original occurrence has an invalid week range")
	}

	moved := weekset.Normalize(in.MovedWeeks)
	target := weekset.Normalize(in.TargetWeeks)
	if len(moved) == 0 || len(target) == 0 {
		return nil, appErrors.ErrEmptyMoveSet
	}
	if len(moved) != len(target) {
		return nil, appErrors.Clone(appErrors.ErrWeekCountMismatch, fmt.Sprintf("moving %d weeks into %d target weeks", len(moved), len(target)))
	}

	originalWeeks := original.Weeks()
	if !weekset.IsSubset(moved, originalWeeks) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "moved weeks must be weeks the occurrence meets in")
	}
	for _, w := range target {
		if w < 1 || (totalWeeks > 0 && w > totalWeeks) {
			return nil, appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("target week %d is outside the term", w))
		}
	}
	if in.NewDay < 1 || in.NewDay > 7 || in.NewStartSlot < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "target day or start slot is out of range")
	}

	lineage := original.RootLineage()
	plan := &ReschedulePlan{
		Original:  original,
		LineageID: lineage,
		Remainder: []models.CourseOccurrence{},
		Relocated: []models.CourseOccurrence{},
	}

	for _, seg := range weekset.Compress(weekset.Difference(originalWeeks, moved)) {
		rec := original.WithSegment(seg)
		rec.LineageID = &lineage
		plan.Remainder = append(plan.Remainder, rec)
	}

	for _, seg := range weekset.Compress(target) {
		rec := original.WithSegment(seg)
		rec.LineageID = &lineage
		rec.DayOfWeek = in.NewDay
		rec.StartSlot = in.NewStartSlot
		rec.Location = in.NewLocation
		rec.Note = in.Note
		rec.IsModified = true
		plan.Relocated = append(plan.Relocated, rec)
	}
	if weeks := lineageOverlap(plan.Remainder, plan.Relocated); len(weeks) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("relocated weeks %v overlap weeks that stay at the original placement", weeks))
	}
	return plan, nil
}

// lineageOverlap returns the weeks in which a relocated record would meet in
// the same sections as a remainder record.
func lineageOverlap(remainder, relocated []models.CourseOccurrence) []int {
	var weeks []int
	for _, moved := range relocated {
		target := TargetOf(moved)
		for _, kept := range remainder {
			if timeOverlaps(target, kept) {
				weeks = weekset.Union(weeks, weekset.Intersect(target.Weeks, kept.Weeks()))
			}
		}
	}
	return weeks
}

// poolAfter is pool as it will look once plan is applied: the original is
// gone and its remainder stays in place.
func poolAfter(pool []models.CourseOccurrence, plan *ReschedulePlan) []models.CourseOccurrence {
	out := make([]models.CourseOccurrence, 0, len(pool)+len(plan.Remainder))
	for _, o := range pool {
		if o.ID != plan.Original.ID {
			out = append(out, o)
		}
	}
	return append(out, plan.Remainder...)
}

// MergeInput carries a lineage and the placement hints used to fold it back.
type MergeInput struct {
	LineageID int64
	Records   []models.CourseOccurrence
	// Origin is the placement recorded before the first reschedule, if any.
	Origin *models.CourseOccurrence
	// Canonical is the caller's fallback when the lineage has diverged.
	Canonical *models.Placement
}

// MergePlan replaces every lineage record with the compressed union.
type MergePlan struct {
	LineageID   int64                     `json:"lineage_id"`
	Removed     []int64                   `json:"removed"`
	Replacement []models.CourseOccurrence `json:"replacement"`
}

// PlanMerge unions the weeks of a lineage and rebuilds it at its original
// placement. Attributes come from the recorded origin, then the earliest
// unmodified record, then the canonical placement.
func PlanMerge(in MergeInput) (*MergePlan, error) {
	if len(in.Records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lineage has no occurrences")
	}
	records := make([]models.CourseOccurrence, len(in.Records))
	copy(records, in.Records)
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	if len(records) == 1 && !records[0].IsModified {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "lineage has nothing to undo")
	}

	base, err := mergeBase(records, in.Origin, in.Canonical)
	if err != nil {
		return nil, err
	}

	var union []int
	plan := &MergePlan{LineageID: in.LineageID}
	for _, rec := range records {
		union = weekset.Union(union, rec.Weeks())
		plan.Removed = append(plan.Removed, rec.ID)
	}

	lineage := in.LineageID
	for _, seg := range weekset.Compress(union) {
		rec := base.WithSegment(seg)
		rec.LineageID = &lineage
		rec.IsModified = false
		plan.Replacement = append(plan.Replacement, rec)
	}
	return plan, nil
}

func mergeBase(records []models.CourseOccurrence, origin *models.CourseOccurrence, canonical *models.Placement) (models.CourseOccurrence, error) {
	if origin != nil {
		base := records[0]
		applyPlacement(&base, models.PlacementOf(*origin))
		base.Note = origin.Note
		return base, nil
	}
	for _, rec := range records {
		if !rec.IsModified {
			return rec, nil
		}
	}
	if canonical != nil {
		base := records[0]
		applyPlacement(&base, *canonical)
		return base, nil
	}
	return models.CourseOccurrence{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "lineage has diverged; a canonical placement is required")
}

func applyPlacement(o *models.CourseOccurrence, p models.Placement) {
	o.DayOfWeek = p.DayOfWeek
	o.StartSlot = p.StartSlot
	if p.Span > 0 {
		o.Span = p.Span
	}
	o.Location = p.Location
}
