package service

import (
	"sort"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

// FindConflicts returns every occurrence in pool that meets on the target's
// day, overlaps its sections and is active in at least one target week.
// The occurrence identified by excludeID is skipped so that a record never
// collides with itself; pass 0 to check every member of pool.
func FindConflicts(target models.ConflictTarget, pool []models.CourseOccurrence, excludeID int64) models.ConflictReport {
	report := models.ConflictReport{
		Occurrences:   []models.OccurrenceConflict{},
		Weeks:         []int{},
		OccupiedSlots: []models.SlotCell{},
	}
	targetWeeks := weekset.Normalize(target.Weeks)
	if len(targetWeeks) == 0 {
		return report
	}

	weekHits := make(map[int]bool)
	cells := make(map[models.SlotCell]bool)
	for _, candidate := range pool {
		if excludeID != 0 && candidate.ID == excludeID {
			continue
		}
		if !timeOverlaps(target, candidate) {
			continue
		}
		var hits []int
		for _, w := range targetWeeks {
			if candidate.ActiveIn(w) {
				hits = append(hits, w)
			}
		}
		if len(hits) == 0 {
			continue
		}
		report.Occurrences = append(report.Occurrences, models.OccurrenceConflict{Occurrence: candidate, Weeks: hits})
		for _, w := range hits {
			weekHits[w] = true
		}
		for slot := candidate.StartSlot; slot <= candidate.EndSlot(); slot++ {
			cells[models.SlotCell{DayOfWeek: candidate.DayOfWeek, Slot: slot}] = true
		}
	}

	sort.SliceStable(report.Occurrences, func(i, j int) bool {
		return report.Occurrences[i].Occurrence.ID < report.Occurrences[j].Occurrence.ID
	})
	for w := range weekHits {
		report.Weeks = append(report.Weeks, w)
	}
	sort.Ints(report.Weeks)
	for cell := range cells {
		report.OccupiedSlots = append(report.OccupiedSlots, cell)
	}
	sort.Slice(report.OccupiedSlots, func(i, j int) bool {
		if report.OccupiedSlots[i].DayOfWeek == report.OccupiedSlots[j].DayOfWeek {
			return report.OccupiedSlots[i].Slot < report.OccupiedSlots[j].Slot
		}
		return report.OccupiedSlots[i].DayOfWeek < report.OccupiedSlots[j].DayOfWeek
	})
	return report
}

// TargetOf builds the conflict target covering every week of o.
func TargetOf(o models.CourseOccurrence) models.ConflictTarget {
	return models.ConflictTarget{DayOfWeek: o.DayOfWeek, StartSlot: o.StartSlot, Span: o.Span, Weeks: o.Weeks()}
}

func timeOverlaps(target models.ConflictTarget, c models.CourseOccurrence) bool {
	return c.DayOfWeek == target.DayOfWeek &&
		c.StartSlot < target.StartSlot+target.Span &&
		c.StartSlot+c.Span > target.StartSlot
}
