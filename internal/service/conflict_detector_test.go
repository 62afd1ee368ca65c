package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

func TestFindConflictsReportsWeeksAndCells(t *testing.T) {
	pool := []models.CourseOccurrence{
		occurrence(3, 1, 2, 2, 1, 16, weekset.ParityOdd), // sections 2-3, odd weeks
		occurrence(1, 1, 3, 3, 5, 8, weekset.ParityAll),  // sections 3-5
		occurrence(2, 1, 5, 1, 1, 16, weekset.ParityAll), // section 5, no overlap
		occurrence(4, 2, 3, 2, 1, 16, weekset.ParityAll), // other day
	}
	target := models.ConflictTarget{DayOfWeek: 1, StartSlot: 3, Span: 2, Weeks: []int{6, 5, 7}}

	report := FindConflicts(target, pool, 0)

	assert.True(t, report.HasConflicts())
	if assert.Len(t, report.Occurrences, 2) {
		assert.Equal(t, int64(1), report.Occurrences[0].Occurrence.ID)
		assert.Equal(t, []int{5, 6, 7}, report.Occurrences[0].Weeks)
		assert.Equal(t, int64(3), report.Occurrences[1].Occurrence.ID)
		assert.Equal(t, []int{5, 7}, report.Occurrences[1].Weeks)
	}
	assert.Equal(t, []int{5, 6, 7}, report.Weeks)
	assert.Equal(t, []models.SlotCell{{DayOfWeek: 1, Slot: 2}, {DayOfWeek: 1, Slot: 3}, {DayOfWeek: 1, Slot: 4}, {DayOfWeek: 1, Slot: 5}}, report.OccupiedSlots)
}

func TestFindConflictsExcludesSelf(t *testing.T) {
	self := occurrence(9, 1, 1, 2, 1, 8, weekset.ParityAll)
	report := FindConflicts(TargetOf(self), []models.CourseOccurrence{self}, self.ID)
	assert.False(t, report.HasConflicts())
	assert.NotNil(t, report.Occurrences)
	assert.NotNil(t, report.Weeks)
}

func TestFindConflictsAdjacentSectionsDoNotCollide(t *testing.T) {
	pool := []models.CourseOccurrence{occurrence(1, 1, 1, 2, 1, 8, weekset.ParityAll)}
	report := FindConflicts(models.ConflictTarget{DayOfWeek: 1, StartSlot: 3, Span: 2, Weeks: []int{1, 2}}, pool, 0)
	assert.False(t, report.HasConflicts())
}

func TestFindConflictsParityDisjoint(t *testing.T) {
	odd := occurrence(1, 1, 1, 2, 1, 16, weekset.ParityOdd)
	even := occurrence(2, 1, 1, 2, 1, 16, weekset.ParityEven)
	report := FindConflicts(TargetOf(even), []models.CourseOccurrence{odd}, even.ID)
	assert.False(t, report.HasConflicts())
}

func TestFindConflictsIsSymmetric(t *testing.T) {
	pool := []models.CourseOccurrence{
		occurrence(1, 1, 1, 2, 1, 16, weekset.ParityAll),
		occurrence(2, 1, 2, 2, 3, 9, weekset.ParityOdd),
		occurrence(3, 1, 4, 1, 2, 12, weekset.ParityEven),
		occurrence(4, 1, 3, 3, 8, 8, weekset.ParityAll),
		occurrence(5, 2, 1, 4, 1, 20, weekset.ParityAll),
	}
	for _, a := range pool {
		for _, b := range pool {
			if a.ID == b.ID {
				continue
			}
			ab := FindConflicts(TargetOf(a), []models.CourseOccurrence{b}, a.ID)
			ba := FindConflicts(TargetOf(b), []models.CourseOccurrence{a}, b.ID)
			assert.Equal(t, ab.Weeks, ba.Weeks, "conflict weeks of %d and %d", a.ID, b.ID)
		}
	}
}
