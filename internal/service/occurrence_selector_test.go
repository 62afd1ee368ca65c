package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

func TestSelectForWeekSplitCourse(t *testing.T) {
	group := []models.CourseOccurrence{
		occurrence(1, 1, 3, 2, 1, 8, weekset.ParityAll),
		occurrence(2, 1, 3, 2, 9, 16, weekset.ParityAll),
	}

	sel := SelectForWeek(group, 5, false)
	require.True(t, sel.Found())
	assert.Equal(t, int64(1), sel.Occurrence.ID)
	assert.True(t, sel.Current)

	sel = SelectForWeek(group, 12, false)
	require.True(t, sel.Found())
	assert.Equal(t, int64(2), sel.Occurrence.ID)
	assert.True(t, sel.Current)

	sel = SelectForWeek(group, 20, true)
	assert.False(t, sel.Found())

	sel = SelectForWeek(group, 20, false)
	require.True(t, sel.Found())
	assert.Equal(t, int64(2), sel.Occurrence.ID)
	assert.False(t, sel.Current)
}

func TestSelectForWeekPrefersLowestActiveID(t *testing.T) {
	group := []models.CourseOccurrence{
		occurrence(9, 1, 1, 2, 1, 16, weekset.ParityAll),
		occurrence(4, 1, 1, 2, 1, 16, weekset.ParityOdd),
		occurrence(6, 1, 1, 2, 1, 16, weekset.ParityAll),
	}
	for i := 0; i < 5; i++ {
		sel := SelectForWeek(group, 3, false)
		assert.Equal(t, int64(4), sel.Occurrence.ID)
		assert.Equal(t, []int64{6, 9}, sel.Overlapping)
	}
	sel := SelectForWeek(group, 4, false)
	assert.Equal(t, int64(6), sel.Occurrence.ID)
	assert.Equal(t, []int64{9}, sel.Overlapping)
}

func TestSelectForWeekEmptyGroup(t *testing.T) {
	assert.False(t, SelectForWeek(nil, 1, false).Found())
}

func TestBuildWeekGrid(t *testing.T) {
	term := testTerm()
	chemistry := occurrence(5, 1, 3, 2, 1, 16, weekset.ParityEven)
	chemistry.Name = "Chemistry"
	occs := []models.CourseOccurrence{
		occurrence(2, 3, 1, 2, 9, 16, weekset.ParityAll),
		occurrence(1, 1, 3, 2, 1, 16, weekset.ParityOdd),
		chemistry,
	}

	grid := BuildWeekGrid(term, occs, 3, false)
	require.Len(t, grid.Cells, 2)
	assert.Equal(t, 3, grid.Week)
	assert.Equal(t, 12, grid.SectionsPerDay)

	monday := grid.Cells[0]
	assert.Equal(t, 1, monday.DayOfWeek)
	assert.Equal(t, int64(1), monday.Occurrence.ID)
	assert.True(t, monday.Current)
	assert.Equal(t, 1, monday.Alternatives)

	wednesday := grid.Cells[1]
	assert.Equal(t, 3, wednesday.DayOfWeek)
	assert.False(t, wednesday.Current)

	hidden := BuildWeekGrid(term, occs, 3, true)
	require.Len(t, hidden.Cells, 1)
	assert.Equal(t, 1, hidden.Cells[0].DayOfWeek)
}
