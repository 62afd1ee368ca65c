package service

import (
	"sort"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

// Selection is the occurrence picked to represent a grid cell for a week.
type Selection struct {
	Occurrence *models.CourseOccurrence
	// Current is false when the occurrence does not meet in the requested
	// week and is only shown as a "not this week" placeholder.
	Current bool
	// Overlapping lists other occurrences that are also active that week.
	Overlapping []int64
}

// Found reports whether anything should be drawn.
func (s Selection) Found() bool {
	return s.Occurrence != nil
}

// SelectForWeek picks the occurrence shown for a group sharing one
// (day, start slot). Active occurrences win, lowest id first. Without an
// active one the most recently inserted occurrence (largest id) is returned
// as not current, unless suppressNonCurrent hides it.
func SelectForWeek(group []models.CourseOccurrence, week int, suppressNonCurrent bool) Selection {
	if len(group) == 0 {
		return Selection{}
	}

	var active []models.CourseOccurrence
	for _, o := range group {
		if o.ActiveIn(week) {
			active = append(active, o)
		}
	}

	if len(active) > 0 {
		sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })
		chosen := active[0]
		sel := Selection{Occurrence: &chosen, Current: true}
		for _, o := range active[1:] {
			sel.Overlapping = append(sel.Overlapping, o.ID)
		}
		return sel
	}

	if suppressNonCurrent {
		return Selection{}
	}

	latest := group[0]
	for _, o := range group[1:] {
		if o.ID > latest.ID {
			latest = o
		}
	}
	return Selection{Occurrence: &latest, Current: false}
}

// slotKey identifies a grid cell by day and starting section.
type slotKey struct {
	Day  int
	Slot int
}

// groupBySlot buckets occurrences by (day, start slot) in a stable order.
func groupBySlot(occurrences []models.CourseOccurrence) ([]slotKey, map[slotKey][]models.CourseOccurrence) {
	groups := make(map[slotKey][]models.CourseOccurrence)
	var keys []slotKey
	for _, o := range occurrences {
		key := slotKey{Day: o.DayOfWeek, Slot: o.StartSlot}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], o)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day == keys[j].Day {
			return keys[i].Slot < keys[j].Slot
		}
		return keys[i].Day < keys[j].Day
	})
	return keys, groups
}

// distinctCourses counts the courses (name + instructor) in group other
// than the one identified by key.
func distinctCourses(group []models.CourseOccurrence, key string) int {
	seen := make(map[string]bool)
	for _, o := range group {
		if k := o.CourseKey(); k != key {
			seen[k] = true
		}
	}
	return len(seen)
}
