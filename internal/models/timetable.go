package models

// ConflictTarget describes a prospective placement checked against stored
// occurrences.
type ConflictTarget struct {
	DayOfWeek int   `json:"day_of_week"`
	StartSlot int   `json:"start_slot"`
	Span      int   `json:"span"`
	Weeks     []int `json:"weeks"`
}

// SlotCell is a single (day, section) cell of the timetable grid.
type SlotCell struct {
	DayOfWeek int `json:"day_of_week"`
	Slot      int `json:"slot"`
}

// OccurrenceConflict is a stored occurrence colliding with a target.
type OccurrenceConflict struct {
	Occurrence CourseOccurrence `json:"occurrence"`
	Weeks      []int            `json:"weeks"`
}

// ConflictReport aggregates every collision found for a target.
type ConflictReport struct {
	Occurrences   []OccurrenceConflict `json:"occurrences"`
	Weeks         []int                `json:"weeks"`
	OccupiedSlots []SlotCell           `json:"occupied_slots"`
}

// HasConflicts reports whether any week collides.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Weeks) > 0
}

// GridCell is what the timetable shows for one (day, start slot) in a week.
type GridCell struct {
	DayOfWeek    int               `json:"day_of_week"`
	StartSlot    int               `json:"start_slot"`
	Occurrence   *CourseOccurrence `json:"occurrence,omitempty"`
	Current      bool              `json:"current"`
	Overlapping  []int64           `json:"overlapping,omitempty"`
	Alternatives int               `json:"alternatives"`
}

// WeekGrid is the rendered timetable of a term for one week.
type WeekGrid struct {
	TermID         string     `json:"term_id"`
	Week           int        `json:"week"`
	SectionsPerDay int        `json:"sections_per_day"`
	Cells          []GridCell `json:"cells"`
}
