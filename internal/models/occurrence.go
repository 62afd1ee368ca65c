package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/weekset"
)

// CourseOccurrence is one stored placement of a course: a day, a run of
// sections and a compact week recurrence.
type CourseOccurrence struct {
	ID         int64          `db:"id" json:"id"`
	TermID     string         `db:"term_id" json:"term_id"`
	LineageID  *int64         `db:"lineage_id" json:"lineage_id,omitempty"`
	DayOfWeek  int            `db:"day_of_week" json:"day_of_week"`
	StartSlot  int            `db:"start_slot" json:"start_slot"`
	Span       int            `db:"span" json:"span"`
	StartWeek  int            `db:"start_week" json:"start_week"`
	EndWeek    int            `db:"end_week" json:"end_week"`
	Parity     weekset.Parity `db:"parity" json:"parity"`
	IsModified bool           `db:"is_modified" json:"is_modified"`
	Name       string         `db:"name" json:"name"`
	Location   string         `db:"location" json:"location"`
	Instructor string         `db:"instructor" json:"instructor"`
	Note       string         `db:"note" json:"note"`
	Color      string         `db:"color" json:"color"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// RootLineage returns the lineage the occurrence belongs to. A record without
// a recorded lineage is its own root.
func (o CourseOccurrence) RootLineage() int64 {
	if o.LineageID != nil && *o.LineageID != 0 {
		return *o.LineageID
	}
	return o.ID
}

// IsRoot reports whether the record started its own lineage.
func (o CourseOccurrence) IsRoot() bool {
	return o.RootLineage() == o.ID
}

// Segment returns the compact week recurrence.
func (o CourseOccurrence) Segment() weekset.Segment {
	return weekset.Segment{StartWeek: o.StartWeek, EndWeek: o.EndWeek, Parity: o.Parity}
}

// Weeks expands the occurrence into explicit term weeks.
func (o CourseOccurrence) Weeks() []int {
	return weekset.Expand(o.StartWeek, o.EndWeek, o.Parity)
}

// ActiveIn reports whether the occurrence meets in week.
func (o CourseOccurrence) ActiveIn(week int) bool {
	return week >= o.StartWeek && week <= o.EndWeek && o.Parity.Matches(week)
}

// EndSlot is the last section occupied on the day.
func (o CourseOccurrence) EndSlot() int {
	return o.StartSlot + o.Span - 1
}

// CourseKey groups occurrences of the same course for display purposes.
func (o CourseOccurrence) CourseKey() string {
	return o.Name + "\x00" + o.Instructor
}

// WithSegment returns a copy carrying seg as its recurrence. The copy is
// unsaved: ID and timestamps are cleared.
func (o CourseOccurrence) WithSegment(seg weekset.Segment) CourseOccurrence {
	next := o
	next.ID = 0
	next.StartWeek = seg.StartWeek
	next.EndWeek = seg.EndWeek
	next.Parity = seg.Parity
	next.CreatedAt = time.Time{}
	next.UpdatedAt = time.Time{}
	return next
}

// OccurrenceFilter narrows occurrence listings.
type OccurrenceFilter struct {
	TermID string
}

// LineageOrigin keeps the placement a lineage had before its first reschedule.
type LineageOrigin struct {
	LineageID int64          `db:"lineage_id" json:"lineage_id"`
	TermID    string         `db:"term_id" json:"term_id"`
	Snapshot  types.JSONText `db:"snapshot" json:"snapshot"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Placement is where a course sits inside a day.
type Placement struct {
	DayOfWeek int    `json:"day_of_week"`
	StartSlot int    `json:"start_slot"`
	Span      int    `json:"span"`
	Location  string `json:"location"`
}

// PlacementOf extracts the placement of an occurrence.
func PlacementOf(o CourseOccurrence) Placement {
	return Placement{DayOfWeek: o.DayOfWeek, StartSlot: o.StartSlot, Span: o.Span, Location: o.Location}
}

// SlotAssignment is a new start slot and span for a stored occurrence.
type SlotAssignment struct {
	ID        int64 `json:"id"`
	StartSlot int   `json:"start_slot"`
	Span      int   `json:"span"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
