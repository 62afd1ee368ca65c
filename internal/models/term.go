package models

import "time"

// Term is a teaching period whose weeks are numbered from 1.
type Term struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	TotalWeeks     int       `db:"total_weeks" json:"total_weeks"`
	SectionsPerDay int       `db:"sections_per_day" json:"sections_per_day"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// WeekAt returns the 1-based term week containing t. Dates before the term
// start yield values below 1 and dates after the last week exceed TotalWeeks;
// callers decide how to render those.
func (t Term) WeekAt(at time.Time) int {
	start := time.Date(t.StartDate.Year(), t.StartDate.Month(), t.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(start).Hours() / 24)
	weeks := days / 7
	if days < 0 && days%7 != 0 {
		weeks--
	}
	return weeks + 1
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
