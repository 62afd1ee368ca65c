package dto

import "time"

// DurationRequest rewrites the span of every occurrence of a term.
type DurationRequest struct {
	Span int `json:"span" validate:"required,min=1,max=12"`
}

// DurationResult summarises a batch duration change.
type DurationResult struct {
	TermID  string `json:"termId"`
	Span    int    `json:"span"`
	Updated int    `json:"updated"`
}

// SavedExport points at a stored export through a signed download link.
type SavedExport struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
