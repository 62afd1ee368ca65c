package dto

// OccurrenceRequest creates or replaces a course occurrence.
type OccurrenceRequest struct {
	TermID     string `json:"termId" validate:"required"`
	DayOfWeek  int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartSlot  int    `json:"startSlot" validate:"required,min=1"`
	Span       int    `json:"span" validate:"required,min=1"`
	StartWeek  int    `json:"startWeek" validate:"required,min=1"`
	EndWeek    int    `json:"endWeek" validate:"required,min=1,gtefield=StartWeek"`
	Parity     string `json:"parity" validate:"omitempty,oneof=ALL ODD EVEN all odd even"`
	Name       string `json:"name" validate:"required,max=200"`
	Location   string `json:"location" validate:"max=200"`
	Instructor string `json:"instructor" validate:"max=200"`
	Note       string `json:"note" validate:"max=1000"`
	Color      string `json:"color" validate:"omitempty,hexcolor"`
}

// ConflictCheckRequest asks which stored occurrences collide with a placement.
type ConflictCheckRequest struct {
	TermID    string `json:"termId" validate:"required"`
	DayOfWeek int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartSlot int    `json:"startSlot" validate:"required,min=1"`
	Span      int    `json:"span" validate:"required,min=1"`
	// Weeks wins over the StartWeek/EndWeek/Parity triple when present.
	Weeks     []int  `json:"weeks" validate:"omitempty,dive,min=1"`
	StartWeek int    `json:"startWeek" validate:"omitempty,min=1"`
	EndWeek   int    `json:"endWeek" validate:"omitempty,min=1"`
	Parity    string `json:"parity" validate:"omitempty,oneof=ALL ODD EVEN all odd even"`
	ExcludeID int64  `json:"excludeId" validate:"omitempty,min=1"`
}
