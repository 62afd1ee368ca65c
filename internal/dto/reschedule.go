package dto

import "github.com/HF-CYGG/Dawn-Course-sub000/internal/models"

// RescheduleRequest moves some weeks of an occurrence to another placement.
type RescheduleRequest struct {
	MovedWeeks   []int  `json:"movedWeeks" validate:"required,min=1,dive,min=1"`
	TargetWeeks  []int  `json:"targetWeeks" validate:"required,min=1,dive,min=1"`
	NewDay       int    `json:"newDay" validate:"required,min=1,max=7"`
	NewStartSlot int    `json:"newStartSlot" validate:"required,min=1"`
	NewLocation  string `json:"newLocation" validate:"max=200"`
	Note         string `json:"note" validate:"max=1000"`
	// ConfirmConflicts acknowledges the conflicts shown by a preview.
	ConfirmConflicts bool `json:"confirmConflicts"`
}

// ReschedulePreview is what a reschedule would write and what it collides with.
type ReschedulePreview struct {
	LineageID int64                     `json:"lineageId"`
	Remainder []models.CourseOccurrence `json:"remainder"`
	Relocated []models.CourseOccurrence `json:"relocated"`
	Conflicts models.ConflictReport     `json:"conflicts"`
}

// RescheduleResult reports the records written by a committed reschedule.
type RescheduleResult struct {
	LineageID int64                     `json:"lineageId"`
	RemovedID int64                     `json:"removedId"`
	Remainder []models.CourseOccurrence `json:"remainder"`
	Relocated []models.CourseOccurrence `json:"relocated"`
	Conflicts models.ConflictReport     `json:"conflicts"`
}

// UndoRequest folds a lineage back into its original placement.
type UndoRequest struct {
	// Canonical is used when the lineage no longer has an unmodified record
	// and no origin was recorded.
	Canonical *models.Placement `json:"canonical"`
}

// UndoResult reports the records that replaced a lineage.
type UndoResult struct {
	LineageID   int64                     `json:"lineageId"`
	Removed     []int64                   `json:"removed"`
	Replacement []models.CourseOccurrence `json:"replacement"`
}

// LineageView lists a lineage with its recorded origin.
type LineageView struct {
	LineageID   int64                     `json:"lineageId"`
	Origin      *models.CourseOccurrence  `json:"origin,omitempty"`
	Occurrences []models.CourseOccurrence `json:"occurrences"`
	Weeks       []int                     `json:"weeks"`
}
