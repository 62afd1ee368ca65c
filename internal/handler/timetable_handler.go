package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/middleware"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/service"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/response"
)

type timetableService interface {
	WeekGrid(ctx context.Context, termID string, query service.WeekQuery) (*models.WeekGrid, error)
}

type exportService interface {
	ExportWeek(ctx context.Context, termID string, query service.WeekQuery, format string) (*service.ExportResult, error)
	SaveWeek(ctx context.Context, termID string, query service.WeekQuery, format string) (*dto.SavedExport, error)
	OpenSaved(ctx context.Context, token string) (*service.ExportResult, error)
}

type durationService interface {
	Apply(ctx context.Context, termID string, req dto.DurationRequest) (*dto.DurationResult, error)
}

// TimetableHandler serves rendered weeks, exports and batch durations.
type TimetableHandler struct {
	timetable timetableService
	exports   exportService
	durations durationService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetable timetableService, exports exportService, durations durationService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable, exports: exports, durations: durations}
}

// WeekGrid godoc
// @Summary Render a week
// @Tags Timetable
// @Produce json
// @Param id path string true "Term ID"
// @Param week query int false "Week number, defaults to the current week"
// @Param hideNonCurrent query bool false "Hide occurrences not meeting this week"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/timetable [get]
func (h *TimetableHandler) WeekGrid(c *gin.Context) {
	query, err := weekQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, err := h.timetable.WeekGrid(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "week", grid.Week)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export a week
// @Tags Timetable
// @Produce octet-stream
// @Param id path string true "Term ID"
// @Param week query int false "Week number, defaults to the current week"
// @Param hideNonCurrent query bool false "Hide occurrences not meeting this week"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /terms/{id}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	query, err := weekQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportWeek(c.Request.Context(), c.Param("id"), query, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}

// SaveExport godoc
// @Summary Store a week export behind a signed link
// @Tags Timetable
// @Produce json
// @Param id path string true "Term ID"
// @Param week query int false "Week number, defaults to the current week"
// @Param hideNonCurrent query bool false "Hide occurrences not meeting this week"
// @Param format query string false "csv, pdf or xlsx"
// @Success 201 {object} response.Envelope
// @Router /terms/{id}/timetable/exports [post]
func (h *TimetableHandler) SaveExport(c *gin.Context) {
	query, err := weekQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	saved, err := h.exports.SaveWeek(c.Request.Context(), c.Param("id"), query, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// Download godoc
// @Summary Download a stored export
// @Tags Timetable
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/{token} [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	doc, err := h.exports.OpenSaved(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Data)
}

// Durations godoc
// @Summary Set the span of every course in a term
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body dto.DurationRequest true "New span"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/durations [put]
func (h *TimetableHandler) Durations(c *gin.Context) {
	var req dto.DurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.durations.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
