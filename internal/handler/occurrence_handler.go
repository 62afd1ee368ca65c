package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/response"
)

type occurrenceService interface {
	Get(ctx context.Context, id int64) (*models.CourseOccurrence, error)
	ListByTerm(ctx context.Context, termID string) ([]models.CourseOccurrence, error)
	Create(ctx context.Context, req dto.OccurrenceRequest) (*models.CourseOccurrence, error)
	Update(ctx context.Context, id int64, req dto.OccurrenceRequest) (*models.CourseOccurrence, error)
	Delete(ctx context.Context, id int64) error
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*models.ConflictReport, error)
}

// OccurrenceHandler exposes the occurrence editor.
type OccurrenceHandler struct {
	service occurrenceService
}

// NewOccurrenceHandler constructs an occurrence handler.
func NewOccurrenceHandler(svc occurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{service: svc}
}

// ListByTerm godoc
// @Summary List occurrences of a term
// @Tags Occurrences
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/occurrences [get]
func (h *OccurrenceHandler) ListByTerm(c *gin.Context) {
	items, err := h.service.ListByTerm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get occurrence
// @Tags Occurrences
// @Produce json
// @Param id path int true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id} [get]
func (h *OccurrenceHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create occurrence
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param payload body dto.OccurrenceRequest true "Occurrence payload"
// @Success 201 {object} response.Envelope
// @Router /occurrences [post]
func (h *OccurrenceHandler) Create(c *gin.Context) {
	var req dto.OccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Replace occurrence
// @Description The record is replaced; the returned occurrence has a new id in the same lineage
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param id path int true "Occurrence ID"
// @Param payload body dto.OccurrenceRequest true "Occurrence payload"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id} [put]
func (h *OccurrenceHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete occurrence
// @Tags Occurrences
// @Param id path int true "Occurrence ID"
// @Success 204
// @Router /occurrences/{id} [delete]
func (h *OccurrenceHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckConflicts godoc
// @Summary Check a placement for conflicts
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /occurrences/conflicts [post]
func (h *OccurrenceHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	report, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"has_conflicts": report.HasConflicts()})
}
