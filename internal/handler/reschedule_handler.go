package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/dto"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/response"
)

type rescheduleService interface {
	Preview(ctx context.Context, occurrenceID int64, req dto.RescheduleRequest) (*dto.ReschedulePreview, error)
	Commit(ctx context.Context, occurrenceID int64, req dto.RescheduleRequest) (*dto.RescheduleResult, error)
	Lineage(ctx context.Context, lineageID int64) (*dto.LineageView, error)
	Undo(ctx context.Context, lineageID int64, req dto.UndoRequest) (*dto.UndoResult, error)
}

// RescheduleHandler exposes reschedule and undo.
type RescheduleHandler struct {
	service rescheduleService
}

// NewRescheduleHandler constructs a reschedule handler.
func NewRescheduleHandler(svc rescheduleService) *RescheduleHandler {
	return &RescheduleHandler{service: svc}
}

// Preview godoc
// @Summary Preview a reschedule
// @Description Returns the records a reschedule would write and the conflicts at the target
// @Tags Reschedule
// @Accept json
// @Produce json
// @Param id path int true "Occurrence ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id}/reschedule/preview [post]
func (h *RescheduleHandler) Preview(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Commit godoc
// @Summary Reschedule an occurrence
// @Description Conflicting targets answer 409 with the conflict report unless confirmConflicts is set
// @Tags Reschedule
// @Accept json
// @Produce json
// @Param id path int true "Occurrence ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /occurrences/{id}/reschedule [post]
func (h *RescheduleHandler) Commit(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), id, req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result.Conflicts)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Lineage godoc
// @Summary Show a lineage
// @Tags Reschedule
// @Produce json
// @Param id path int true "Lineage ID"
// @Success 200 {object} response.Envelope
// @Router /lineages/{id} [get]
func (h *RescheduleHandler) Lineage(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Lineage(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Undo godoc
// @Summary Undo the reschedules of a lineage
// @Tags Reschedule
// @Accept json
// @Produce json
// @Param id path int true "Lineage ID"
// @Param payload body dto.UndoRequest false "Canonical placement"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /lineages/{id}/undo [post]
func (h *RescheduleHandler) Undo(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UndoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
	}
	result, err := h.service.Undo(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
