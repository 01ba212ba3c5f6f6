package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	svc *service.EvaluationService
}

func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

func (h *EvaluationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *EvaluationHandler) Get(c *gin.Context) {
	ev, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, ev)
}

func (h *EvaluationHandler) Create(c *gin.Context) {
	var req service.EvaluationInput
	if !bindJSON(c, &req) {
		return
	}
	ev, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, ev)
}

func (h *EvaluationHandler) Update(c *gin.Context) {
	var req service.EvaluationInput
	if !bindJSON(c, &req) {
		return
	}
	ev, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, ev)
}

// SetState POST /evaluations/:id/state/:state, "cancel" is accepted for canceled
func (h *EvaluationHandler) SetState(c *gin.Context) {
	state := c.Param("state")
	if state == "cancel" {
		state = entity.EvalStateCanceled
	}
	ev, err := h.svc.SetState(c.Request.Context(), c.Param("id"), state)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, ev)
}
