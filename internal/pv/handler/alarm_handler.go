package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// AlarmHandler alarm-code knowledge base
type AlarmHandler struct {
	svc *service.AlarmService
}

func NewAlarmHandler(svc *service.AlarmService) *AlarmHandler {
	return &AlarmHandler{svc: svc}
}

// List GET /alarms?part=&brand_id=&has_plan=&keyword=
func (h *AlarmHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *AlarmHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, a)
}

func (h *AlarmHandler) Create(c *gin.Context) {
	var req service.AlarmInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, a)
}

func (h *AlarmHandler) Update(c *gin.Context) {
	var req service.AlarmInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, a)
}

func (h *AlarmHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// GetActionPlan GET /alarms/:id/action-plan
func (h *AlarmHandler) GetActionPlan(c *gin.Context) {
	a, err := h.svc.GetActionPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, a)
}

// GenerateActionPlan POST /alarms/:id/action-plan regenerates the stored plan
func (h *AlarmHandler) GenerateActionPlan(c *gin.Context) {
	a, err := h.svc.GenerateActionPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, a)
}

// GenerateMissingPlans POST /alarms/action-plans/generate
func (h *AlarmHandler) GenerateMissingPlans(c *gin.Context) {
	res, err := h.svc.GenerateMissingPlans(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}
