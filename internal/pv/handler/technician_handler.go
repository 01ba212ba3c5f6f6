package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// TechnicianHandler employees and performance analysis
type TechnicianHandler struct {
	svc *service.TechnicianService
}

func NewTechnicianHandler(svc *service.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{svc: svc}
}

func (h *TechnicianHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *TechnicianHandler) Get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, e)
}

func (h *TechnicianHandler) Create(c *gin.Context) {
	var req service.EmployeeInput
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, e)
}

func (h *TechnicianHandler) Update(c *gin.Context) {
	var req service.EmployeeInput
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, e)
}

func (h *TechnicianHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// ListEvaluations GET /technicians/:id/evaluations
func (h *TechnicianHandler) ListEvaluations(c *gin.Context) {
	items, err := h.svc.ListEvaluations(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// AnalyzePerformance POST /technicians/:id/analysis
func (h *TechnicianHandler) AnalyzePerformance(c *gin.Context) {
	out, err := h.svc.AnalyzePerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, out)
}
