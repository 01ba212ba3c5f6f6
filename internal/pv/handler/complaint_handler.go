package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// ComplaintHandler réclamations
type ComplaintHandler struct {
	svc *service.ComplaintService
}

func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

func (h *ComplaintHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	complaint, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	count, err := h.svc.InterventionCount(ctx, complaint.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"complaint": complaint, "intervention_count": count})
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req service.CreateComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, complaint)
}

func (h *ComplaintHandler) Update(c *gin.Context) {
	var req service.UpdateComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, complaint)
}

// SetState POST /complaints/:id/state/:state
func (h *ComplaintHandler) SetState(c *gin.Context) {
	complaint, err := h.svc.SetState(c.Request.Context(), c.Param("id"), c.Param("state"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, complaint)
}

// Close POST /complaints/:id/close
func (h *ComplaintHandler) Close(c *gin.Context) {
	complaint, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, complaint)
}

// ActionPlan GET /complaints/:id/action-plan
func (h *ComplaintHandler) ActionPlan(c *gin.Context) {
	alarm, err := h.svc.ActionPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, alarm)
}

// CreateIntervention POST /complaints/:id/interventions
func (h *ComplaintHandler) CreateIntervention(c *gin.Context) {
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	it, err := h.svc.CreateIntervention(c.Request.Context(), c.Param("id"), req.Type, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, it)
}

// ListInterventions GET /complaints/:id/interventions
func (h *ComplaintHandler) ListInterventions(c *gin.Context) {
	items, err := h.svc.ListInterventions(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
