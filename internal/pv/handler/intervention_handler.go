package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// InterventionHandler work orders, their agenda, responses and evaluations
type InterventionHandler struct {
	svc *service.InterventionService
}

func NewInterventionHandler(svc *service.InterventionService) *InterventionHandler {
	return &InterventionHandler{svc: svc}
}

func (h *InterventionHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *InterventionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	it, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	count, err := h.svc.ResponseCount(ctx, it.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"intervention": it, "response_count": count})
}

func (h *InterventionHandler) Create(c *gin.Context) {
	var req service.CreateInterventionInput
	if !bindJSON(c, &req) {
		return
	}
	it, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, it)
}

func (h *InterventionHandler) Update(c *gin.Context) {
	var req service.UpdateInterventionInput
	if !bindJSON(c, &req) {
		return
	}
	it, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, it)
}

// SetState POST /interventions/:id/state/:state
func (h *InterventionHandler) SetState(c *gin.Context) {
	it, err := h.svc.SetState(c.Request.Context(), c.Param("id"), c.Param("state"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, it)
}

// SetTeam PUT /interventions/:id/team
func (h *InterventionHandler) SetTeam(c *gin.Context) {
	var req struct {
		EmployeeIDs []string `json:"employee_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	it, err := h.svc.SetTeam(c.Request.Context(), c.Param("id"), req.EmployeeIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, it)
}

// ========== Agenda ==========

func (h *InterventionHandler) ListAgendaLines(c *gin.Context) {
	items, err := h.svc.ListAgendaLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *InterventionHandler) AddAgendaLine(c *gin.Context) {
	var req service.AgendaLineInput
	if !bindJSON(c, &req) {
		return
	}
	line, err := h.svc.AddAgendaLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, line)
}

func (h *InterventionHandler) RemoveAgendaLine(c *gin.Context) {
	if err := h.svc.RemoveAgendaLine(c.Request.Context(), c.Param("id"), c.Param("lineId")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// ========== Responses & evaluations ==========

// CreateResponse POST /interventions/:id/responses
func (h *InterventionHandler) CreateResponse(c *gin.Context) {
	var req service.ResponseInput
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.CreateResponse(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, resp)
}

func (h *InterventionHandler) ListResponses(c *gin.Context) {
	items, err := h.svc.ListResponses(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateEvaluation POST /interventions/:id/evaluations
func (h *InterventionHandler) CreateEvaluation(c *gin.Context) {
	var req service.EvaluationInput
	if !bindJSON(c, &req) {
		return
	}
	ev, err := h.svc.CreateEvaluation(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, ev)
}

func (h *InterventionHandler) ListEvaluations(c *gin.Context) {
	items, err := h.svc.ListEvaluations(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
