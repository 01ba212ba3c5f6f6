package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

type InstallationHandler struct {
	svc *service.InstallationService
}

func NewInstallationHandler(svc *service.InstallationService) *InstallationHandler {
	return &InstallationHandler{svc: svc}
}

// List GET /installations?client_id=&state=&type=&active=&keyword=
func (h *InstallationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *InstallationHandler) Get(c *gin.Context) {
	inst, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, inst)
}

// ListByClient GET /clients/:id/installations
func (h *InstallationHandler) ListByClient(c *gin.Context) {
	items, err := h.svc.ListByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *InstallationHandler) Create(c *gin.Context) {
	var req service.CreateInstallationInput
	if !bindJSON(c, &req) {
		return
	}
	inst, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, inst)
}

func (h *InstallationHandler) Update(c *gin.Context) {
	var req service.UpdateInstallationInput
	if !bindJSON(c, &req) {
		return
	}
	inst, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, inst)
}

// SetEquipment PUT /installations/:id/equipment
func (h *InstallationHandler) SetEquipment(c *gin.Context) {
	var req struct {
		ModuleIDs   []string `json:"module_ids"`
		InverterIDs []string `json:"inverter_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	inst, err := h.svc.SetEquipment(c.Request.Context(), c.Param("id"), req.ModuleIDs, req.InverterIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, inst)
}

// SetState POST /installations/:id/state/:state
func (h *InstallationHandler) SetState(c *gin.Context) {
	inst, err := h.svc.SetState(c.Request.Context(), c.Param("id"), c.Param("state"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, inst)
}

// Archive POST /installations/:id/archive
func (h *InstallationHandler) Archive(c *gin.Context) {
	if err := h.svc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}
