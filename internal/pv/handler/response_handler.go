package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// ResponseHandler fiches de réponse
type ResponseHandler struct {
	svc *service.ResponseService
}

func NewResponseHandler(svc *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{svc: svc}
}

func (h *ResponseHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *ResponseHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, resp)
}

func (h *ResponseHandler) Create(c *gin.Context) {
	var req service.ResponseInput
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, resp)
}

func (h *ResponseHandler) Update(c *gin.Context) {
	var req service.UpdateResponseInput
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, resp)
}

// MarkPaid POST /responses/:id/paid
func (h *ResponseHandler) MarkPaid(c *gin.Context) {
	resp, err := h.svc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, resp)
}
