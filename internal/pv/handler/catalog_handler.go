package handler

import (
	"context"

	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// CatalogHandler clients and equipment reference data
type CatalogHandler struct {
	svc *service.CatalogService

	Brands    *NamedHandler
	Districts *NamedHandler
	Breakers  *NamedHandler
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		svc: svc,
		Brands: newNamedHandler(
			func(ctx context.Context) (interface{}, error) { return svc.ListBrands(ctx) },
			func(ctx context.Context, in *service.NamedInput) (interface{}, error) { return svc.CreateBrand(ctx, in) },
			func(ctx context.Context, id string, in *service.NamedInput) (interface{}, error) {
				return svc.UpdateBrand(ctx, id, in)
			},
			svc.DeleteBrand,
		),
		Districts: newNamedHandler(
			func(ctx context.Context) (interface{}, error) { return svc.ListDistricts(ctx) },
			func(ctx context.Context, in *service.NamedInput) (interface{}, error) { return svc.CreateDistrict(ctx, in) },
			func(ctx context.Context, id string, in *service.NamedInput) (interface{}, error) {
				return svc.UpdateDistrict(ctx, id, in)
			},
			svc.DeleteDistrict,
		),
		Breakers: newNamedHandler(
			func(ctx context.Context) (interface{}, error) { return svc.ListBreakers(ctx) },
			func(ctx context.Context, in *service.NamedInput) (interface{}, error) { return svc.CreateBreaker(ctx, in) },
			func(ctx context.Context, id string, in *service.NamedInput) (interface{}, error) {
				return svc.UpdateBreaker(ctx, id, in)
			},
			svc.DeleteBreaker,
		),
	}
}

// ========== Clients ==========

func (h *CatalogHandler) ListClients(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListClients(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *CatalogHandler) GetClient(c *gin.Context) {
	client, err := h.svc.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, client)
}

func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var req service.ClientInput
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.svc.CreateClient(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, client)
}

func (h *CatalogHandler) UpdateClient(c *gin.Context) {
	var req service.ClientInput
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.svc.UpdateClient(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, client)
}

func (h *CatalogHandler) DeleteClient(c *gin.Context) {
	if err := h.svc.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// ========== PV modules ==========

func (h *CatalogHandler) ListModules(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListModules(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *CatalogHandler) GetModule(c *gin.Context) {
	m, err := h.svc.GetModule(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"module": m, "display_name": m.DisplayName()})
}

func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req service.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.CreateModule(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, m)
}

func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	var req service.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateModule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, m)
}

func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	if err := h.svc.DeleteModule(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// ========== Inverters ==========

func (h *CatalogHandler) ListInverters(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListInverters(c.Request.Context(), page, pageSize, queryFilters(c))
	if err != nil {
		handleError(c, err)
		return
	}
	list(c, items, total, page, pageSize)
}

func (h *CatalogHandler) GetInverter(c *gin.Context) {
	inv, err := h.svc.GetInverter(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"inverter": inv, "display_name": inv.DisplayName()})
}

func (h *CatalogHandler) CreateInverter(c *gin.Context) {
	var req service.InverterInput
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.svc.CreateInverter(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, inv)
}

func (h *CatalogHandler) UpdateInverter(c *gin.Context) {
	var req service.InverterInput
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.svc.UpdateInverter(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, inv)
}

func (h *CatalogHandler) DeleteInverter(c *gin.Context) {
	if err := h.svc.DeleteInverter(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

// NamedHandler CRUD over the small name/code lookup tables
type NamedHandler struct {
	list   func(ctx context.Context) (interface{}, error)
	create func(ctx context.Context, in *service.NamedInput) (interface{}, error)
	update func(ctx context.Context, id string, in *service.NamedInput) (interface{}, error)
	remove func(ctx context.Context, id string) error
}

func newNamedHandler(
	list func(ctx context.Context) (interface{}, error),
	create func(ctx context.Context, in *service.NamedInput) (interface{}, error),
	update func(ctx context.Context, id string, in *service.NamedInput) (interface{}, error),
	remove func(ctx context.Context, id string) error,
) *NamedHandler {
	return &NamedHandler{list: list, create: create, update: update, remove: remove}
}

func (h *NamedHandler) List(c *gin.Context) {
	items, err := h.list(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *NamedHandler) Create(c *gin.Context) {
	var req service.NamedInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, item)
}

func (h *NamedHandler) Update(c *gin.Context) {
	var req service.NamedInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, item)
}

func (h *NamedHandler) Delete(c *gin.Context) {
	if err := h.remove(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}
