package handler

import (
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler dashboard, report rows and XLSX export
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Dashboard GET /reports/dashboard?from=&to=
func (h *ReportHandler) Dashboard(c *gin.Context) {
	p, err := parsePeriod(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), p)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, d)
}

// InvalidateDashboard DELETE /reports/dashboard/cache
func (h *ReportHandler) InvalidateDashboard(c *gin.Context) {
	if err := h.svc.InvalidateDashboard(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	Success(c, nil)
}

func (h *ReportHandler) Installations(c *gin.Context) {
	rows, err := h.svc.InstallationReport(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": rows, "total": len(rows)})
}

func (h *ReportHandler) Complaints(c *gin.Context) {
	p, err := parsePeriod(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	rows, err := h.svc.ComplaintReport(c.Request.Context(), p)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": rows, "total": len(rows)})
}

func (h *ReportHandler) Interventions(c *gin.Context) {
	p, err := parsePeriod(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	rows, err := h.svc.InterventionReport(c.Request.Context(), p)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": rows, "total": len(rows)})
}

// Export GET /reports/:kind/export
func (h *ReportHandler) Export(c *gin.Context) {
	p, err := parsePeriod(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	f, filename, err := h.svc.Export(c.Request.Context(), c.Param("kind"), p)
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
