package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"github.com/gin-gonic/gin"
)

// Handlers handler set
type Handlers struct {
	Catalog      *CatalogHandler
	Installation *InstallationHandler
	Alarm        *AlarmHandler
	Complaint    *ComplaintHandler
	Intervention *InterventionHandler
	Response     *ResponseHandler
	Evaluation   *EvaluationHandler
	Technician   *TechnicianHandler
	Attachment   *AttachmentHandler
	Report       *ReportHandler
	SSE          *SSEHandler
}

// NewHandlers creates the handler set
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Catalog:      NewCatalogHandler(svc.Catalog),
		Installation: NewInstallationHandler(svc.Installation),
		Alarm:        NewAlarmHandler(svc.Alarm),
		Complaint:    NewComplaintHandler(svc.Complaint),
		Intervention: NewInterventionHandler(svc.Intervention),
		Response:     NewResponseHandler(svc.Response),
		Evaluation:   NewEvaluationHandler(svc.Evaluation),
		Technician:   NewTechnicianHandler(svc.Technician),
		Attachment:   NewAttachmentHandler(svc.Attachment),
		Report:       NewReportHandler(svc.Report),
		SSE:          NewSSEHandler(hub),
	}
}

// Response JSON envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse paged list payload
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes the envelope; the HTTP status is code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// handleError maps service and repository errors onto the envelope codes.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, repository.ErrDuplicate):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrNoAlarmCode):
		BadRequest(c, "Aucun code d'alarme n'est associé à cette réclamation.")
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDomainMismatch),
		errors.Is(err, service.ErrInvalidState):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		Error(c, 50300, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// bindJSON binds the body and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

// GetUserID reads the authenticated user id
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page and page_size (default 20, max 100)
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryFilters every query parameter except paging
func queryFilters(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if key == "page" || key == "page_size" || len(values) == 0 {
			continue
		}
		if v := strings.TrimSpace(values[0]); v != "" {
			filters[key] = v
		}
	}
	return filters
}

func list(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// parsePeriod reads from/to as dates (to is inclusive) or RFC 3339 times.
func parsePeriod(c *gin.Context) (repository.Period, error) {
	var p repository.Period
	var err error
	if v := c.Query("from"); v != "" {
		if p.From, err = parseTime(v, false); err != nil {
			return p, err
		}
	}
	if v := c.Query("to"); v != "" {
		if p.To, err = parseTime(v, true); err != nil {
			return p, err
		}
	}
	return p, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, errors.New("dates must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
