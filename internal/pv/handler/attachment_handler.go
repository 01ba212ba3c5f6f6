package handler

import (
	"strconv"

	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/gin-gonic/gin"
)

// AttachmentHandler files attached to a record; the owner type comes from the route.
type AttachmentHandler struct {
	svc *service.AttachmentService
}

func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload POST /<owner>s/:id/attachments (multipart, field "file")
func (h *AttachmentHandler) Upload(ownerType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			BadRequest(c, "file is required")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		att, err := h.svc.Upload(c.Request.Context(), &service.UploadInput{
			OwnerType:   ownerType,
			OwnerID:     c.Param("id"),
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Content:     file,
			UploadedBy:  GetUserID(c),
		})
		if err != nil {
			handleError(c, err)
			return
		}
		Created(c, att)
	}
}

func (h *AttachmentHandler) List(ownerType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.svc.List(c.Request.Context(), ownerType, c.Param("id"))
		if err != nil {
			handleError(c, err)
			return
		}
		Success(c, gin.H{"items": items})
	}
}

// Download GET /<owner>s/:id/attachments/:attachmentId
func (h *AttachmentHandler) Download(ownerType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		att, rc, err := h.svc.Open(c.Request.Context(), ownerType, c.Param("id"), c.Param("attachmentId"))
		if err != nil {
			handleError(c, err)
			return
		}
		defer rc.Close()

		c.DataFromReader(200, att.Size, att.ContentType, rc, map[string]string{
			"Content-Disposition": "attachment; filename=" + strconv.Quote(att.FileName),
		})
	}
}

func (h *AttachmentHandler) Delete(ownerType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.svc.Delete(c.Request.Context(), ownerType, c.Param("id"), c.Param("attachmentId")); err != nil {
			handleError(c, err)
			return
		}
		Success(c, gin.H{"deleted": true})
	}
}
