package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
	"github.com/TraitzTech/trazor-api-sub000/pkg/storage"
)

// AttachmentHandler 任务附件 HTTP 处理器
type AttachmentHandler struct {
	errorWriter
	attachmentSvc service.AttachmentService
}

// NewAttachmentHandler 创建 AttachmentHandler
func NewAttachmentHandler(attachmentSvc service.AttachmentService, debug bool) *AttachmentHandler {
	return &AttachmentHandler{errorWriter: errorWriter{debug: debug}, attachmentSvc: attachmentSvc}
}

// ListAttachments GET /api/v1/tasks/:id/attachments
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.attachmentSvc.List(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleAttachmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UploadAttachment 上传附件
// POST /api/v1/tasks/:id/attachments (multipart, 字段名 file)
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 15003, service.ErrAttachmentTooLarge.Error())
			return
		}
		response.ValidationFailed(c, map[string]string{"file": "is required"})
		return
	}
	defer file.Close()

	att, err := h.attachmentSvc.Upload(c.Request.Context(), p, c.Param("id"), service.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleAttachmentError(c, err)
		return
	}

	response.Created(c, att)
}

// DownloadAttachment 以流的方式返回附件内容
// GET /api/v1/attachments/:id
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	body, att, err := h.attachmentSvc.Download(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleAttachmentError(c, err)
		return
	}
	defer body.Close()

	mime := att.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	setDownloadHeaders(c, att.FileName, false)
	c.DataFromReader(http.StatusOK, att.Size, mime, body, nil)
}

// DeleteAttachment DELETE /api/v1/attachments/:id
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.attachmentSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleAttachmentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AttachmentHandler) handleAttachmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		notFound(c, 14001, err)
	case errors.Is(err, service.ErrAttachmentNotFound),
		errors.Is(err, storage.ErrNotFound):
		response.NotFound(c, 15002, service.ErrAttachmentNotFound.Error())
	case errors.Is(err, service.ErrAttachmentTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 15003, err.Error())
	default:
		h.write(c, err)
	}
}
