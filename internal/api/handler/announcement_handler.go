package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// AnnouncementHandler 公告模块 HTTP 处理器
type AnnouncementHandler struct {
	errorWriter
	announcementSvc service.AnnouncementService
}

// NewAnnouncementHandler 创建 AnnouncementHandler
func NewAnnouncementHandler(announcementSvc service.AnnouncementService, debug bool) *AnnouncementHandler {
	return &AnnouncementHandler{errorWriter: errorWriter{debug: debug}, announcementSvc: announcementSvc}
}

// ListAnnouncements GET /api/v1/announcements
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.AnnouncementListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.announcementSvc.List(c.Request.Context(), p, &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetAnnouncement GET /api/v1/announcements/:id
func (h *AnnouncementHandler) GetAnnouncement(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	a, err := h.announcementSvc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, a)
}

// CreateAnnouncement 发布公告并推送给目标人群
// POST /api/v1/announcements
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.announcementSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.Created(c, a)
}

// UpdateAnnouncement PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.announcementSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, a)
}

// DeleteAnnouncement DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.announcementSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AnnouncementHandler) handleAnnouncementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		notFound(c, 16001, err)
	case errors.Is(err, service.ErrSpecialtyNotFound):
		notFound(c, 13001, err)
	default:
		h.write(c, err)
	}
}
