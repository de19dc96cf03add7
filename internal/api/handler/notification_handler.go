package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// NotificationHandler 站内通知与推送 HTTP 处理器
type NotificationHandler struct {
	errorWriter
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService, debug bool) *NotificationHandler {
	return &NotificationHandler{errorWriter: errorWriter{debug: debug}, notificationSvc: notificationSvc}
}

// RegisterDeviceToken 登记当前设备的 FCM Token
// POST /api/v1/notifications/device-token
func (h *NotificationHandler) RegisterDeviceToken(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.RegisterDeviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.notificationSvc.RegisterDeviceToken(c.Request.Context(), p, &req); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListNotifications GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.notificationSvc.ListMine(c.Request.Context(), p, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.UnreadCount(c.Request.Context(), p)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkRead PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// MarkAllRead PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkAllRead(c.Request.Context(), p); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// SendNotification 管理员 / 指导老师手动发送
// POST /api/v1/notifications/send
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SendNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.notificationSvc.Send(c.Request.Context(), p, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		notFound(c, 18001, err)
	case errors.Is(err, service.ErrNoRecipients):
		unprocessable(c, 18002, err)
	case errors.Is(err, service.ErrSpecialtyNotFound):
		notFound(c, 13001, err)
	default:
		h.write(c, err)
	}
}
