package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// DashboardHandler 看板与操作日志 HTTP 处理器
type DashboardHandler struct {
	errorWriter
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, debug bool) *DashboardHandler {
	return &DashboardHandler{errorWriter: errorWriter{debug: debug}, dashboardSvc: dashboardSvc}
}

// Supervisor 指导老师看板；管理员通过 specialty_id 查看任一专业
// GET /api/v1/dashboard/supervisor
func (h *DashboardHandler) Supervisor(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.dashboardSvc.Supervisor(c.Request.Context(), p, c.Query("specialty_id"))
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}

	response.OK(c, result)
}

// Admin GET /api/v1/dashboard/admin
func (h *DashboardHandler) Admin(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.dashboardSvc.AdminStats(c.Request.Context(), p)
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}

	response.OK(c, result)
}

// ListActivities 操作日志（管理员）
// GET /api/v1/activities
func (h *DashboardHandler) ListActivities(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ActivityListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.dashboardSvc.ListActivities(c.Request.Context(), p, &req)
	if err != nil {
		h.handleDashboardError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *DashboardHandler) handleDashboardError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSpecialtyNotFound) {
		notFound(c, 13001, err)
		return
	}
	h.write(c, err)
}
