package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// LogbookHandler 实习日志 HTTP 处理器
type LogbookHandler struct {
	errorWriter
	logbookSvc service.LogbookService
}

// NewLogbookHandler 创建 LogbookHandler
func NewLogbookHandler(logbookSvc service.LogbookService, debug bool) *LogbookHandler {
	return &LogbookHandler{errorWriter: errorWriter{debug: debug}, logbookSvc: logbookSvc}
}

// SubmitLogbook 提交当日日志；本条补齐一周时同步生成周表 PDF
// POST /api/v1/logbooks
func (h *LogbookHandler) SubmitLogbook(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateLogbookRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.logbookSvc.Submit(c.Request.Context(), p, &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.Created(c, result)
}

// ListLogbooks GET /api/v1/logbooks
func (h *LogbookHandler) ListLogbooks(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.LogbookListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.logbookSvc.List(c.Request.Context(), p, &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetLogbook GET /api/v1/logbooks/:id
func (h *LogbookHandler) GetLogbook(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	entry, err := h.logbookSvc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, entry)
}

// UpdateLogbook 修改日志（已通过的不可修改），修改后重新进入待审核
// PUT /api/v1/logbooks/:id
func (h *LogbookHandler) UpdateLogbook(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateLogbookRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.logbookSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteLogbook DELETE /api/v1/logbooks/:id
func (h *LogbookHandler) DeleteLogbook(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.logbookSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, nil)
}

// ReviewLogbook 指导老师审核
// POST /api/v1/logbooks/:id/review
func (h *LogbookHandler) ReviewLogbook(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ReviewLogbookRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.logbookSvc.Review(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, entry)
}

// WeekStatus 查询某周填写情况；非实习生需通过 intern_id 指定
// GET /api/v1/logbooks/weeks/:week/status?intern_id=
func (h *LogbookHandler) WeekStatus(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	week, ok := pathInt(c, "week")
	if !ok {
		return
	}

	status, err := h.logbookSvc.WeekStatus(c.Request.Context(), p, c.Query("intern_id"), week)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, status)
}

// WeekPDF 获取（必要时重新生成）周表 PDF 地址
// GET /api/v1/logbooks/weeks/:week/pdf?intern_id=
func (h *LogbookHandler) WeekPDF(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	week, ok := pathInt(c, "week")
	if !ok {
		return
	}

	result, err := h.logbookSvc.GetWeekPDF(c.Request.Context(), p, c.Query("intern_id"), week)
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportLogbooks 导出实习生全部日志为 Excel
// GET /api/v1/logbooks/export?intern_id=
func (h *LogbookHandler) ExportLogbooks(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	buf, filename, err := h.logbookSvc.ExportExcel(c.Request.Context(), p, c.Query("intern_id"))
	if err != nil {
		h.handleLogbookError(c, err)
		return
	}

	setDownloadHeaders(c, filename, false)
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}

// handleLogbookError 统一处理日志模块业务错误
func (h *LogbookHandler) handleLogbookError(c *gin.Context, err error) {
	var dup *service.DuplicateEntryError
	if errors.As(err, &dup) {
		// 返回已存在的那条，便于前端跳转编辑
		response.Conflict(c, 17001, err.Error(), dup.Existing)
		return
	}

	switch {
	case errors.Is(err, service.ErrDuplicateEntry):
		response.Conflict(c, 17001, err.Error(), nil)
	case errors.Is(err, service.ErrLogbookNotFound):
		notFound(c, 17002, err)
	case errors.Is(err, service.ErrLogbookLocked):
		response.Conflict(c, 17003, err.Error(), nil)
	case errors.Is(err, service.ErrInternIDRequired):
		response.ValidationFailed(c, map[string]string{"intern_id": "is required"})
	case errors.Is(err, service.ErrInsufficientEntries):
		unprocessable(c, 17004, err)
	case errors.Is(err, service.ErrMissingMatriculation):
		unprocessable(c, 17005, err)
	case errors.Is(err, service.ErrInternNotFound):
		notFound(c, 17006, err)
	default:
		h.write(c, err)
	}
}
