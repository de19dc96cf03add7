package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// TaskHandler 任务模块 HTTP 处理器
type TaskHandler struct {
	errorWriter
	taskSvc service.TaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService, debug bool) *TaskHandler {
	return &TaskHandler{errorWriter: errorWriter{debug: debug}, taskSvc: taskSvc}
}

// ListTasks 任务列表（按角色限定可见范围）
// GET /api/v1/tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.TaskListRequest
	if !bindQuery(c, &req) {
		return
	}

	tasks, total, err := h.taskSvc.List(c.Request.Context(), p, &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OKPage(c, tasks, total, req.GetPage(), req.GetPageSize())
}

// GetTask 获取任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// CreateTask 创建并分配任务
// POST /api/v1/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.Created(c, task)
}

// UpdateTask 更新任务（乐观锁）
// PUT /api/v1/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// DeleteTask 删除任务
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.taskSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdateProgress 实习生更新本人进度
// PUT /api/v1/tasks/:id/progress
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.taskSvc.UpdateProgress(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, a)
}

// ListProgress 查看任务下所有实习生进度
// GET /api/v1/tasks/:id/progress
func (h *TaskHandler) ListProgress(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.taskSvc.ListProgress(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Calendar 导出截止日期日历
// GET /api/v1/tasks/calendar.ics
func (h *TaskHandler) Calendar(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	data, err := h.taskSvc.Calendar(c.Request.Context(), p)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	setDownloadHeaders(c, "tasks.ics", false)
	c.Data(http.StatusOK, mimeCalendar, data)
}

// handleTaskError 统一处理任务模块业务错误
func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		notFound(c, 14001, err)
	case errors.Is(err, service.ErrNotAssigned):
		response.Forbidden(c, 14002, err.Error())
	case errors.Is(err, service.ErrInternNotInScope):
		unprocessable(c, 14003, err)
	case errors.Is(err, service.ErrNoInternsToAssign):
		unprocessable(c, 14004, err)
	case errors.Is(err, service.ErrAssignmentNotFound):
		notFound(c, 14005, err)
	case errors.Is(err, service.ErrInternNotFound):
		notFound(c, 14006, err)
	case errors.Is(err, service.ErrSpecialtyNotFound):
		notFound(c, 13001, err)
	default:
		h.write(c, err)
	}
}
