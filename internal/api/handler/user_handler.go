package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	errorWriter
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, debug bool) *UserHandler {
	return &UserHandler{errorWriter: errorWriter{debug: debug}, userSvc: userSvc}
}

// ListUsers 用户列表（管理员看全部，指导老师看本专业）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UserListRequest
	if !bindQuery(c, &req) {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), p, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser 获取用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// CreateUser 管理员创建账号，临时密码通过邮件发送
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.userSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateUser 更新用户信息
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户（软删除，学号不复用）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetActive 启用 / 停用账号
// PATCH /api/v1/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.SetActive(c.Request.Context(), p, c.Param("id"), *req.IsActive)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// ResetPassword 重置为新的临时密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.userSvc.ResetPassword(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportInterns 通过 Excel 批量导入实习生
// POST /api/v1/users/import (multipart, 字段名 file)
func (h *UserHandler) ImportInterns(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.ValidationFailed(c, map[string]string{"file": "an .xlsx file is required"})
		return
	}
	defer file.Close()

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	result, err := h.userSvc.ImportInterns(c.Request.Context(), p, rows)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// handleUserError 统一处理用户模块业务错误
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		notFound(c, 12001, err)
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12002, err.Error(), nil)
	case errors.Is(err, service.ErrUserSelfDelete),
		errors.Is(err, service.ErrUserSelfDeactivate):
		response.Forbidden(c, 12003, err.Error())
	case errors.Is(err, service.ErrSpecialtyRequired):
		response.ValidationFailed(c, map[string]string{"specialty_id": err.Error()})
	case errors.Is(err, service.ErrSpecialtyNotFound):
		notFound(c, 13001, err)
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader):
		unprocessable(c, 12004, err)
	default:
		h.write(c, err)
	}
}
