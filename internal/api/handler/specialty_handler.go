package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// SpecialtyHandler 专业模块 HTTP 处理器
type SpecialtyHandler struct {
	errorWriter
	specialtySvc service.SpecialtyService
}

// NewSpecialtyHandler 创建 SpecialtyHandler
func NewSpecialtyHandler(specialtySvc service.SpecialtyService, debug bool) *SpecialtyHandler {
	return &SpecialtyHandler{errorWriter: errorWriter{debug: debug}, specialtySvc: specialtySvc}
}

// ListSpecialties 获取专业列表
// GET /api/v1/specialties
func (h *SpecialtyHandler) ListSpecialties(c *gin.Context) {
	list, err := h.specialtySvc.List(c.Request.Context())
	if err != nil {
		h.handleSpecialtyError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSpecialty 获取专业详情
// GET /api/v1/specialties/:id
func (h *SpecialtyHandler) GetSpecialty(c *gin.Context) {
	s, err := h.specialtySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSpecialtyError(c, err)
		return
	}

	response.OK(c, s)
}

// CreateSpecialty 创建专业
// POST /api/v1/specialties
func (h *SpecialtyHandler) CreateSpecialty(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateSpecialtyRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.specialtySvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		h.handleSpecialtyError(c, err)
		return
	}

	response.Created(c, s)
}

// UpdateSpecialty 更新专业（乐观锁）
// PUT /api/v1/specialties/:id
func (h *SpecialtyHandler) UpdateSpecialty(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateSpecialtyRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.specialtySvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleSpecialtyError(c, err)
		return
	}

	response.OK(c, s)
}

// DeleteSpecialty 删除专业
// DELETE /api/v1/specialties/:id
func (h *SpecialtyHandler) DeleteSpecialty(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.specialtySvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleSpecialtyError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSpecialtyError 统一处理专业模块业务错误
func (h *SpecialtyHandler) handleSpecialtyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSpecialtyNotFound):
		notFound(c, 13001, err)
	case errors.Is(err, service.ErrSpecialtyNameExists):
		response.Conflict(c, 13002, err.Error(), nil)
	case errors.Is(err, service.ErrSpecialtyInUse):
		response.Conflict(c, 13003, err.Error(), nil)
	default:
		h.write(c, err)
	}
}
