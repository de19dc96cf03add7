package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/dto"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// CommentHandler 任务评论 HTTP 处理器
type CommentHandler struct {
	errorWriter
	commentSvc service.CommentService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService, debug bool) *CommentHandler {
	return &CommentHandler{errorWriter: errorWriter{debug: debug}, commentSvc: commentSvc}
}

// ListComments GET /api/v1/tasks/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.commentSvc.List(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AddComment POST /api/v1/tasks/:id/comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentSvc.Add(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.Created(c, comment)
}

// DeleteComment DELETE /api/v1/tasks/:id/comments/:commentId
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.commentSvc.Delete(c.Request.Context(), p, c.Param("id"), c.Param("commentId")); err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CommentHandler) handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		notFound(c, 14001, err)
	case errors.Is(err, service.ErrCommentNotFound):
		notFound(c, 15001, err)
	default:
		h.write(c, err)
	}
}
