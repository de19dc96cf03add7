package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	pkgerrors "github.com/TraitzTech/trazor-api-sub000/pkg/errors"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// 错误码分段：
//   10xxx 通用  11xxx 认证  12xxx 用户  13xxx 专业  14xxx 任务
//   15xxx 评论/附件  16xxx 公告  17xxx 日志  18xxx 通知

// errorWriter 各模块共用的兜底错误映射
type errorWriter struct {
	debug bool
}

// write 处理跨模块的通用错误：权限、字段校验、乐观锁，其余按 500 返回
func (w errorWriter) write(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.ValidationFailed(c, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, err.Error(), nil)
	default:
		_ = c.Error(err)
		response.InternalErrorDebug(c, err, w.debug)
	}
}

// notFound 404 并携带业务错误文案
func notFound(c *gin.Context, code int, err error) {
	response.NotFound(c, code, err.Error())
}

// unprocessable 422 业务规则不满足（非字段级）
func unprocessable(c *gin.Context, code int, err error) {
	response.Error(c, http.StatusUnprocessableEntity, code, err.Error())
}
