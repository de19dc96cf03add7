package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/internal/model"
	"github.com/TraitzTech/trazor-api-sub000/internal/service"
	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}

// MustGetPrincipal 组装当前调用者身份，供 Service 做权限判断
func MustGetPrincipal(c *gin.Context) (service.Principal, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Principal{}, false
	}
	role := model.Role(c.GetString("role"))
	if !role.Valid() {
		response.Unauthorized(c, 10002, "unauthenticated")
		return service.Principal{}, false
	}
	return service.Principal{
		UserID:      userID,
		Role:        role,
		SpecialtyID: c.GetString("specialty_id"),
	}, true
}

// tokenMeta 当前 Access Token 的 jti 与过期时间（登出时加入黑名单）
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("jti")
	exp := c.GetTime("token_exp")
	if exp.IsZero() {
		exp = time.Now().Add(15 * time.Minute)
	}
	return jti, exp
}
