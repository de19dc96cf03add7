package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: JSON 请求体上限；multipart 上传使用 uploadBytes 上限
func BodyLimit(maxBytes, uploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := maxBytes
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				// 预留表单字段与分隔符的开销
				limit = uploadBytes + 1<<20
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()

		// 检查是否因为超出限制而失败
		if c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(err.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
				return
			}
		}
	}
}
