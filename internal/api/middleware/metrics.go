package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TraitzTech/trazor-api-sub000/pkg/metrics"
)

// Metrics 请求耗时与状态码统计
// 以路由模板（而非实际路径）作为标签，避免 ID 撑爆标签基数
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		collector.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
