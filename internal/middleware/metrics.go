package middleware

import (
	"time"

	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/metrics"

	"github.com/gin-gonic/gin"
)

/**
 * HTTP请求统计中间件
 * @description
 * - 统计HTTP服务器收到的请求数量
 * - 记录请求处理时间
 * - 状态码 >= 400 计为出错请求
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		start := time.Now()

		c.Next()

		// 使用路由模板作为标签，避免版本号等参数造成标签膨胀
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		metrics.ObserveHTTP(c.Request.Method, path, status, duration)
		logger.Debugf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, duration)
	}
}
