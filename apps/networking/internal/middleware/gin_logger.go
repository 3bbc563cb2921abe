package middleware

import (
	"time"

	"NetworkingServer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// slowRequestThreshold 慢请求阈值
const slowRequestThreshold = 2 * time.Second

// GinLogger 记录异常与慢请求。
// 正常请求不打日志，由 Prometheus 指标覆盖；/health 任何情况都不记录。
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if path == "/health" {
			return
		}

		status := c.Writer.Status()
		cost := time.Since(start)
		ctx := NewContextWithGin(c)
		ip, _ := GetClientIPSafe(c)

		switch {
		case status >= 500:
			logger.Error(ctx, "HTTP 请求失败",
				logger.String("method", method),
				logger.String("path", path),
				logger.String("query", query),
				logger.String("ip", ip),
				logger.Int("status", status),
				logger.Duration("cost", cost),
				logger.String("errors", c.Errors.ByType(gin.ErrorTypeAny).String()),
			)
		case cost > slowRequestThreshold:
			logger.Warn(ctx, "HTTP 慢请求",
				logger.String("method", method),
				logger.String("path", path),
				logger.String("query", query),
				logger.String("ip", ip),
				logger.Int("status", status),
				logger.Duration("cost", cost),
			)
		}
	}
}
