package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig 定义跨域策略。
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     string
	AllowHeaders     string
	ExposeHeaders    string
	AllowCredentials bool
}

// DefaultCORSConfig 默认跨域配置，origins 为空时允许所有来源（动态回显 Origin）。
func DefaultCORSConfig(origins []string) CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Authorization,Content-Type,X-Requested-With,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: true,
	}
}

// CORSMiddleware 处理跨域响应头，OPTIONS 预检直接返回 204。
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin != "" && isOriginAllowed(origin, cfg.AllowOrigins) {
			// 允许凭据时不能返回 "*"，统一回显请求来源
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")

			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if cfg.AllowHeaders != "" {
				c.Header("Access-Control-Allow-Headers", cfg.AllowHeaders)
			}
			if cfg.AllowMethods != "" {
				c.Header("Access-Control-Allow-Methods", cfg.AllowMethods)
			}
			if cfg.ExposeHeaders != "" {
				c.Header("Access-Control-Expose-Headers", cfg.ExposeHeaders)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isOriginAllowed(origin string, allowList []string) bool {
	for _, allowed := range allowList {
		v := strings.TrimSpace(allowed)
		if v == "*" || strings.EqualFold(v, origin) {
			return true
		}
	}
	return false
}
