package middleware

import (
	"context"

	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
)

// NewContextWithGin 带 trace_id / user_id / client_ip 的 context
func NewContextWithGin(c *gin.Context) context.Context {
	return util.NewContextWithGin(c)
}

// GetUserID 认证中间件写入的当前用户ID
func GetUserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(util.ContextKeyUserID)
	return id, id > 0
}

// GetClientIPSafe ClientIPMiddleware 解析出的客户端 IP
func GetClientIPSafe(c *gin.Context) (string, bool) {
	ip := c.GetString(util.ContextKeyClientIP)
	return ip, ip != ""
}

// IsStaff 当前用户是否为运营或超级管理员
func IsStaff(c *gin.Context) bool {
	return c.GetBool(util.ContextKeyIsStaff)
}
