package util

import (
	"context"
	"strings"

	"NetworkingServer/pkg/id"

	"github.com/gin-gonic/gin"
)

// Context 相关的 key 常量
// gin.Context 与 context.Context 使用同一组 key
const (
	ContextKeyTraceID  = "trace_id"
	ContextKeyClientIP = "client_ip"
	ContextKeyUserID   = "user_id"
	ContextKeyUser     = "user"
	ContextKeyIsStaff  = "is_staff"
)

// HeaderRequestID 请求追踪头，客户端传入时沿用，否则服务端生成
const HeaderRequestID = "X-Request-ID"

// TraceLogger 为每个请求注入 trace_id，并在响应头回写
func TraceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if traceID == "" || len(traceID) > 64 {
			traceID = id.GenerateULID()
		}
		c.Set(ContextKeyTraceID, traceID)
		c.Header(HeaderRequestID, traceID)
		c.Next()
	}
}

// NewContextWithGin 基于 gin.Context 构造携带 trace_id / user_id / client_ip 的 context.Context
// 下游 service、repository 只依赖 context.Context，不感知 gin
func NewContextWithGin(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if traceID := c.GetString(ContextKeyTraceID); traceID != "" {
		ctx = context.WithValue(ctx, ContextKeyTraceID, traceID)
	}
	if clientIP := c.GetString(ContextKeyClientIP); clientIP != "" {
		ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	}
	if userID := c.GetInt64(ContextKeyUserID); userID > 0 {
		ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	}
	return ctx
}

// GetTraceIDFromContext 从 context 中获取 trace_id
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ContextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

// GetUserIDFromContext 从 context 中获取当前用户 ID（用于认证后的接口）
func GetUserIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value(ContextKeyUserID).(int64); ok {
		return userID
	}
	return 0
}
