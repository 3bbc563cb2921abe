package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// 上下文中携带的标准字段 key，与 util 包保持一致
const (
	ctxKeyTraceID  = "trace_id"
	ctxKeyUserID   = "user_id"
	ctxKeyClientIP = "client_ip"
)

// withContext 从 ctx 中提取 trace_id / user_id / client_ip 并追加到字段列表前面。
func withContext(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	out := make([]zap.Field, 0, len(fields)+3)
	if traceID, ok := ctx.Value(ctxKeyTraceID).(string); ok && traceID != "" {
		out = append(out, zap.String("trace_id", traceID))
	}
	if userID, ok := ctx.Value(ctxKeyUserID).(int64); ok && userID > 0 {
		out = append(out, zap.Int64("user_id", userID))
	}
	if clientIP, ok := ctx.Value(ctxKeyClientIP).(string); ok && clientIP != "" {
		out = append(out, zap.String("client_ip", clientIP))
	}
	return append(out, fields...)
}

// current 未初始化时返回 Nop，单测与工具代码可直接调用
func current() *zap.Logger {
	if ctxLogger == nil {
		return zap.NewNop()
	}
	return ctxLogger
}

// Debug 输出调试日志
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	current().Debug(msg, withContext(ctx, fields)...)
}

// Info 输出普通日志
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	current().Info(msg, withContext(ctx, fields)...)
}

// Warn 输出告警日志
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	current().Warn(msg, withContext(ctx, fields)...)
}

// Error 输出错误日志
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	current().Error(msg, withContext(ctx, fields)...)
}

// ==================== 字段构造 ====================

func String(key, val string) zap.Field { return zap.String(key, val) }

func Int(key string, val int) zap.Field { return zap.Int(key, val) }

func Int64(key string, val int64) zap.Field { return zap.Int64(key, val) }

func Float64(key string, val float64) zap.Field { return zap.Float64(key, val) }

func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }

func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }

// ErrorField 以指定 key 记录错误，err 为 nil 时输出空字段
func ErrorField(key string, err error) zap.Field { return zap.NamedError(key, err) }
