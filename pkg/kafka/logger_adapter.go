package kafka

import (
	"context"
	"fmt"

	"NetworkingServer/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ==================== Zap Logger Adapter ====================

// InfoLogger 将 kafka-go 的调试输出转发到 zap（debug 级别，量大）
func InfoLogger() kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		logger.Debug(context.Background(), fmt.Sprintf(msg, args...), logger.String("component", "kafka"))
	}
}

// ErrorLogger 将 kafka-go 的错误输出转发到 zap
func ErrorLogger() kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		logger.Error(context.Background(), fmt.Sprintf(msg, args...), logger.String("component", "kafka"))
	}
}
