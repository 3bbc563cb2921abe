package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NetworkingServer/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowThreshold 慢查询阈值
const SlowThreshold = 200 * time.Millisecond

// GormLogger 把 gorm 日志转发到 zap，并带上 context 中的 trace_id
type GormLogger struct {
	level gormlogger.LogLevel
}

// NewGormLogger 按名称解析级别：silent|error|warn|info，未知值按 warn 处理
func NewGormLogger(level string) *GormLogger {
	l := gormlogger.Warn
	switch strings.ToLower(level) {
	case "silent":
		l = gormlogger.Silent
	case "error":
		l = gormlogger.Error
	case "info":
		l = gormlogger.Info
	}
	return &GormLogger{level: l}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{level: level}
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		logger.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		logger.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		logger.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace 记录 SQL 执行情况
// 记录不存在与唯一键冲突属于业务分支，不按错误打印
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && g.level >= gormlogger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		logger.Error(ctx, "SQL 执行失败",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
			logger.ErrorField("error", err),
		)
	case elapsed > SlowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.Warn(ctx, "慢查询",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
		)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		logger.Debug(ctx, "SQL",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
		)
	}
}
