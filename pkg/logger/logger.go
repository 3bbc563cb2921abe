package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"NetworkingServer/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ctxLogger 包级 Debug/Info/Warn/Error 使用，多跳过一层调用栈
var ctxLogger *zap.Logger

// Setup 构建并安装全局 logger
// 返回的 flush 在进程退出前调用（stdout 的 Sync 错误忽略）
func Setup(cfg config.LoggerConfig, service string) (flush func(), err error) {
	l, err := New(cfg, service)
	if err != nil {
		return func() {}, err
	}
	ReplaceGlobal(l)
	return func() { _ = l.Sync() }, nil
}

// ReplaceGlobal 安装全局 logger，同时替换 zap.L()/zap.S()
func ReplaceGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	ctxLogger = l.WithOptions(zap.AddCallerSkip(1))
	zap.ReplaceGlobals(l)
}

// New 根据配置构建 zap Logger
// 每条日志固定携带 service 与 host
// 级别配置错误时回退到 info；文件输出打不开直接返回错误
func New(cfg config.LoggerConfig, service string) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	outSync, err := openSinks(cfg.OutputPaths, os.Stdout)
	if err != nil {
		return nil, err
	}
	errSync, err := openSinks(cfg.ErrorOutputPaths, os.Stderr)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service", service)}
	if host, err := os.Hostname(); err == nil {
		fields = append(fields, zap.String("host", host))
	}

	opts := []zap.Option{
		zap.ErrorOutput(errSync),
		zap.AddCaller(),
		zap.Fields(fields...),
	}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.DPanicLevel))
	}

	return zap.New(zapcore.NewCore(newEncoder(cfg), outSync, level), opts...), nil
}

// newEncoder json 为默认，console 仅用于本地调试
func newEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout(time.RFC3339Nano),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	}
	if strings.EqualFold(cfg.Encoding, "console") {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.EnableColor {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// openSinks stdout/stderr 关键字或文件路径（追加写，无轮转）
func openSinks(paths []string, fallback *os.File) (zapcore.WriteSyncer, error) {
	if len(paths) == 0 {
		return zapcore.Lock(fallback), nil
	}
	syncers := make([]zapcore.WriteSyncer, 0, len(paths))
	for _, p := range paths {
		switch strings.ToLower(p) {
		case "stdout":
			syncers = append(syncers, zapcore.Lock(os.Stdout))
		case "stderr":
			syncers = append(syncers, zapcore.Lock(os.Stderr))
		default:
			f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", p, err)
			}
			syncers = append(syncers, zapcore.AddSync(f))
		}
	}
	return zapcore.NewMultiWriteSyncer(syncers...), nil
}
