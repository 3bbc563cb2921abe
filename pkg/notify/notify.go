// Package notify 外部通知通道：审计记录与告警
// 所有投递都是尽力而为，失败只记日志，不影响请求结果
package notify

import (
	"context"
	"errors"
	"time"

	"NetworkingServer/pkg/async"
	"NetworkingServer/pkg/logger"
)

// AuditRecord 一次非 GET 请求的审计记录
// 不包含任何请求头，Authorization 不会外发
type AuditRecord struct {
	Method     string      `json:"method"`
	Route      string      `json:"route"`
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	ErrorData  interface{} `json:"error_data,omitempty"`
	TraceID    string      `json:"trace_id"`
	UserID     int64       `json:"user_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Succeeded 审计记录是否为成功请求
func (r AuditRecord) Succeeded() bool { return r.Status == "SUCCESS" }

// Alert 服务端异常告警（5xx、panic、清算失败）
type Alert struct {
	Title   string
	Message string
	Method  string
	Route   string
	TraceID string
	Stack   string
}

// Notifier 通知通道
type Notifier interface {
	Audit(ctx context.Context, rec AuditRecord) error
	Alert(ctx context.Context, alert Alert) error
}

// Nop 空实现，未配置任何通道时使用
type Nop struct{}

func (Nop) Audit(context.Context, AuditRecord) error { return nil }
func (Nop) Alert(context.Context, Alert) error       { return nil }

// Multi 扇出到多个通道，单个通道失败不影响其他通道
type Multi []Notifier

func (m Multi) Audit(ctx context.Context, rec AuditRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.Audit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Alert(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Alert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher 异步投递，带超时，错误吞掉只记 warn
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
}

// NewDispatcher 创建异步投递器，notifier 为 nil 时等价于 Nop
func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if n == nil {
		n = Nop{}
	}
	if timeout <= 0 {
		timeout = async.DefaultTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

// Audit 异步投递审计记录
func (d *Dispatcher) Audit(ctx context.Context, rec AuditRecord) {
	if d == nil {
		return
	}
	async.RunSafeWithTimeout(ctx, d.timeout, func(runCtx context.Context) {
		if err := d.notifier.Audit(runCtx, rec); err != nil {
			logger.Warn(runCtx, "审计通知投递失败", logger.String("route", rec.Route), logger.ErrorField("error", err))
		}
	})
}

// Alert 异步投递告警
func (d *Dispatcher) Alert(ctx context.Context, alert Alert) {
	if d == nil {
		return
	}
	async.RunSafeWithTimeout(ctx, d.timeout, func(runCtx context.Context) {
		if err := d.notifier.Alert(runCtx, alert); err != nil {
			logger.Warn(runCtx, "告警投递失败", logger.String("title", alert.Title), logger.ErrorField("error", err))
		}
	})
}

// truncate 按字节截断，外部通道对字段长度有限制
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
