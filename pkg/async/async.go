// Package async 提供带 panic 恢复与超时控制的后台任务执行
// 用于审计通知、事件投递等“尽力而为”的旁路逻辑，失败不影响主流程
package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"NetworkingServer/pkg/logger"

	"github.com/panjf2000/ants/v2"
)

// DefaultTimeout 单个任务的默认超时
const DefaultTimeout = 5 * time.Second

var (
	mu   sync.RWMutex
	pool *ants.Pool
)

// Init 初始化全局协程池
// size <= 0 时使用 ants 默认容量；池满时非阻塞提交失败会降级为直接起 goroutine
func Init(size int) error {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(true), ants.WithPanicHandler(func(r interface{}) {
		logger.Error(context.Background(), "异步任务 panic", logger.Any("panic", r), logger.String("stack", string(debug.Stack())))
	}))
	if err != nil {
		return fmt.Errorf("init async pool: %w", err)
	}

	mu.Lock()
	old := pool
	pool = p
	mu.Unlock()
	if old != nil {
		old.Release()
	}
	return nil
}

// Release 等待已提交的任务在 timeout 内结束并释放协程池
func Release(timeout time.Duration) {
	mu.Lock()
	p := pool
	pool = nil
	mu.Unlock()
	if p == nil {
		return
	}
	if err := p.ReleaseTimeout(timeout); err != nil {
		logger.Warn(context.Background(), "协程池释放超时", logger.ErrorField("error", err))
	}
}

// RunSafe 异步执行 fn
//   - fn 拿到的 context 与请求生命周期解耦，保留 trace_id / user_id，带 DefaultTimeout 超时
//   - panic 会被恢复并记录日志
func RunSafe(ctx context.Context, fn func(runCtx context.Context)) {
	RunSafeWithTimeout(ctx, DefaultTimeout, fn)
}

// RunSafeWithTimeout 同 RunSafe，可指定超时
func RunSafeWithTimeout(ctx context.Context, timeout time.Duration, fn func(runCtx context.Context)) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	base := context.WithoutCancel(ctx)

	task := func() {
		runCtx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(runCtx, "异步任务 panic", logger.Any("panic", r), logger.String("stack", string(debug.Stack())))
			}
		}()
		fn(runCtx)
	}

	mu.RLock()
	p := pool
	mu.RUnlock()
	if p != nil {
		if err := p.Submit(task); err == nil {
			return
		}
	}
	go task()
}
