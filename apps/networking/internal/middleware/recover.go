package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/notify"
	"NetworkingServer/pkg/result"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinRecovery recover 项目可能出现的 panic
// stack: 是否打印堆栈信息
// dispatcher: 告警通道，可为 nil
func GinRecovery(stack bool, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := NewContextWithGin(c)

				// 客户端断开连接（Broken Pipe）不算服务端错误
				if isBrokenPipe(err) {
					logger.Warn(ctx, "客户端断开连接",
						logger.Any("error", err),
						logger.String("method", c.Request.Method),
						logger.String("path", c.Request.URL.Path),
					)
					if e, ok := err.(error); ok {
						_ = c.Error(e)
					}
					c.Abort()
					return
				}

				// 请求头里有 Authorization，日志只保留请求行
				httpRequest, _ := httputil.DumpRequest(c.Request, false)
				requestLine := strings.SplitN(string(httpRequest), "\r\n", 2)[0]

				stackTrace := ""
				fields := []zap.Field{
					logger.Any("error", err),
					logger.String("method", c.Request.Method),
					logger.String("path", c.Request.URL.Path),
					logger.String("query", c.Request.URL.RawQuery),
					logger.String("user-agent", c.Request.UserAgent()),
					logger.String("request", requestLine),
				}
				if stack {
					stackTrace = string(debug.Stack())
					fields = append(fields, logger.String("stack", stackTrace))
				}
				logger.Error(ctx, "panic recovered", fields...)

				dispatcher.Alert(ctx, notify.Alert{
					Title:   "panic recovered",
					Message: fmt.Sprint(err),
					Method:  c.Request.Method,
					Route:   c.FullPath(),
					TraceID: c.GetString(util.ContextKeyTraceID),
					Stack:   stackTrace,
				})

				result.Fail(c, nil, consts.CodeInternalError)
				c.Abort()
			}
		}()
		c.Next()
	}
}

func isBrokenPipe(err interface{}) bool {
	ne, ok := err.(*net.OpError)
	if !ok {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	errStr := strings.ToLower(se.Error())
	return strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "connection reset by peer")
}
