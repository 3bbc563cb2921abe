package middleware

import (
	"fmt"
	"net/http"
	"time"

	"NetworkingServer/pkg/notify"
	"NetworkingServer/pkg/result"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
)

// Audit 非 GET 请求结束后投递审计记录，5xx 额外投递告警
// 记录只取响应信封里的字段，不带任何请求头
func Audit(dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if dispatcher == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			return
		}

		rec := notify.AuditRecord{
			Method:     c.Request.Method,
			Route:      c.FullPath(),
			Status:     c.GetString(result.ContextKeyStatus),
			StatusCode: c.Writer.Status(),
			Code:       c.GetInt(result.ContextKeyBusinessCode),
			Message:    c.GetString(result.ContextKeyMessage),
			TraceID:    c.GetString(util.ContextKeyTraceID),
			Timestamp:  time.Now().UTC(),
		}
		if rec.Route == "" {
			rec.Route = c.Request.URL.Path
		}
		if userID, ok := GetUserID(c); ok {
			rec.UserID = userID
		}
		if v, ok := c.Get(result.ContextKeyErrorData); ok {
			rec.ErrorData = v
		}

		ctx := NewContextWithGin(c)
		dispatcher.Audit(ctx, rec)

		if rec.StatusCode >= http.StatusInternalServerError {
			dispatcher.Alert(ctx, notify.Alert{
				Title:   fmt.Sprintf("%d %s %s", rec.StatusCode, rec.Method, rec.Route),
				Message: rec.Message,
				Method:  rec.Method,
				Route:   rec.Route,
				TraceID: rec.TraceID,
			})
		}
	}
}
