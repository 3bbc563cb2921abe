package middleware

import (
	"strconv"
	"time"

	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpRequestsTotal 请求总数
// 标签：method, path（路由模板）, status（HTTP 状态码）
var httpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "networking_http_requests_total",
		Help: "Total number of HTTP requests processed by the networking service",
	},
	[]string{"method", "path", "status"},
)

// httpBusinessCodeTotal 业务码分布 (0=成功, 17003=请求已存在 等)
var httpBusinessCodeTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "networking_http_business_code_total",
		Help: "Total number of HTTP requests by business code",
	},
	[]string{"method", "path", "business_code"},
)

var httpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "networking_http_request_duration_seconds",
		Help:    "HTTP request latency distributions in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

var httpResponseSize = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "networking_http_response_size_bytes",
		Help:    "HTTP response size distribution in bytes",
		Buckets: []float64{100, 1000, 10000, 100000, 1000000},
	},
	[]string{"method", "path"},
)

var httpRequestsInProgress = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "networking_http_requests_in_progress",
		Help: "Number of HTTP requests currently being processed",
	},
	[]string{"method"},
)

// PrometheusMiddleware 记录 HTTP 请求指标
// 未匹配路由的请求 path 记为 "unmatched"，避免标签基数失控
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		httpRequestsInProgress.WithLabelValues(method).Inc()
		defer httpRequestsInProgress.WithLabelValues(method).Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		if code, ok := c.Get(result.ContextKeyBusinessCode); ok {
			if codeInt, ok := code.(int); ok {
				httpBusinessCodeTotal.WithLabelValues(method, path, strconv.Itoa(codeInt)).Inc()
			}
		}
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			httpResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
