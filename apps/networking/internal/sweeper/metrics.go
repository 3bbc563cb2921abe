package sweeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 单行处理结果
const (
	resultRefunded = "refunded"
	resultSkipped  = "skipped"
	resultFailed   = "failed"
	resultRaced    = "raced"
)

var (
	refundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refund_sweeper_rows_total",
			Help: "Delayed refund rows processed by result",
		},
		[]string{"result"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refund_sweeper_run_duration_seconds",
			Help:    "Duration of one sweeper pass",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	lastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refund_sweeper_last_run_timestamp_seconds",
			Help: "Unix time of the last completed sweeper pass",
		},
	)
)
