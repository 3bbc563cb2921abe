package solana

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RPC 调用次数与耗时
var rpcDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "solana_rpc_duration_seconds",
		Help:    "Solana RPC latency in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
	},
	[]string{"op", "result"},
)

// 熔断器状态：0 closed，1 half-open，2 open
var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "solana_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	},
	[]string{"name"},
)

func observeRPC(op string, err error, elapsed time.Duration) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, rpc.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	rpcDuration.WithLabelValues(op, result).Observe(elapsed.Seconds())
}
