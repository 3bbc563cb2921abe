package config

import "time"

// SweeperConfig 延迟退款清算任务配置。
type SweeperConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`             // API 进程内是否同时运行清算（独立进程部署时关闭）
	Interval      time.Duration `json:"interval" yaml:"interval"`           // 扫描周期
	BatchSize     int           `json:"batchSize" yaml:"batchSize"`         // 单批最多处理多少条
	FeePercentage string        `json:"feePercentage" yaml:"feePercentage"` // 平台手续费比例（定点小数字符串）
	RunLockTTL    time.Duration `json:"runLockTtl" yaml:"runLockTtl"`       // 全局运行锁 TTL，需覆盖一次完整扫描
	RowLockTTL    time.Duration `json:"rowLockTtl" yaml:"rowLockTtl"`       // 单行退款锁 TTL，需覆盖一次链上往返
	RunLockKey    string        `json:"runLockKey" yaml:"runLockKey"`       // 全局运行锁 key
}

// DefaultSweeperConfig 返回默认配置。
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Enabled:       getenvBool("SWEEPER_ENABLED", false),
		Interval:      getenvDuration("SWEEPER_INTERVAL", time.Hour),
		BatchSize:     getenvInt("SWEEPER_BATCH_SIZE", 100),
		FeePercentage: getenvString("SWEEPER_FEE_PERCENTAGE", "0.10"),
		RunLockTTL:    getenvDuration("SWEEPER_RUN_LOCK_TTL", 10*time.Minute),
		RowLockTTL:    getenvDuration("SWEEPER_ROW_LOCK_TTL", 30*time.Second),
		RunLockKey:    getenvString("SWEEPER_RUN_LOCK_KEY", "networking:refund:sweeper"),
	}
}
