package config

import "time"

// SolanaConfig 链上校验与退款配置。
type SolanaConfig struct {
	RPCURL             string        `json:"rpcUrl" yaml:"rpcUrl"`                         // JSON-RPC 地址
	PlatformWallet     string        `json:"platformWallet" yaml:"platformWallet"`         // 平台收款钱包（质押接收方）
	PlatformPrivateKey string        `json:"-" yaml:"-"`                                   // 平台钱包私钥（base58），退款签名用，不输出
	Commitment         string        `json:"commitment" yaml:"commitment"`                 // processed | confirmed | finalized
	Timeout            time.Duration `json:"timeout" yaml:"timeout"`                       // 单次 RPC 超时，不超过 5s
	TestMode           bool          `json:"testMode" yaml:"testMode"`                     // 测试模式：放行 mock_tx_ 前缀交易
	AmountTolerance    float64       `json:"amountTolerance" yaml:"amountTolerance"`       // 金额校验容差（SOL），覆盖手续费误差

	// 熔断器（sony/gobreaker）
	BreakerMaxRequests uint32        `json:"breakerMaxRequests" yaml:"breakerMaxRequests"` // 半开状态允许的探测请求数
	BreakerInterval    time.Duration `json:"breakerInterval" yaml:"breakerInterval"`       // 闭合状态计数清零周期
	BreakerOpenTimeout time.Duration `json:"breakerOpenTimeout" yaml:"breakerOpenTimeout"` // 打开后多久进入半开
	BreakerFailures    uint32        `json:"breakerFailures" yaml:"breakerFailures"`       // 连续失败多少次后打开
}

// MaxRPCTimeout 单次链上调用的超时上限
const MaxRPCTimeout = 5 * time.Second

// DefaultSolanaConfig 返回默认配置（devnet）。
func DefaultSolanaConfig() SolanaConfig {
	timeout := getenvDuration("SOLANA_TIMEOUT", MaxRPCTimeout)
	if timeout > MaxRPCTimeout {
		timeout = MaxRPCTimeout
	}

	return SolanaConfig{
		RPCURL:             getenvString("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		PlatformWallet:     getenvString("SOLANA_PLATFORM_WALLET", ""),
		PlatformPrivateKey: getenvString("SOLANA_PLATFORM_PRIVATE_KEY", ""),
		Commitment:         getenvString("SOLANA_COMMITMENT", "confirmed"),
		Timeout:            timeout,
		TestMode:           getenvBool("SOLANA_TEST_MODE", false),
		AmountTolerance:    getenvFloat("SOLANA_AMOUNT_TOLERANCE", 0.000005),
		BreakerMaxRequests: uint32(getenvInt("SOLANA_BREAKER_MAX_REQUESTS", 1)),
		BreakerInterval:    getenvDuration("SOLANA_BREAKER_INTERVAL", time.Minute),
		BreakerOpenTimeout: getenvDuration("SOLANA_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		BreakerFailures:    uint32(getenvInt("SOLANA_BREAKER_FAILURES", 5)),
	}
}
