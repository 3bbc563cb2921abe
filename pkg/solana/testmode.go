package solana

import (
	"context"
	"errors"

	"NetworkingServer/config"

	"github.com/shopspring/decimal"
)

// TestModeVerifier 测试模式装饰器
// mock_tx_ 前缀的交易直接判定有效，退款返回 refund_<txID>；其余请求交给 next
// next 为 nil 时非模拟交易一律无效
type TestModeVerifier struct {
	next Verifier
}

// NewTestModeVerifier 包装 next
func NewTestModeVerifier(next Verifier) *TestModeVerifier {
	return &TestModeVerifier{next: next}
}

func (t *TestModeVerifier) Verify(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error) {
	if IsMockTransaction(txID) {
		return true, nil
	}
	if t.next == nil {
		return false, nil
	}
	return t.next.Verify(ctx, txID, amount, recipient)
}

func (t *TestModeVerifier) Refund(ctx context.Context, txID string, amount decimal.Decimal, senderWallet string) (string, error) {
	if IsMockTransaction(txID) {
		return MockRefundPrefix + txID, nil
	}
	if t.next == nil {
		return "", ErrRefundDisabled
	}
	return t.next.Refund(ctx, txID, amount, senderWallet)
}

// New 按配置组装校验器
// 测试模式且未配置 RPC 地址时只提供模拟交易
func New(cfg config.SolanaConfig) (Verifier, error) {
	var rpcVerifier Verifier
	if cfg.RPCURL != "" {
		v, err := NewRPCVerifier(cfg)
		if err != nil {
			return nil, err
		}
		rpcVerifier = v
	}
	if cfg.TestMode {
		return NewTestModeVerifier(rpcVerifier), nil
	}
	if rpcVerifier == nil {
		return nil, errors.New("solana rpc url is empty")
	}
	return rpcVerifier, nil
}
