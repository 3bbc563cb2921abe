// Package solana 封装质押交易的链上校验与退款
//
// Verifier 是业务侧唯一依赖的接口；RPCVerifier 直连 Solana JSON-RPC 并带熔断，
// TestModeVerifier 在测试模式下放行 mock_tx_ 前缀交易。
package solana

import (
	"context"
	"errors"
	"strings"

	sol "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// MockTransactionPrefix 测试模式下被直接放行的交易 ID 前缀
const MockTransactionPrefix = "mock_tx_"

// MockRefundPrefix 测试模式退款返回的交易 ID 前缀
const MockRefundPrefix = "refund_"

var (
	// ErrUpstream 链上 RPC 不可用（超时、熔断打开、节点报错）
	ErrUpstream = errors.New("solana upstream failure")
	// ErrRefundDisabled 未配置平台私钥，无法签发退款
	ErrRefundDisabled = errors.New("solana refund disabled: platform key not configured")
	// ErrInvalidAddress 钱包地址不是合法的 base58 公钥
	ErrInvalidAddress = errors.New("invalid solana address")
	// ErrInvalidAmount 金额非正或超出 lamports 表示范围
	ErrInvalidAmount = errors.New("invalid amount")
)

// Verifier 链上交易校验与退款
type Verifier interface {
	// Verify 校验 txID 是否为已确认且成功的交易，并且 recipient 至少收到 amount（SOL）
	// amount 为 nil 时只校验交易存在且成功
	// 返回 error 表示无法得出结论（上游故障），调用方自行决定放行或拒绝
	Verify(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error)
	// Refund 从平台钱包向 senderWallet 转账 amount（SOL），返回退款交易 ID
	Refund(ctx context.Context, txID string, amount decimal.Decimal, senderWallet string) (string, error)
}

var lamportsPerSOL = decimal.NewFromInt(int64(sol.LAMPORTS_PER_SOL))

// ToLamports SOL 金额转 lamports，四舍五入到整数
func ToLamports(amount decimal.Decimal) (uint64, error) {
	lamports := amount.Mul(lamportsPerSOL).Round(0)
	if !lamports.IsPositive() || !lamports.BigInt().IsUint64() {
		return 0, ErrInvalidAmount
	}
	return lamports.BigInt().Uint64(), nil
}

// RefundAmount 扣除平台手续费后的退款金额：amount * (1 - fee)，保留 6 位小数
func RefundAmount(amount, feePercentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(feePercentage)).Round(6)
}

// IsMockTransaction 是否为测试模式的模拟交易 ID
func IsMockTransaction(txID string) bool {
	return strings.HasPrefix(txID, MockTransactionPrefix)
}
