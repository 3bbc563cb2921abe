package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NetworkingServer/config"
	"NetworkingServer/pkg/logger"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// rpcClient RPCVerifier 用到的 JSON-RPC 方法，*rpc.Client 满足该接口
type rpcClient interface {
	GetTransaction(ctx context.Context, txSig sol.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *sol.Transaction, opts rpc.TransactionOpts) (sol.Signature, error)
}

// RPCVerifier 基于 Solana JSON-RPC 的校验器
//   - 每次调用都经过熔断器，熔断打开时直接返回 ErrUpstream
//   - 单次调用超时不超过 config.MaxRPCTimeout
type RPCVerifier struct {
	client     rpcClient
	breaker    *gobreaker.CircuitBreaker
	commitment rpc.CommitmentType
	timeout    time.Duration
	tolerance  uint64
	payer      *sol.PrivateKey
}

// NewRPCVerifier 创建 RPC 校验器
// PlatformPrivateKey 为空时只能校验，Refund 返回 ErrRefundDisabled
func NewRPCVerifier(cfg config.SolanaConfig) (*RPCVerifier, error) {
	return newRPCVerifier(rpc.New(cfg.RPCURL), cfg)
}

func newRPCVerifier(client rpcClient, cfg config.SolanaConfig) (*RPCVerifier, error) {
	v := &RPCVerifier{
		client:     client,
		commitment: rpc.CommitmentType(cfg.Commitment),
		timeout:    cfg.Timeout,
	}
	if v.commitment == "" {
		v.commitment = rpc.CommitmentConfirmed
	}
	if v.timeout <= 0 || v.timeout > config.MaxRPCTimeout {
		v.timeout = config.MaxRPCTimeout
	}
	if cfg.AmountTolerance > 0 {
		v.tolerance = uint64(decimal.NewFromFloat(cfg.AmountTolerance).Mul(lamportsPerSOL).Round(0).IntPart())
	}

	if cfg.PlatformPrivateKey != "" {
		key, err := sol.PrivateKeyFromBase58(cfg.PlatformPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("parse platform private key: %w", err)
		}
		v.payer = &key
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	v.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "solana-rpc",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 交易不存在是正常结果，不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, rpc.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "熔断器状态变更",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return v, nil
}

// call 在熔断器与超时保护下执行一次 RPC
func (v *RPCVerifier) call(ctx context.Context, op string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()
	out, err := v.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()
		return fn(callCtx)
	})
	observeRPC(op, err, time.Since(start))

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, rpc.ErrNotFound):
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	default:
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
}

// Verify 查询交易并核对收款方余额变化
func (v *RPCVerifier) Verify(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error) {
	sig, err := sol.SignatureFromBase58(txID)
	if err != nil {
		// 非法签名不可能存在于链上
		return false, nil
	}
	to, err := sol.PublicKeyFromBase58(recipient)
	if err != nil {
		return false, fmt.Errorf("%w: recipient %q", ErrInvalidAddress, recipient)
	}

	maxVersion := uint64(0)
	out, err := v.call(ctx, "get_transaction", func(ctx context.Context) (interface{}, error) {
		return v.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       sol.EncodingBase64,
			Commitment:                     v.commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	res, _ := out.(*rpc.GetTransactionResult)
	if res == nil || res.Meta == nil || res.Transaction == nil {
		return false, nil
	}
	if res.Meta.Err != nil {
		return false, nil
	}
	if amount == nil {
		return true, nil
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return false, fmt.Errorf("decode transaction: %w", err)
	}
	received, ok := balanceIncrease(tx.Message.AccountKeys, res.Meta, to)
	if !ok {
		return false, nil
	}
	return v.amountMatches(received, *amount), nil
}

// amountMatches 实收 lamports 不低于期望值减去容差
func (v *RPCVerifier) amountMatches(received uint64, expected decimal.Decimal) bool {
	want, err := ToLamports(expected)
	if err != nil {
		return false
	}
	if want <= v.tolerance {
		return received > 0
	}
	return received >= want-v.tolerance
}

// balanceIncrease 计算 account 在该交易中的余额增量
// 账户不在交易中或余额未增加时返回 false
func balanceIncrease(keys sol.PublicKeySlice, meta *rpc.TransactionMeta, account sol.PublicKey) (uint64, bool) {
	for i, key := range keys {
		if !key.Equals(account) {
			continue
		}
		if i >= len(meta.PreBalances) || i >= len(meta.PostBalances) {
			return 0, false
		}
		pre, post := meta.PreBalances[i], meta.PostBalances[i]
		if post <= pre {
			return 0, false
		}
		return post - pre, true
	}
	return 0, false
}

// Refund 平台钱包向发送方转账
// txID 只用于日志关联，退款是一笔全新的系统转账
func (v *RPCVerifier) Refund(ctx context.Context, txID string, amount decimal.Decimal, senderWallet string) (string, error) {
	if v.payer == nil {
		return "", ErrRefundDisabled
	}
	to, err := sol.PublicKeyFromBase58(senderWallet)
	if err != nil {
		return "", fmt.Errorf("%w: sender %q", ErrInvalidAddress, senderWallet)
	}
	lamports, err := ToLamports(amount)
	if err != nil {
		return "", err
	}

	out, err := v.call(ctx, "get_latest_blockhash", func(ctx context.Context) (interface{}, error) {
		return v.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		return "", err
	}
	bh, _ := out.(*rpc.GetLatestBlockhashResult)
	if bh == nil || bh.Value == nil {
		return "", fmt.Errorf("%w: empty blockhash", ErrUpstream)
	}

	from := v.payer.PublicKey()
	tx, err := sol.NewTransaction(
		[]sol.Instruction{system.NewTransferInstruction(lamports, from, to).Build()},
		bh.Value.Blockhash,
		sol.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("build refund transaction: %w", err)
	}
	if _, err := tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if key.Equals(from) {
			return v.payer
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign refund transaction: %w", err)
	}

	out, err = v.call(ctx, "send_transaction", func(ctx context.Context) (interface{}, error) {
		return v.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			PreflightCommitment: v.commitment,
		})
	})
	if err != nil {
		return "", err
	}
	sig, _ := out.(sol.Signature)
	if sig == (sol.Signature{}) {
		return "", fmt.Errorf("%w: empty refund signature", ErrUpstream)
	}

	logger.Info(ctx, "退款交易已提交",
		logger.String("original_tx", txID),
		logger.String("refund_tx", sig.String()),
		logger.String("amount", amount.String()),
	)
	return sig.String(), nil
}
