package service

import (
	"context"
	"strings"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/id"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/solana"

	"github.com/shopspring/decimal"
)

// defaultMockAmount 测试交易缺省金额
var defaultMockAmount = decimal.NewFromInt(3)

// transactionServiceImpl 链上交易服务实现
type transactionServiceImpl struct {
	verifier       solana.Verifier
	platformWallet string
	testMode       bool
}

// NewTransactionService 创建链上交易服务实例
// platformWallet: 平台收款钱包；testMode 关闭时 Mock 不可用
func NewTransactionService(verifier solana.Verifier, platformWallet string, testMode bool) TransactionService {
	return &transactionServiceImpl{
		verifier:       verifier,
		platformWallet: platformWallet,
		testMode:       testMode,
	}
}

// Status 校验交易，不检查金额
// RPC 失败（含熔断打开）返回 CodeUpstreamFailure，与“交易不存在”区分
func (s *transactionServiceImpl) Status(ctx context.Context, txID string) (*dto.TransactionStatusResponse, error) {
	txID = strings.TrimSpace(txID)
	if txID == "" {
		return nil, NewError(consts.CodeParamError)
	}

	ok, err := s.verifier.Verify(ctx, txID, nil, s.platformWallet)
	if err != nil {
		logger.Warn(ctx, "交易校验调用失败", logger.String("transaction_id", txID), logger.ErrorField("error", err))
		return nil, upstreamError(err)
	}

	status := dto.TxStatusNotFound
	if ok {
		status = dto.TxStatusConfirmed
	}
	return &dto.TransactionStatusResponse{TransactionID: txID, IsValid: ok, Status: status}, nil
}

// Mock 生成测试交易ID
// 非测试模式下接口不存在，返回 CodeResourceNotFound
func (s *transactionServiceImpl) Mock(ctx context.Context, req *dto.MockTransactionRequest) (*dto.MockTransactionResponse, error) {
	if !s.testMode {
		return nil, NewError(consts.CodeResourceNotFound)
	}

	amount := defaultMockAmount
	if req != nil && req.Amount != nil {
		if req.Amount.IsNegative() {
			return nil, NewErrorf(consts.CodeParamError, "amount must not be negative")
		}
		amount = *req.Amount
	}

	txID := id.GenerateMockTransactionID()
	logger.Info(ctx, "测试交易已生成", logger.String("transaction_id", txID), logger.String("amount", amount.String()))
	return &dto.MockTransactionResponse{
		TransactionID: txID,
		Amount:        amount.StringFixed(6),
		Status:        dto.TxStatusConfirmed,
	}, nil
}
