package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/util"
)

// maxWalletAddressLen 与 wallet_connection.wallet_address 列宽一致
const maxWalletAddressLen = 255

// walletServiceImpl 钱包服务实现
type walletServiceImpl struct {
	walletRepo repository.IWalletRepository
	now        func() time.Time
}

// NewWalletService 创建钱包服务实例
func NewWalletService(walletRepo repository.IWalletRepository) WalletService {
	return &walletServiceImpl{walletRepo: walletRepo, now: time.Now}
}

// Connect 绑定或替换钱包
// 业务流程：
//  1. 地址去空白后校验长度
//  2. upsert，地址被其他用户占用时返回冲突
func (s *walletServiceImpl) Connect(ctx context.Context, userID int64, address string) (*dto.WalletResponse, error) {
	address = strings.TrimSpace(address)
	if address == "" || len(address) > maxWalletAddressLen {
		return nil, NewErrorf(consts.CodeParamError, "wallet_address must be 1 to %d characters", maxWalletAddressLen)
	}

	wallet, err := s.walletRepo.Upsert(ctx, userID, address, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewError(consts.CodeWalletAddressTaken)
		}
		logger.Error(ctx, "绑定钱包失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	logger.Info(ctx, "钱包已绑定", logger.Int64("user_id", userID), logger.String("wallet_address", address))
	return dto.ConvertWallet(wallet), nil
}

// HealthCheck 当前用户的钱包状态
func (s *walletServiceImpl) HealthCheck(ctx context.Context, userID int64) (*dto.HealthCheckResponse, error) {
	resp := &dto.HealthCheckResponse{
		Status:    "healthy",
		UserID:    userID,
		Timestamp: util.FormatTimeRFC3339(s.now()),
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		resp.HasWallet = true
		addr := wallet.WalletAddress
		resp.WalletAddress = &addr
	case errors.Is(err, repository.ErrRecordNotFound):
	default:
		logger.Error(ctx, "查询钱包失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	return resp, nil
}
