package dto

import (
	"NetworkingServer/model"
	"NetworkingServer/pkg/util"
)

// ConnectWalletRequest 绑定钱包请求
type ConnectWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,max=255"`
}

// WalletResponse 绑定结果
type WalletResponse struct {
	UserID        int64  `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	LastConnected string `json:"last_connected"`
}

// HealthCheckResponse 当前用户的钱包状态
type HealthCheckResponse struct {
	Status        string  `json:"status"`
	UserID        int64   `json:"user_id"`
	HasWallet     bool    `json:"has_wallet"`
	WalletAddress *string `json:"wallet_address"`
	Timestamp     string  `json:"timestamp"`
}

// ConvertWallet 钱包模型 -> DTO
func ConvertWallet(w *model.WalletConnection) *WalletResponse {
	if w == nil {
		return nil
	}
	return &WalletResponse{
		UserID:        w.UserId,
		WalletAddress: w.WalletAddress,
		LastConnected: util.FormatTimeRFC3339(w.LastConnected),
	}
}
