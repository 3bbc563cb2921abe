package v1

import (
	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// WalletHandler 钱包处理器
type WalletHandler struct {
	walletService service.WalletService
	debug         bool
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(walletService service.WalletService, debug bool) *WalletHandler {
	return &WalletHandler{walletService: walletService, debug: debug}
}

// Connect 绑定或替换钱包
// @Router /wallet/connect/ [post]
func (h *WalletHandler) Connect(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	resp, err := h.walletService.Connect(ctx, currentUserID(c), req.WalletAddress)
	if err != nil {
		failService(ctx, c, "绑定钱包", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, "Wallet connected successfully")
}

// HealthCheck 当前用户的钱包状态
// @Router /networking/health-check/ [get]
func (h *WalletHandler) HealthCheck(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.walletService.HealthCheck(ctx, currentUserID(c))
	if err != nil {
		failService(ctx, c, "钱包健康检查", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, "Networking service is healthy")
}
