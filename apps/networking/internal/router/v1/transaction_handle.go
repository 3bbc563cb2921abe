package v1

import (
	"strings"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// TransactionHandler 链上交易处理器
type TransactionHandler struct {
	transactionService service.TransactionService
	debug              bool
}

// NewTransactionHandler 创建链上交易处理器
func NewTransactionHandler(transactionService service.TransactionService, debug bool) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, debug: debug}
}

// Status 查询交易状态
// @Router /transaction/status/{transaction_id}/ [get]
func (h *TransactionHandler) Status(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	txID := strings.TrimSpace(c.Param("transaction_id"))
	if txID == "" {
		result.FailWithErrorData(c, "", consts.CodeParamError, map[string]string{"transaction_id": "This field is required."})
		return
	}

	resp, err := h.transactionService.Status(ctx, txID)
	if err != nil {
		failService(ctx, c, "查询交易状态", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, "Transaction status retrieved successfully")
}

// Mock 生成测试交易，仅测试模式
// @Router /transaction/mock/ [post]
func (h *TransactionHandler) Mock(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.MockTransactionRequest
	// 请求体可以为空
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			failBind(c, err)
			return
		}
	}

	resp, err := h.transactionService.Mock(ctx, &req)
	if err != nil {
		failService(ctx, c, "生成测试交易", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, "Mock transaction created")
}
