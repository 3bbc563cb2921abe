package v1

import (
	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// SpamHandler 举报台账处理器（运营）
type SpamHandler struct {
	spamService service.SpamService
	debug       bool
}

// NewSpamHandler 创建举报台账处理器
func NewSpamHandler(spamService service.SpamService, debug bool) *SpamHandler {
	return &SpamHandler{spamService: spamService, debug: debug}
}

// List 台账列表
// @Router /networking/spam-reports/ [get]
func (h *SpamHandler) List(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	list, total, err := h.spamService.List(ctx, q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询举报台账", err, h.debug)
		return
	}

	meta := result.Meta{Count: total}
	meta.Page, meta.PageSize = repository.NormalizePage(q.Page, q.PageSize)
	result.SuccessWithMeta(c, list, "Spam reports retrieved successfully", meta)
}

// SetBan 手动封禁/解封
// @Router /networking/spam-reports/ [post]
func (h *SpamHandler) SetBan(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SetBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	resp, err := h.spamService.SetBan(ctx, &req)
	if err != nil {
		failService(ctx, c, "设置封禁状态", err, h.debug)
		return
	}

	msg := "User unbanned successfully"
	if resp.IsBanned {
		msg = "User banned successfully"
	}
	result.SuccessWithMessage(c, resp, msg)
}
