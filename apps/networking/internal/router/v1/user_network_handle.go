package v1

import (
	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// UserNetworkHandler 扫码结识处理器
type UserNetworkHandler struct {
	networkService service.UserNetworkService
	debug          bool
}

// NewUserNetworkHandler 创建扫码结识处理器
func NewUserNetworkHandler(networkService service.UserNetworkService, debug bool) *UserNetworkHandler {
	return &UserNetworkHandler{networkService: networkService, debug: debug}
}

// Create 扫码结识，已有记录时返回 200
// @Router /create-a-network/ [post]
func (h *UserNetworkHandler) Create(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.CreateNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	resp, err := h.networkService.Create(ctx, currentUserID(c), &req)
	if err != nil {
		failService(ctx, c, "扫码结识", err, h.debug)
		return
	}

	if !resp.Created {
		result.SuccessWithMessage(c, resp, "You are already connected with this user")
		return
	}
	result.Created(c, resp, "Network created successfully")
}

// List 结识记录
// @Router /networks_and_connnections/ [get]
func (h *UserNetworkHandler) List(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var q dto.NetworkListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failBind(c, err)
		return
	}

	list, total, err := h.networkService.List(ctx, currentUserID(c), q.Event, q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询结识记录", err, h.debug)
		return
	}

	meta := result.Meta{Count: total}
	meta.Page, meta.PageSize = repository.NormalizePage(q.Page, q.PageSize)
	result.SuccessWithMeta(c, list, "Networks retrieved successfully", meta)
}

// ConnectedUser 与某位用户的结识详情
// @Router /networks_and_connnections/{connected_network_user_id}/ [get]
func (h *UserNetworkHandler) ConnectedUser(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	otherID, ok := pathID(c, "connected_network_user_id")
	if !ok {
		result.Fail(c, nil, consts.CodeUserNotFound)
		return
	}

	detail, err := h.networkService.ConnectedUser(ctx, currentUserID(c), otherID)
	if err != nil {
		failService(ctx, c, "查询结识详情", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, detail, "Network details retrieved successfully")
}

// SaveMeeting 保存会面笔记
// @Router /save-network-information/ [post]
func (h *UserNetworkHandler) SaveMeeting(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SaveMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	detail, err := h.networkService.SaveMeeting(ctx, currentUserID(c), &req)
	if err != nil {
		failService(ctx, c, "保存会面笔记", err, h.debug)
		return
	}

	result.Created(c, detail, "User's selfie and notes has been saved.")
}

// GetMeeting 读取会面笔记
// @Router /get-network-information/{network_id}/ [get]
func (h *UserNetworkHandler) GetMeeting(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	networkID, ok := pathID(c, "network_id")
	if !ok {
		result.Fail(c, nil, consts.CodeNetworkNotFound)
		return
	}

	detail, err := h.networkService.GetMeeting(ctx, currentUserID(c), networkID)
	if err != nil {
		failService(ctx, c, "查询会面笔记", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, detail, "Meeting information retrieved successfully")
}
