package v1

import (
	"fmt"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// NetworkingHandler 社交请求处理器
type NetworkingHandler struct {
	networkingService service.NetworkingService
	debug             bool
}

// NewNetworkingHandler 创建社交请求处理器
// debug: 内部错误是否回显到 error_message
func NewNetworkingHandler(networkingService service.NetworkingService, debug bool) *NetworkingHandler {
	return &NetworkingHandler{networkingService: networkingService, debug: debug}
}

// SendRequest 发起带质押的社交请求
// @Router /networking/send-request/ [post]
func (h *NetworkingHandler) SendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	detail, err := h.networkingService.SendRequest(ctx, currentUserID(c), &req)
	if err != nil {
		failService(ctx, c, "发起社交请求", err, h.debug)
		return
	}

	result.Created(c, detail, "Networking request sent successfully")
}

// Respond 接收方响应请求
// @Router /networking/respond/{request_id}/ [post]
func (h *NetworkingHandler) Respond(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	requestID, ok := pathID(c, "request_id")
	if !ok {
		result.Fail(c, nil, consts.CodeRequestNotFound)
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	detail, err := h.networkingService.Respond(ctx, currentUserID(c), requestID, req.Status)
	if err != nil {
		failService(ctx, c, "响应社交请求", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, detail, fmt.Sprintf("Request marked as %s", detail.Status))
}

// RemoveConnection 移除已建立的连接
// @Router /networking/connections/{connection_id}/remove/ [post]
func (h *NetworkingHandler) RemoveConnection(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		result.Fail(c, nil, consts.CodeConnectionNotFound)
		return
	}

	resp, err := h.networkingService.RemoveConnection(ctx, currentUserID(c), connectionID)
	if err != nil {
		failService(ctx, c, "移除连接", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, "Connection successfully removed")
}

// ListReceived 收到的待处理请求
// @Router /networking/received-requests/ [get]
func (h *NetworkingHandler) ListReceived(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	page, err := h.networkingService.ListReceived(ctx, currentUserID(c), q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询收到的请求", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Received networking requests retrieved successfully", pageMeta(page))
}

// ListSent 发出的请求
// @Router /networking/sent-requests/ [get]
func (h *NetworkingHandler) ListSent(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	page, err := h.networkingService.ListSent(ctx, currentUserID(c), q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询发出的请求", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Sent networking requests retrieved successfully", pageMeta(page))
}

// ListConnections 已建立的连接
// @Router /networking/connections/ [get]
func (h *NetworkingHandler) ListConnections(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	page, err := h.networkingService.ListConnections(ctx, currentUserID(c), q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询连接", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Connections retrieved successfully", pageMeta(page))
}

// NotificationCount 未读请求数
// @Router /notifications/count/ [get]
func (h *NetworkingHandler) NotificationCount(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.networkingService.NotificationCount(ctx, currentUserID(c))
	if err != nil {
		failService(ctx, c, "查询未读数", err, h.debug)
		return
	}

	result.SuccessWithMessage(c, resp, resp.Message)
}
