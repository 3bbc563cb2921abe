package v1

import (
	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// EventHandler 活动处理器
type EventHandler struct {
	eventService service.EventService
	debug        bool
}

// NewEventHandler 创建活动处理器
func NewEventHandler(eventService service.EventService, debug bool) *EventHandler {
	return &EventHandler{eventService: eventService, debug: debug}
}

// Create 创建或复用活动并参加
// @Router /event/ [post]
func (h *EventHandler) Create(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	item, err := h.eventService.Create(ctx, currentUserID(c), middleware.IsStaff(c), &req)
	if err != nil {
		failService(ctx, c, "创建活动", err, h.debug)
		return
	}

	result.Created(c, item, "Event created successfully")
}

// ListJoined 当前用户参加的活动
// @Router /event/ [get]
func (h *EventHandler) ListJoined(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	page, err := h.eventService.ListJoined(ctx, currentUserID(c), q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询参加的活动", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Events retrieved successfully", pageMeta(page))
}

// Join 按编码加入活动
// @Router /event/join/{code}/ [post]
func (h *EventHandler) Join(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	resp, err := h.eventService.JoinByCode(ctx, currentUserID(c), c.Param("code"))
	if err != nil {
		failService(ctx, c, "加入活动", err, h.debug)
		return
	}

	msg := "Successfully joined the event"
	if resp.AlreadyAttended {
		msg = "You are already attending this event"
	}
	result.SuccessWithMessage(c, resp, msg)
}

// ListAdminEvents 运营创建的活动
// @Router /admin_event/ [get]
func (h *EventHandler) ListAdminEvents(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	q, ok := bindPage(c)
	if !ok {
		return
	}

	page, err := h.eventService.ListAdminEvents(ctx, q.Page, q.PageSize)
	if err != nil {
		failService(ctx, c, "查询运营活动", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Admin events retrieved successfully", pageMeta(page))
}

// Attendees 参会者检索
// @Router /attendees/ [get]
func (h *EventHandler) Attendees(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var q dto.AttendeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failBind(c, err)
		return
	}

	page, err := h.eventService.Attendees(ctx, currentUserID(c), middleware.IsStaff(c), &q)
	if err != nil {
		failService(ctx, c, "查询参会者", err, h.debug)
		return
	}

	result.SuccessWithMeta(c, page.Items, "Attendees retrieved successfully", pageMeta(page))
}
