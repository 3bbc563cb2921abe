package dto

import (
	"time"

	"NetworkingServer/model"
	"NetworkingServer/pkg/util"
)

// ==================== 活动相关 DTO ====================

// CreateEventRequest 创建或加入用户自建活动
// 活动编码由 title + city 归一化生成，同名同城的活动视为同一个
type CreateEventRequest struct {
	Title        string  `json:"title" binding:"required,max=150"`
	City         string  `json:"city" binding:"omitempty,max=100"`
	Address      *string `json:"address" binding:"omitempty,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=5000"`
	StartingDate *string `json:"starting_date" binding:"omitempty,datetime=2006-01-02"`
	EndingDate   *string `json:"ending_date" binding:"omitempty,datetime=2006-01-02"`
}

// AttendeeQuery 参会者检索参数
type AttendeeQuery struct {
	Event  int64  `form:"event" binding:"omitempty,gt=0"`
	Search string `form:"search" binding:"omitempty,max=100"`
	PageQuery
}

// EventSummary 活动信息
type EventSummary struct {
	ID            int64   `json:"id"`
	Name          *string `json:"name"`
	Code          string  `json:"code"`
	City          *string `json:"city"`
	Address       *string `json:"address"`
	CreatedDate   string  `json:"created_date"`
	StartingDate  *string `json:"starting_date"`
	EndingDate    *string `json:"ending_date"`
	AttendeeCount int64   `json:"attendee_count"`
	HasEnded      bool    `json:"has_ended"`
}

// UserEventItem 用户参加的活动
type UserEventItem struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Code        string        `json:"code"`
	CreatedDate string        `json:"created_date"`
	BaseEvent   *EventSummary `json:"base_event"`
}

// JoinEventResponse 按编码加入活动
type JoinEventResponse struct {
	Event           *EventSummary `json:"event"`
	AlreadyAttended bool          `json:"already_attending"`
}

// SpamBrief 运营视角下的举报台账摘要
type SpamBrief struct {
	ReportCount int  `json:"report_count"`
	IsBanned    bool `json:"is_banned"`
}

// AttendeeItem 参会者
type AttendeeItem struct {
	ID         int64      `json:"id"`
	TelegramID *int64     `json:"telegram_id"`
	Name       *string    `json:"name"`
	Username   *string    `json:"username"`
	PhotoURL   *string    `json:"photo_url"`
	IsStaff    bool       `json:"is_staff"`
	SpamReport *SpamBrief `json:"spam_report,omitempty"`
}

// ==================== 转换函数 ====================

// formatDate date 列按 YYYY-MM-DD 输出
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.DateOnly)
	return &s
}

// ConvertEventSummary attendees 为 活动id -> 参会人数，now 用于计算 has_ended
func ConvertEventSummary(e *model.BaseEvent, attendees map[int64]int64, now time.Time) *EventSummary {
	if e == nil {
		return nil
	}
	return &EventSummary{
		ID:            e.Id,
		Name:          e.Name,
		Code:          e.Code,
		City:          e.City,
		Address:       e.Address,
		CreatedDate:   util.FormatTimeRFC3339(e.CreatedDate),
		StartingDate:  formatDate(e.StartingDate),
		EndingDate:    formatDate(e.EndingDate),
		AttendeeCount: attendees[e.Id],
		HasEnded:      e.HasEnded(now),
	}
}

// ConvertUserEvent 参会记录 -> DTO
func ConvertUserEvent(ue *model.UserEvent, attendees map[int64]int64, now time.Time) *UserEventItem {
	return &UserEventItem{
		ID:          ue.Id,
		Title:       ue.Title,
		Description: ue.Description,
		Code:        ue.Code,
		CreatedDate: util.FormatTimeRFC3339(ue.CreatedDate),
		BaseEvent:   ConvertEventSummary(ue.BaseEvent, attendees, now),
	}
}

// ConvertAttendee reports 为 nil 时不输出台账（非运营）
func ConvertAttendee(u *model.User, reports map[int64]*model.SpamReport) *AttendeeItem {
	item := &AttendeeItem{
		ID:         u.Id,
		TelegramID: u.TelegramId,
		Name:       u.Name,
		Username:   u.Username,
		PhotoURL:   u.PhotoUrl,
		IsStaff:    u.IsStaff,
	}
	if reports != nil {
		item.SpamReport = &SpamBrief{}
		if r, ok := reports[u.Id]; ok {
			item.SpamReport.ReportCount = r.ReportCount
			item.SpamReport.IsBanned = r.IsBanned
		}
	}
	return item
}
